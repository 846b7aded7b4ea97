// Package metrics exposes allocation counters and latencies to Prometheus.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultNamespace = "seat_allocator"

// Outcome labels for allocation counters.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Collector records allocation metrics. A nil *Collector is a valid no-op.
type Collector struct {
	allocations  *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	seats        prometheus.Histogram
	cacheLookups *prometheus.CounterVec
}

// New registers the allocation metrics on reg.
//
// Parameters:
//   - reg: Prometheus registerer (uses prometheus.DefaultRegisterer if nil)
//   - namespace: metrics namespace (defaults to "seat_allocator" if empty)
func New(reg prometheus.Registerer, namespace string) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = defaultNamespace
	}

	c := &Collector{
		allocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "allocation",
			Name:      "requests_total",
			Help:      "Total allocation requests by method and outcome.",
		}, []string{"method", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "allocation",
			Name:      "duration_seconds",
			Help:      "Time spent building the quotient table by method.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"method"}),
		seats: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "allocation",
			Name:      "seats",
			Help:      "Number of seats requested per successful allocation.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Result cache lookups by result (hit/miss).",
		}, []string{"result"}),
	}

	for _, col := range []prometheus.Collector{c.allocations, c.duration, c.seats, c.cacheLookups} {
		if err := reg.Register(col); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	return c, nil
}

// ObserveAllocation records one allocation request.
func (c *Collector) ObserveAllocation(method, outcome string, seats int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.allocations.WithLabelValues(method, outcome).Inc()
	if outcome != OutcomeSuccess {
		return
	}
	c.duration.WithLabelValues(method).Observe(elapsed.Seconds())
	c.seats.Observe(float64(seats))
}

// ObserveCacheLookup records a result cache hit or miss.
func (c *Collector) ObserveCacheLookup(hit bool) {
	if c == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	c.cacheLookups.WithLabelValues(result).Inc()
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
