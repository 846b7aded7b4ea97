package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveAllocation(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := New(reg, "")
	require.NoError(t, err)

	c.ObserveAllocation("dhondt", OutcomeSuccess, 13, 2*time.Millisecond)
	c.ObserveAllocation("dhondt", OutcomeSuccess, 7, time.Millisecond)
	c.ObserveAllocation("danish", OutcomeRejected, 0, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.allocations.WithLabelValues("dhondt", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.allocations.WithLabelValues("danish", OutcomeRejected)))
	assert.Equal(t, 1, testutil.CollectAndCount(c.duration))
}

func TestObserveCacheLookup(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := New(reg, "test")
	require.NoError(t, err)

	c.ObserveCacheLookup(true)
	c.ObserveCacheLookup(false)
	c.ObserveCacheLookup(false)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.cacheLookups.WithLabelValues("miss")))
}

func TestNewFailsOnDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg, "dup")
	require.NoError(t, err)

	_, err = New(reg, "dup")
	require.Error(t, err)
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.ObserveAllocation("dhondt", OutcomeSuccess, 1, time.Millisecond)
		c.ObserveCacheLookup(true)
	})
}

func TestHandlerExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := New(reg, "")
	require.NoError(t, err)
	c.ObserveAllocation("imperiali", OutcomeSuccess, 13, time.Millisecond)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `seat_allocator_allocation_requests_total{method="imperiali",outcome="success"} 1`))
}
