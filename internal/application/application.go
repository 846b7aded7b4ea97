package application

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/eugenenazirov/seat-allocator/internal/api"
	"github.com/eugenenazirov/seat-allocator/internal/apportion"
	"github.com/eugenenazirov/seat-allocator/internal/cache"
	"github.com/eugenenazirov/seat-allocator/internal/config"
	"github.com/eugenenazirov/seat-allocator/internal/metrics"
	"github.com/eugenenazirov/seat-allocator/internal/storage"
)

// App encapsulates the application dependencies and HTTP server.
type App struct {
	storage  storage.Storage
	cache    *cache.Cache
	metrics  *metrics.Collector
	registry *prometheus.Registry
	handler  *api.Handler
	router   http.Handler
	logger   *zap.Logger
	server   *http.Server
}

// New initializes the application with all dependencies from the provided configuration.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	store := storage.NewMemoryStorage()
	if err := store.SetMethod(cfg.DefaultMethod); err != nil {
		return nil, fmt.Errorf("failed to apply default method: %w", err)
	}

	resultCache, err := cache.New(cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create result cache: %w", err)
	}

	handlerOpts := []api.HandlerOption{
		api.WithLimits(cfg.MaxSeats, cfg.MaxParties),
		api.WithCache(resultCache),
	}

	var (
		registry  *prometheus.Registry
		collector *metrics.Collector
	)
	if cfg.MetricsEnabled {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		collector, err = metrics.New(registry, "")
		if err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
		handlerOpts = append(handlerOpts, api.WithMetrics(collector))
	}

	handler := api.NewHandler(store, handlerOpts...)
	apiRouter := api.NewRouter(handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
		api.WithTrustedProxies(cfg.TrustedProxies...),
	)

	var metricsHandler http.Handler
	if registry != nil {
		metricsHandler = metrics.Handler(registry)
	}

	return &App{
		storage:  store,
		cache:    resultCache,
		metrics:  collector,
		registry: registry,
		handler:  handler,
		router:   apiRouter,
		logger:   logger,
		server:   NewServer(cfg, BuildRootHandler(apiRouter, metricsHandler)),
	}, nil
}

// BuildRootHandler mounts the API under /api/, the Prometheus endpoint at
// /metrics when metricsHandler is non-nil, and a small JSON index at /.
func BuildRootHandler(apiHandler, metricsHandler http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/", apiHandler)
	if metricsHandler != nil {
		mux.Handle("/metrics", metricsHandler)
	}

	index := indexResponse{
		Service:   "seat-allocator",
		Methods:   apportion.Methods(),
		Endpoints: []string{"/api/health", "/api/methods", "/api/method", "/api/divisors", "/api/allocate"},
	}
	if metricsHandler != nil {
		index.Endpoints = append(index.Endpoints, "/metrics")
	}
	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(index)
	}))

	return mux
}

type indexResponse struct {
	Service   string             `json:"service"`
	Methods   []apportion.Method `json:"methods"`
	Endpoints []string           `json:"endpoints"`
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	method, _, err := a.storage.GetMethod()
	if err != nil {
		return fmt.Errorf("read default method: %w", err)
	}

	go func() {
		a.logger.Info("server listening",
			zap.String("addr", a.server.Addr),
			zap.Stringer("default_method", method),
			zap.Bool("metrics", a.registry != nil),
		)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}
