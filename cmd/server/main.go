package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/seat-allocator/internal/application"
	"github.com/eugenenazirov/seat-allocator/internal/config"
	"github.com/eugenenazirov/seat-allocator/internal/logging"
)

var signalNotify = signal.Notify

func main() {
	kingpinApp := kingpin.New("seat-allocator", "Seat Allocator - distributes seats among parties with highest-averages methods")
	configFile := kingpinApp.Flag("config", "Path to YAML configuration file").String()
	port := kingpinApp.Flag("port", "HTTP port exposed by the service").String()
	method := kingpinApp.Flag("method", "Default allocation method (dhondt, sainte-lague, imperiali, huntington-hill, danish)").String()
	maxSeatsFlag := kingpinApp.Flag("max-seats", "Largest seat count accepted per request").Default("0").Int()
	cacheSizeFlag := kingpinApp.Flag("cache-size", "Number of allocation results kept in memory (set 0 to disable)").Default("-1").Int()
	logFile := kingpinApp.Flag("log-file", "Also write logs to this file, rotated by size").String()
	rateLimitRPSFlag := kingpinApp.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64()
	rateLimitBurstFlag := kingpinApp.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("-1").Int()

	kingpin.MustParse(kingpinApp.Parse(os.Args[1:]))

	overrides := &config.CLIOverrides{
		ConfigFile: *configFile,
	}

	if *port != "" {
		overrides.Port = port
	}

	if *method != "" {
		overrides.Method = method
	}

	if *maxSeatsFlag > 0 {
		overrides.MaxSeats = maxSeatsFlag
	}

	if *cacheSizeFlag >= 0 {
		overrides.CacheSize = cacheSizeFlag
	}

	if *logFile != "" {
		overrides.LogFile = logFile
	}

	if *rateLimitRPSFlag >= 0 {
		overrides.RateLimitRPS = rateLimitRPSFlag
	}

	if *rateLimitBurstFlag >= 0 {
		overrides.RateLimitBurst = rateLimitBurstFlag
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	logger, err := logging.New(logging.Options{File: cfg.LogFile})
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	app, err := application.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize application", zap.Error(err))
	}

	if err := app.Start(); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}

	shutdown(app.Server(), cfg.ShutdownGracePeriod, logger)
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
