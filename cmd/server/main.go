package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studyhub/internal/cache"
	"studyhub/internal/config"
	"studyhub/internal/repositories"
	"studyhub/internal/router"
	"studyhub/internal/services"

	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := initLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting StudyHub",
		zap.String("environment", cfg.Server.Environment),
		zap.String("store", cfg.Store.Driver),
		zap.String("cache", cfg.Cache.Provider),
	)

	// Open the store; postgres also runs migrations here
	startupCtx, cancel := context.WithTimeout(context.Background(), cfg.Database.ConnectTimeout+30*time.Second)
	backend, err := repositories.Open(startupCtx, cfg, logger)
	cancel()
	if err != nil {
		logger.Fatal("Failed to open store", zap.Error(err))
	}

	backendCache, err := cache.NewCache(&cfg.Cache, logger)
	if err != nil {
		_ = backend.Close()
		logger.Fatal("Failed to initialize cache", zap.Error(err))
	}

	sc, err := services.NewServiceCollection(backend, backendCache, cfg, logger)
	if err != nil {
		_ = backend.Close()
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}

	healthCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	health := sc.HealthCheck(healthCtx)
	cancel()
	if health.Status == "unhealthy" {
		_ = sc.Shutdown(context.Background())
		logger.Fatal("Startup health check failed", zap.Strings("issues", health.Issues))
	}
	logger.Info("Startup health check passed", zap.String("status", health.Status))

	sc.Start(context.Background())

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.SetupRouter(sc, logger),
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	// Graceful shutdown setup
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case sig := <-quit:
		logger.Info("Shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		logger.Error("HTTP server failed", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	metrics := sc.GetMetrics(shutdownCtx)
	if metrics.Database != nil {
		logger.Info("Final database metrics",
			zap.Int64("total_queries", metrics.Database.QueryCount),
			zap.Int64("total_errors", metrics.Database.ErrorCount),
			zap.Int64("slow_queries", metrics.Database.SlowQueryCount),
		)
	}

	if err := sc.Shutdown(shutdownCtx); err != nil {
		logger.Error("Service shutdown incomplete", zap.Error(err))
	}

	logger.Info("Application shutdown completed")
}

// initLogger builds the logger for the configured environment, level and format
func initLogger(cfg *config.Config) (*zap.Logger, error) {
	var zc zap.Config
	if cfg.IsProduction() {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}

	level, err := zap.ParseAtomicLevel(cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Logging.Level, err)
	}
	zc.Level = level
	zc.Encoding = cfg.Logging.Format

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}
