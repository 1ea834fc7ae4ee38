package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"studyhub/internal/middleware"
	"studyhub/internal/services"

	"go.uber.org/zap"
)

// SetupRouter configures the operational routes and returns the main handler
func SetupRouter(sc *services.ServiceCollection, logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()

	// Basic health check (public)
	mux.HandleFunc("/health", HealthHandler(sc, logger))

	// Liveness only says the process is serving
	mux.HandleFunc("/healthz", LivenessHandler())

	// Store and cache counters (internal)
	mux.HandleFunc("/internal/metrics", MetricsHandler(sc, logger))

	return middleware.Chain(mux,
		middleware.RequestID(logger),
		middleware.EnhancedLogging(middleware.DefaultSlowRequestThreshold),
		middleware.RecoverPanic,
	)
}

// HealthHandler reports store and cache health; unhealthy answers 503
func HealthHandler(sc *services.ServiceCollection, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		health := sc.HealthCheck(ctx)

		status := http.StatusOK
		if health.Status == "unhealthy" {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, health, logger)
	}
}

// LivenessHandler answers as long as the server loop runs
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

// MetricsHandler exposes store and cache counters outside production
func MetricsHandler(sc *services.ServiceCollection, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if sc.Config.IsProduction() {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		writeJSON(w, http.StatusOK, sc.GetMetrics(r.Context()), logger)
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}
