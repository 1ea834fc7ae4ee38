// file: internal/services/service_collection.go
package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"studyhub/internal/cache"
	"studyhub/internal/config"
	"studyhub/internal/database"
	"studyhub/internal/repositories"

	"go.uber.org/zap"
)

// ServiceCollection wires the store, result cache and services together
type ServiceCollection struct {
	// Core Services
	UserService         UserService         `json:"-"`
	DocumentService     DocumentService     `json:"-"`
	RatingService       RatingService       `json:"-"`
	CommentService      CommentService      `json:"-"`
	RelationshipService RelationshipService `json:"-"`
	CollectionService   CollectionService   `json:"-"`

	// Infrastructure Components
	Backend     *repositories.Backend `json:"-"`
	Cache       cache.Cache           `json:"-"`
	ResultCache *cache.ResultCache    `json:"-"`
	Invalidator *cache.Invalidator    `json:"-"`
	Logger      *zap.Logger           `json:"-"`
	Config      *config.Config        `json:"-"`

	// Service Management
	startTime time.Time
	shutdown  chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// ServiceHealth represents the health status of the service collection
type ServiceHealth struct {
	Status       string                   `json:"status"`
	Timestamp    time.Time                `json:"timestamp"`
	Dependencies map[string]ServiceStatus `json:"dependencies"`
	Uptime       time.Duration            `json:"uptime"`
	Issues       []string                 `json:"issues,omitempty"`
}

// ServiceStatus represents the status of one dependency
type ServiceStatus struct {
	Name         string                 `json:"name"`
	Status       string                 `json:"status"` // healthy, degraded, unhealthy, disabled
	LastCheck    time.Time              `json:"last_check"`
	ResponseTime time.Duration          `json:"response_time"`
	Error        string                 `json:"error,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// ServiceMetrics reports store and cache counters
type ServiceMetrics struct {
	StartTime time.Time                 `json:"start_time"`
	Uptime    time.Duration             `json:"uptime"`
	Database  *database.MetricsSnapshot `json:"database,omitempty"`
	Cache     *cache.CacheStats         `json:"cache,omitempty"`
}

// NewServiceCollection builds every service over an opened backend.
// backendCache may be nil, which disables result caching.
func NewServiceCollection(
	backend *repositories.Backend,
	backendCache cache.Cache,
	cfg *config.Config,
	logger *zap.Logger,
) (*ServiceCollection, error) {
	if backend == nil || backend.Store == nil {
		return nil, fmt.Errorf("store backend is required")
	}
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	sc := &ServiceCollection{
		Backend:   backend,
		Cache:     backendCache,
		Config:    cfg,
		Logger:    logger,
		startTime: time.Now(),
		shutdown:  make(chan struct{}),
	}

	sc.ResultCache = cache.NewResultCache(backendCache, cfg.Cache.TTL, logger.Named("cache"))
	sc.Invalidator = cache.NewInvalidator(sc.ResultCache)
	sc.initializeServices()

	logger.Info("Service collection initialized",
		zap.String("store", cfg.Store.Driver),
		zap.Bool("cache_enabled", sc.ResultCache.Enabled()),
	)

	return sc, nil
}

// ===============================
// INITIALIZATION METHODS
// ===============================

// initializeServices wires services in dependency order
func (sc *ServiceCollection) initializeServices() {
	store := sc.Backend.Store

	sc.UserService = NewUserService(store, sc.ResultCache, sc.Invalidator)

	sc.DocumentService = NewDocumentService(store, sc.ResultCache, sc.Invalidator, &DocumentServiceConfig{
		ListingCacheTime: sc.Config.Cache.TTL,
		StatsCacheTime:   2 * sc.Config.Cache.TTL,
	})

	sc.RatingService = NewRatingService(store, sc.Invalidator)

	sc.CommentService = NewCommentService(store, sc.ResultCache, sc.Invalidator, DefaultCommentConfig())

	sc.RelationshipService = NewRelationshipService(store, sc.Invalidator)

	sc.CollectionService = NewCollectionService(store)
}

// ===============================
// HEALTH AND MONITORING
// ===============================

// HealthCheck reports store and cache status.
// A failing cache only degrades the service; a failing store makes it unhealthy.
func (sc *ServiceCollection) HealthCheck(ctx context.Context) *ServiceHealth {
	health := &ServiceHealth{
		Status:       "healthy",
		Timestamp:    time.Now(),
		Dependencies: make(map[string]ServiceStatus),
		Uptime:       time.Since(sc.startTime),
	}

	storeStatus := sc.checkStoreHealth(ctx)
	health.Dependencies["store"] = storeStatus
	switch storeStatus.Status {
	case database.StatusUnhealthy:
		health.Status = "unhealthy"
		health.Issues = append(health.Issues, fmt.Sprintf("Store: %s", storeStatus.Error))
	case database.StatusDegraded:
		health.Status = "degraded"
		health.Issues = append(health.Issues, "Store: connection pool exhausted")
	}

	cacheStatus := sc.checkCacheHealth(ctx)
	health.Dependencies["cache"] = cacheStatus
	if cacheStatus.Status == "unhealthy" {
		if health.Status == "healthy" {
			health.Status = "degraded"
		}
		health.Issues = append(health.Issues, fmt.Sprintf("Cache: %s", cacheStatus.Error))
	}

	return health
}

// GetMetrics returns database and cache counters
func (sc *ServiceCollection) GetMetrics(ctx context.Context) *ServiceMetrics {
	metrics := &ServiceMetrics{
		StartTime: sc.startTime,
		Uptime:    time.Since(sc.startTime),
	}

	if sc.Backend.Database != nil {
		metrics.Database = sc.Backend.Database.Metrics()
	}

	if sc.Cache != nil {
		if stats, err := sc.Cache.Stats(ctx); err == nil {
			metrics.Cache = stats
		} else {
			sc.Logger.Warn("Failed to collect cache stats", zap.Error(err))
		}
	}

	return metrics
}

// ===============================
// SERVICE LIFECYCLE MANAGEMENT
// ===============================

// Start launches background monitoring in production
func (sc *ServiceCollection) Start(ctx context.Context) {
	if !sc.Config.IsProduction() {
		return
	}

	sc.wg.Add(1)
	go sc.startHealthCheckMonitoring(30 * time.Second)
	sc.Logger.Info("Service monitoring started")
}

// Shutdown stops monitoring and releases the cache and store
func (sc *ServiceCollection) Shutdown(ctx context.Context) error {
	sc.Logger.Info("Shutting down service collection")
	sc.closeOnce.Do(func() { close(sc.shutdown) })

	done := make(chan struct{})
	go func() {
		sc.wg.Wait()
		close(done)
	}()

	var shutdownErrors []error
	select {
	case <-done:
	case <-ctx.Done():
		sc.Logger.Warn("Shutdown timeout exceeded")
		shutdownErrors = append(shutdownErrors, fmt.Errorf("shutdown timeout exceeded"))
	}

	if sc.Cache != nil {
		if err := sc.Cache.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("cache close: %w", err))
		}
	}

	if err := sc.Backend.Close(); err != nil {
		shutdownErrors = append(shutdownErrors, fmt.Errorf("store close: %w", err))
	}

	if len(shutdownErrors) > 0 {
		sc.Logger.Error("Errors occurred during shutdown",
			zap.Int("error_count", len(shutdownErrors)),
		)
		return fmt.Errorf("shutdown completed with %d errors", len(shutdownErrors))
	}

	sc.Logger.Info("Service collection shutdown completed")
	return nil
}

// ===============================
// PRIVATE HELPER METHODS
// ===============================

// checkStoreHealth checks store connectivity
func (sc *ServiceCollection) checkStoreHealth(ctx context.Context) ServiceStatus {
	start := time.Now()
	dbHealth := sc.Backend.Health(ctx)

	status := ServiceStatus{
		Name:         "store",
		Status:       dbHealth.Status,
		LastCheck:    start,
		ResponseTime: time.Since(start),
		Metadata: map[string]interface{}{
			"driver":           sc.Config.Store.Driver,
			"open_connections": dbHealth.OpenConnections,
			"in_use":           dbHealth.InUse,
		},
	}
	if len(dbHealth.Errors) > 0 {
		status.Error = dbHealth.Errors[0]
	}
	return status
}

// checkCacheHealth checks cache connectivity
func (sc *ServiceCollection) checkCacheHealth(ctx context.Context) ServiceStatus {
	start := time.Now()
	status := ServiceStatus{
		Name:      "cache",
		Status:    "healthy",
		LastCheck: start,
	}

	if sc.Cache == nil {
		status.Status = "disabled"
		return status
	}

	if err := sc.Cache.Health(ctx); err != nil {
		status.Status = "unhealthy"
		status.Error = err.Error()
	}

	status.ResponseTime = time.Since(start)
	return status
}

// startHealthCheckMonitoring logs degraded health until shutdown
func (sc *ServiceCollection) startHealthCheckMonitoring(interval time.Duration) {
	defer sc.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			health := sc.HealthCheck(ctx)
			cancel()

			if health.Status != "healthy" {
				sc.Logger.Warn("Service health degraded",
					zap.String("status", health.Status),
					zap.Strings("issues", health.Issues),
				)
			}

		case <-sc.shutdown:
			sc.Logger.Info("Health check monitoring stopped")
			return
		}
	}
}
