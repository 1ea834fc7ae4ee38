// file: internal/repositories/collection.go
package repositories

import (
	"context"
	"fmt"
	"time"

	"studyhub/internal/config"
	"studyhub/internal/database"

	"go.uber.org/zap"
)

// Backend is an opened Store together with the resources it owns
type Backend struct {
	Store Store

	// Database is nil for the in-memory driver
	Database *database.Manager

	logger *zap.Logger
}

// Open builds the Store selected by cfg.Store.Driver.
// For postgres it connects, optionally migrates, and hands back the manager for health checks.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Backend, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Store.Driver {
	case "memory":
		logger.Info("Using in-memory store")
		return &Backend{Store: NewMemoryStore(), logger: logger}, nil

	case "postgres":
		manager, err := database.NewManager(ctx, &cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}

		if cfg.Database.RunMigrations {
			if err := manager.Migrate(); err != nil {
				manager.Close()
				return nil, fmt.Errorf("failed to run migrations: %w", err)
			}
		}

		logger.Info("Using PostgreSQL store")
		return &Backend{Store: NewPostgresStore(manager), Database: manager, logger: logger}, nil

	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
}

// Health reports the backing database status; the in-memory store is always healthy
func (b *Backend) Health(ctx context.Context) *database.HealthStatus {
	if b.Database != nil {
		return b.Database.Health(ctx)
	}

	status := &database.HealthStatus{Status: database.StatusHealthy, Timestamp: time.Now()}
	if err := b.Store.Ping(ctx); err != nil {
		status.Status = database.StatusUnhealthy
		status.Errors = append(status.Errors, err.Error())
	}
	return status
}

// Close releases the database pool if one was opened
func (b *Backend) Close() error {
	if b.Database == nil {
		return nil
	}
	if err := b.Database.Close(); err != nil {
		b.logger.Error("Failed to close database", zap.Error(err))
		return err
	}
	return nil
}
