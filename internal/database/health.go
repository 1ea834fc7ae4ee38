package database

import "time"

// Health status values
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// HealthStatus represents the result of a database health check
type HealthStatus struct {
	Status          string        `json:"status"`
	Timestamp       time.Time     `json:"timestamp"`
	ResponseTime    time.Duration `json:"response_time"`
	OpenConnections int           `json:"open_connections"`
	InUse           int           `json:"in_use"`
	Errors          []string      `json:"errors,omitempty"`
}

// IsHealthy reports whether the database answered and has spare capacity
func (h *HealthStatus) IsHealthy() bool {
	return h.Status == StatusHealthy
}
