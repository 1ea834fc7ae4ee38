package database

import (
	"database/sql"
	"sync/atomic"
	"time"
)

// Metrics collects query counters for the manager
type Metrics struct {
	queryCount     int64
	queryDuration  int64 // nanoseconds
	errorCount     int64
	slowQueryCount int64

	slowQueryThreshold time.Duration
}

// MetricsSnapshot provides a point-in-time view of metrics
type MetricsSnapshot struct {
	QueryCount       int64         `json:"query_count"`
	ErrorCount       int64         `json:"error_count"`
	SlowQueryCount   int64         `json:"slow_query_count"`
	AvgQueryDuration time.Duration `json:"avg_query_duration"`
	DBStats          sql.DBStats   `json:"db_stats"`
	Timestamp        time.Time     `json:"timestamp"`
}

// NewMetrics creates a metrics collector; a non-positive threshold means 100ms
func NewMetrics(slowQueryThreshold time.Duration) *Metrics {
	if slowQueryThreshold <= 0 {
		slowQueryThreshold = 100 * time.Millisecond
	}
	return &Metrics{slowQueryThreshold: slowQueryThreshold}
}

// RecordQuery records one query and reports whether it was slow
func (m *Metrics) RecordQuery(duration time.Duration, err error) bool {
	atomic.AddInt64(&m.queryCount, 1)
	atomic.AddInt64(&m.queryDuration, int64(duration))

	if err != nil {
		atomic.AddInt64(&m.errorCount, 1)
	}

	if duration > m.slowQueryThreshold {
		atomic.AddInt64(&m.slowQueryCount, 1)
		return true
	}
	return false
}

// Snapshot returns current counters
func (m *Metrics) Snapshot() *MetricsSnapshot {
	queryCount := atomic.LoadInt64(&m.queryCount)
	totalDuration := atomic.LoadInt64(&m.queryDuration)

	snapshot := &MetricsSnapshot{
		QueryCount:     queryCount,
		ErrorCount:     atomic.LoadInt64(&m.errorCount),
		SlowQueryCount: atomic.LoadInt64(&m.slowQueryCount),
		Timestamp:      time.Now(),
	}
	if queryCount > 0 {
		snapshot.AvgQueryDuration = time.Duration(totalDuration / queryCount)
	}
	return snapshot
}
