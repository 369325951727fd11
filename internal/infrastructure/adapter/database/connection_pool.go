package database

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	coreport "github.com/amirhossein-jamali/credit-ledger/internal/domain/port/core"
)

// PoolStatsObserver receives every pool snapshot the monitor collects
type PoolStatsObserver interface {
	ObservePoolStats(stats sql.DBStats)
}

// ConnectionPoolMonitor samples the database connection pool on an interval
type ConnectionPoolMonitor struct {
	db        *Manager
	logger    coreport.Logger
	observers []PoolStatsObserver
	last      sql.DBStats
	mutex     sync.RWMutex
	stopChan  chan struct{}
	stopOnce  sync.Once
}

// NewConnectionPoolMonitor creates a new connection pool monitor
func NewConnectionPoolMonitor(db *Manager, logger coreport.Logger, observers ...PoolStatsObserver) *ConnectionPoolMonitor {
	return &ConnectionPoolMonitor{
		db:        db,
		logger:    logger,
		observers: observers,
		stopChan:  make(chan struct{}),
	}
}

// Start collects once and then keeps collecting until Stop is called
func (m *ConnectionPoolMonitor) Start(interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("monitor interval must be positive, got: %s", interval)
	}

	if err := m.collect(); err != nil {
		return err
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := m.collect(); err != nil {
					m.logger.Error("Failed to collect connection pool metrics", map[string]any{
						"error": err.Error(),
					})
				}
			case <-m.stopChan:
				return
			}
		}
	}()

	return nil
}

// Stop stops the monitoring. Safe to call more than once.
func (m *ConnectionPoolMonitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopChan) })
}

// Stats returns the last collected pool snapshot
func (m *ConnectionPoolMonitor) Stats() sql.DBStats {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.last
}

func (m *ConnectionPoolMonitor) collect() error {
	sqlDB, err := m.db.DB().DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}

	stats := sqlDB.Stats()

	m.mutex.Lock()
	m.last = stats
	m.mutex.Unlock()

	for _, o := range m.observers {
		o.ObservePoolStats(stats)
	}

	threshold := float64(stats.MaxOpenConnections) * 0.8
	if stats.MaxOpenConnections > 0 && float64(stats.InUse) > threshold {
		m.logger.Warn("Database connection pool nearly exhausted", map[string]any{
			"in_use":     stats.InUse,
			"max_open":   stats.MaxOpenConnections,
			"idle":       stats.Idle,
			"wait_count": stats.WaitCount,
			"wait_time":  stats.WaitDuration.String(),
		})
	}

	return nil
}
