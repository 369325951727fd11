package database

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	coreport "github.com/amirhossein-jamali/credit-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/credit-ledger/internal/infrastructure/adapter/database/migration"
	timeprovider "github.com/amirhossein-jamali/credit-ledger/internal/infrastructure/adapter/time"
)

// TestDBManager connects tests to a real PostgreSQL database described by CL_TEST_DB_* variables
type TestDBManager struct {
	Manager      *Manager
	Config       *Config
	Logger       coreport.Logger
	TimeProvider coreport.TimeProvider
}

// NewTestDBManager returns a manager for the test database, or skips t when CL_TEST_DB_HOST is unset
func NewTestDBManager(t *testing.T, logger coreport.Logger) *TestDBManager {
	t.Helper()

	host := os.Getenv("CL_TEST_DB_HOST")
	if host == "" {
		t.Skip("CL_TEST_DB_HOST not set; skipping PostgreSQL integration test")
	}

	timeProvider := timeprovider.NewRealTimeProvider()

	config := &Config{
		Host:            host,
		Port:            getEnvIntOrDefault("CL_TEST_DB_PORT", 5432),
		Username:        getEnvOrDefault("CL_TEST_DB_USERNAME", "postgres"),
		Password:        getEnvOrDefault("CL_TEST_DB_PASSWORD", "postgres"),
		Database:        getEnvOrDefault("CL_TEST_DB_DATABASE", "credit_ledger_test"),
		SSLMode:         getEnvOrDefault("CL_TEST_DB_SSL_MODE", "disable"),
		MaxOpenConns:    32,
		MaxIdleConns:    8,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: time.Minute,
		QueryTimeout:    5 * time.Second,
		LogLevel:        "silent",
		RetryAttempts:   1,
		MonitorInterval: time.Minute,
	}

	return &TestDBManager{
		Manager:      NewManager(config, logger, timeProvider),
		Config:       config,
		Logger:       logger,
		TimeProvider: timeProvider,
	}
}

// Connect connects, migrates and truncates the test database. The connection closes on cleanup.
func (m *TestDBManager) Connect(t *testing.T) {
	t.Helper()

	ctx := context.Background()
	if _, err := m.Manager.Connect(ctx); err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	t.Cleanup(func() {
		if err := m.Manager.Close(); err != nil {
			t.Logf("Warning: Failed to close test database connection: %v", err)
		}
	})

	if err := migration.NewMigrationManager(m.Manager.DB(), m.Logger, m.TimeProvider).MigrateAll(ctx); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	m.TruncateAllTables(t)
}

// TruncateAllTables empties the ledger tables and resets their sequences
func (m *TestDBManager) TruncateAllTables(t *testing.T) {
	t.Helper()

	if err := m.Manager.DB().Exec(
		"TRUNCATE TABLE usage_records, vouchers, accounts RESTART IDENTITY CASCADE",
	).Error; err != nil {
		t.Fatalf("Failed to truncate tables: %v", err)
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if result, err := strconv.Atoi(value); err == nil {
			return result
		}
	}
	return defaultValue
}
