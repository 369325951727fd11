package migration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	coreport "github.com/amirhossein-jamali/credit-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/credit-ledger/internal/infrastructure/adapter/model"
)

const (
	// CurrentSchemaVersion represents the current database schema version
	CurrentSchemaVersion = "1.1.0"
)

// MigrationManager manages database migrations
type MigrationManager struct {
	db               *gorm.DB
	logger           coreport.Logger
	timeProvider     coreport.TimeProvider
	advancedIndexMgr *AdvancedIndexManager
}

// NewMigrationManager creates a new migration manager
func NewMigrationManager(db *gorm.DB, logger coreport.Logger, timeProvider coreport.TimeProvider) *MigrationManager {
	return &MigrationManager{
		db:               db,
		logger:           logger,
		timeProvider:     timeProvider,
		advancedIndexMgr: NewAdvancedIndexManager(db, logger),
	}
}

// MigrateAll brings the schema to CurrentSchemaVersion. It is a no-op when already there.
func (m *MigrationManager) MigrateAll(ctx context.Context) error {
	m.logger.Info("Starting database migrations", map[string]any{
		"target_version": CurrentSchemaVersion,
	})

	db := m.db.WithContext(ctx)

	if err := db.AutoMigrate(&model.MigrationVersion{}); err != nil {
		return m.fail("create migration version table", err)
	}

	currentVersion, err := m.GetCurrentVersion(ctx)
	if err != nil {
		return m.fail("check current schema version", err)
	}

	if currentVersion == CurrentSchemaVersion {
		m.logger.Info("Database already at target version, skipping migration", map[string]any{
			"version": currentVersion,
		})
		return nil
	}

	m.logger.Info("Current database version", map[string]any{
		"version": currentVersion,
	})

	if err := m.runVersionedMigrations(ctx, currentVersion); err != nil {
		return m.fail("run versioned migrations", err)
	}

	if err := m.autoMigrateModels(ctx); err != nil {
		return m.fail("auto-migrate models", err)
	}

	if err := m.createIndexes(ctx); err != nil {
		return m.fail("create indexes", err)
	}

	if m.isPostgres() {
		if err := m.advancedIndexMgr.CreateAdvancedIndexes(ctx); err != nil {
			return m.fail("create advanced indexes", err)
		}
		m.advancedIndexMgr.CreatePerformanceTweaks(ctx)
	}

	if err := m.setVersion(ctx, CurrentSchemaVersion, "Ledger schema migration"); err != nil {
		return m.fail("update schema version", err)
	}

	m.logger.Info("Database migrations completed successfully", map[string]any{
		"version": CurrentSchemaVersion,
	})
	return nil
}

func (m *MigrationManager) fail(step string, err error) error {
	m.logger.Error("Migration step failed", map[string]any{
		"step":           step,
		"error":          err.Error(),
		"target_version": CurrentSchemaVersion,
	})
	return fmt.Errorf("%s: %w", step, err)
}

// GetCurrentVersion returns the last applied schema version, or "" for a fresh database
func (m *MigrationManager) GetCurrentVersion(ctx context.Context) (string, error) {
	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	var version model.MigrationVersion
	result := m.db.WithContext(ctx).Order("applied_at desc").Order("id desc").First(&version)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", result.Error
	}

	return version.Version, nil
}

func (m *MigrationManager) setVersion(ctx context.Context, version string, details string) error {
	appliedAt := time.Now().UTC()
	if m.timeProvider != nil {
		appliedAt = m.timeProvider.Now()
	}

	return m.db.WithContext(ctx).Create(&model.MigrationVersion{
		Version:   version,
		AppliedAt: appliedAt,
		Details:   details,
	}).Error
}

func (m *MigrationManager) autoMigrateModels(ctx context.Context) error {
	m.logger.Info("Auto-migrating database models", nil)

	return m.db.WithContext(ctx).AutoMigrate(
		&model.Account{},
		&model.Voucher{},
		&model.UsageRecord{},
	)
}

// runVersionedMigrations applies data-preserving steps that AutoMigrate cannot express
func (m *MigrationManager) runVersionedMigrations(ctx context.Context, currentVersion string) error {
	m.logger.Info("Running versioned migrations", map[string]any{
		"from": currentVersion,
		"to":   CurrentSchemaVersion,
	})

	switch currentVersion {
	case "":
		return nil
	case "1.0.0":
		return NewAddVoucherExpiry(m.db, m.logger).Run(ctx)
	default:
		return fmt.Errorf("unknown schema version %q", currentVersion)
	}
}

func (m *MigrationManager) createIndexes(ctx context.Context) error {
	m.logger.Info("Creating database indexes", nil)

	statements := []string{
		"CREATE INDEX IF NOT EXISTS idx_vouchers_created_at ON vouchers (created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_usage_records_account_created ON usage_records (account_id, created_at)",
	}
	for _, stmt := range statements {
		if err := m.db.WithContext(ctx).Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

func (m *MigrationManager) isPostgres() bool {
	return m.db.Dialector != nil && m.db.Dialector.Name() == "postgres"
}
