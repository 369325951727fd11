package migration

import (
	"context"

	"gorm.io/gorm"

	coreport "github.com/amirhossein-jamali/credit-ledger/internal/domain/port/core"
)

// AdvancedIndexManager manages PostgreSQL-specific indexes and storage settings
type AdvancedIndexManager struct {
	db     *gorm.DB
	logger coreport.Logger
}

// NewAdvancedIndexManager creates a new advanced index manager
func NewAdvancedIndexManager(db *gorm.DB, logger coreport.Logger) *AdvancedIndexManager {
	return &AdvancedIndexManager{
		db:     db,
		logger: logger,
	}
}

// CreateAdvancedIndexes creates PostgreSQL-only indexes
func (m *AdvancedIndexManager) CreateAdvancedIndexes(ctx context.Context) error {
	m.logger.Info("Creating advanced PostgreSQL indexes", nil)

	indexes := []struct {
		name string
		sql  string
	}{
		{
			// Redeemable vouchers only; exhausted codes are never looked up for update again.
			name: "idx_vouchers_redeemable",
			sql: `CREATE INDEX IF NOT EXISTS idx_vouchers_redeemable
				ON vouchers (code) WHERE remaining_uses > 0`,
		},
		{
			name: "idx_usage_records_created_at_brin",
			sql: `CREATE INDEX IF NOT EXISTS idx_usage_records_created_at_brin
				ON usage_records USING BRIN (created_at)
				WITH (pages_per_range = 32)`,
		},
		{
			name: "idx_vouchers_created_by",
			sql: `CREATE INDEX IF NOT EXISTS idx_vouchers_created_by
				ON vouchers (created_by) WHERE created_by IS NOT NULL`,
		},
	}

	for _, idx := range indexes {
		if err := m.db.WithContext(ctx).Exec(idx.sql).Error; err != nil {
			m.logger.Error("Failed to create index", map[string]any{
				"index": idx.name,
				"error": err.Error(),
			})
			return err
		}
	}

	m.logger.Info("Advanced PostgreSQL indexes created successfully", nil)
	return nil
}

// CreatePerformanceTweaks applies storage settings. Failures are logged, not returned.
func (m *AdvancedIndexManager) CreatePerformanceTweaks(ctx context.Context) {
	m.logger.Info("Applying PostgreSQL performance tweaks", nil)

	// accounts and vouchers rows are updated in place on every charge or redemption
	tweaks := []string{
		`ALTER TABLE accounts SET (fillfactor = 80)`,
		`ALTER TABLE vouchers SET (fillfactor = 90)`,
	}
	for _, stmt := range tweaks {
		if err := m.db.WithContext(ctx).Exec(stmt).Error; err != nil {
			m.logger.Warn("Failed to apply performance tweak", map[string]any{
				"statement": stmt,
				"error":     err.Error(),
			})
		}
	}
}
