package migration

import (
	"context"

	"gorm.io/gorm"

	coreport "github.com/amirhossein-jamali/credit-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/credit-ledger/internal/infrastructure/adapter/model"
)

// AddVoucherExpiry adds the nullable expires_at column to vouchers created by schema 1.0.0
type AddVoucherExpiry struct {
	db     *gorm.DB
	logger coreport.Logger
}

// NewAddVoucherExpiry creates a new migration instance
func NewAddVoucherExpiry(db *gorm.DB, logger coreport.Logger) *AddVoucherExpiry {
	return &AddVoucherExpiry{
		db:     db,
		logger: logger,
	}
}

// Run executes the migration. Existing vouchers keep a NULL expiry and never expire.
func (m *AddVoucherExpiry) Run(ctx context.Context) error {
	migrator := m.db.WithContext(ctx).Migrator()

	if !migrator.HasTable(&model.Voucher{}) {
		return nil
	}
	if migrator.HasColumn(&model.Voucher{}, "ExpiresAt") {
		return nil
	}

	m.logger.Info("Adding expires_at column to vouchers table", nil)
	if err := migrator.AddColumn(&model.Voucher{}, "ExpiresAt"); err != nil {
		m.logger.Error("Failed to add expires_at column", map[string]any{"error": err.Error()})
		return err
	}

	return nil
}
