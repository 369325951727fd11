package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/amirhossein-jamali/credit-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/credit-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/credit-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/credit-ledger/internal/infrastructure/adapter/model"
)

// UsageRecordRepository implements persistence.UsageRecordRepository using GORM
type UsageRecordRepository struct {
	db      *gorm.DB
	handler dbErrorHandler
}

// NewUsageRecordRepository creates a new UsageRecordRepository instance
func NewUsageRecordRepository(db *gorm.DB, logger coreport.Logger) *UsageRecordRepository {
	return &UsageRecordRepository{
		db: db,
		handler: dbErrorHandler{
			logger:     logger,
			classifier: NewErrorClassifier(),
			notFound:   errs.ErrAccountNotFound,
		},
	}
}

// Create appends a usage record
func (r *UsageRecordRepository) Create(ctx context.Context, record *entity.UsageRecord) error {
	row := model.UsageRecordFromEntity(record)
	row.ID = 0

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(row).Error; err != nil {
		return r.handler.handle("creating usage record", err, map[string]any{
			"account_id": record.AccountID,
		})
	}

	record.ID = row.ID
	record.CreatedAt = row.CreatedAt
	return nil
}
