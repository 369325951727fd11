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

// VoucherRepository implements persistence.VoucherRepository using GORM
type VoucherRepository struct {
	db      *gorm.DB
	logger  coreport.Logger
	handler dbErrorHandler
}

// NewVoucherRepository creates a new VoucherRepository instance
func NewVoucherRepository(db *gorm.DB, logger coreport.Logger) *VoucherRepository {
	return &VoucherRepository{
		db:     db,
		logger: logger,
		handler: dbErrorHandler{
			logger:     logger,
			classifier: NewErrorClassifier(),
			notFound:   errs.ErrVoucherNotFound,
			duplicate:  errs.ErrDuplicateVoucherCode,
		},
	}
}

// Create stores a new voucher
func (r *VoucherRepository) Create(ctx context.Context, voucher *entity.Voucher) error {
	row := model.VoucherFromEntity(voucher)
	row.ID = 0

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(row).Error; err != nil {
		return r.handler.handle("creating voucher", err, map[string]any{
			"code": voucher.Code,
		})
	}

	voucher.ID = row.ID
	voucher.CreatedAt = row.CreatedAt

	r.logger.Debug("Voucher created", map[string]any{
		"voucher_id": row.ID,
		"code":       row.Code,
	})
	return nil
}

// GetByCodeForUpdate retrieves a voucher with SELECT ... FOR UPDATE
func (r *VoucherRepository) GetByCodeForUpdate(ctx context.Context, code string) (*entity.Voucher, error) {
	var row model.Voucher
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("code = ?", code).
		First(&row).Error
	if err != nil {
		return nil, r.handler.handle("locking voucher", err, map[string]any{
			"code": code,
		})
	}
	return row.ToEntity(), nil
}

// DecrementRemainingUses lowers remaining_uses by one; it never goes below zero
func (r *VoucherRepository) DecrementRemainingUses(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).
		Model(&model.Voucher{}).
		Where("id = ? AND remaining_uses > 0", id).
		UpdateColumn("remaining_uses", gorm.Expr("remaining_uses - 1"))
	if result.Error != nil {
		return r.handler.handle("decrementing voucher uses", result.Error, map[string]any{
			"voucher_id": id,
		})
	}
	if result.RowsAffected == 0 {
		r.logger.Warn("Voucher had no remaining uses to decrement", map[string]any{
			"voucher_id": id,
		})
		return errs.ErrVoucherExhausted
	}
	return nil
}

// ListRecent returns up to limit vouchers, newest first
func (r *VoucherRepository) ListRecent(ctx context.Context, limit int) ([]*entity.Voucher, error) {
	var rows []model.Voucher
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, r.handler.handle("listing vouchers", err, map[string]any{
			"limit": limit,
		})
	}

	vouchers := make([]*entity.Voucher, 0, len(rows))
	for i := range rows {
		vouchers = append(vouchers, rows[i].ToEntity())
	}
	return vouchers, nil
}
