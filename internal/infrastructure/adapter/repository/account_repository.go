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

// AccountRepository implements persistence.AccountRepository using GORM
type AccountRepository struct {
	db      *gorm.DB
	logger  coreport.Logger
	handler dbErrorHandler
}

// NewAccountRepository creates a new AccountRepository instance
func NewAccountRepository(db *gorm.DB, logger coreport.Logger) *AccountRepository {
	return &AccountRepository{
		db:     db,
		logger: logger,
		handler: dbErrorHandler{
			logger:     logger,
			classifier: NewErrorClassifier(),
			notFound:   errs.ErrAccountNotFound,
		},
	}
}

// Upsert inserts the account or refreshes name, image and admin flag of the existing row
func (r *AccountRepository) Upsert(ctx context.Context, account *entity.Account) (*entity.Account, error) {
	r.logger.Debug("Upserting account", map[string]any{
		"email": account.Email,
	})

	row := model.AccountFromEntity(account)
	row.ID = 0

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "image", "is_admin"}),
		}).
		Create(row)
	if result.Error != nil {
		return nil, r.handler.handle("upserting account", result.Error, map[string]any{
			"email": account.Email,
		})
	}

	// Credits of an existing row were not overwritten, so read back what is stored.
	var stored model.Account
	if err := r.db.WithContext(ctx).Where("email = ?", account.Email).First(&stored).Error; err != nil {
		return nil, r.handler.handle("reading upserted account", err, map[string]any{
			"email": account.Email,
		})
	}

	return stored.ToEntity(), nil
}

// GetByEmail retrieves an account by normalised email
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*entity.Account, error) {
	var row model.Account
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&row).Error; err != nil {
		return nil, r.handler.handle("getting account by email", err, map[string]any{
			"email": email,
		})
	}
	return row.ToEntity(), nil
}

// GetByID retrieves an account by ID
func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*entity.Account, error) {
	var row model.Account
	if err := r.db.WithContext(ctx).First(&row, id).Error; err != nil {
		return nil, r.handler.handle("getting account by id", err, map[string]any{
			"account_id": id,
		})
	}
	return row.ToEntity(), nil
}

// GetByEmailForUpdate retrieves an account with SELECT ... FOR UPDATE
func (r *AccountRepository) GetByEmailForUpdate(ctx context.Context, email string) (*entity.Account, error) {
	var row model.Account
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("email = ?", email).
		First(&row).Error
	if err != nil {
		return nil, r.handler.handle("locking account", err, map[string]any{
			"email": email,
		})
	}
	return row.ToEntity(), nil
}

// IncrementUsedCredits adds delta to used_credits in a single statement
func (r *AccountRepository) IncrementUsedCredits(ctx context.Context, id int64, delta int64) error {
	return r.addToColumn(ctx, "used_credits", id, delta)
}

// AddTotalCredits adds delta to total_credits in a single statement
func (r *AccountRepository) AddTotalCredits(ctx context.Context, id int64, delta int64) error {
	return r.addToColumn(ctx, "total_credits", id, delta)
}

func (r *AccountRepository) addToColumn(ctx context.Context, column string, id int64, delta int64) error {
	result := r.db.WithContext(ctx).
		Model(&model.Account{}).
		Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + ?", delta))
	if result.Error != nil {
		return r.handler.handle("updating "+column, result.Error, map[string]any{
			"account_id": id,
			"delta":      delta,
		})
	}
	if result.RowsAffected == 0 {
		r.logger.Warn("Account not found during credit update", map[string]any{
			"account_id": id,
			"column":     column,
		})
		return errs.ErrAccountNotFound
	}

	r.logger.Debug("Account credits updated", map[string]any{
		"account_id": id,
		"column":     column,
		"delta":      delta,
	})
	return nil
}
