package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gorm.io/gorm"

	coreport "github.com/amirhossein-jamali/credit-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/credit-ledger/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/credit-ledger/internal/infrastructure/adapter/repository"
)

type contextKey string

const txKey contextKey = "tx"

// ErrNoTransaction is returned by Commit and Rollback when the context carries no transaction
var ErrNoTransaction = errors.New("no transaction found in context")

// UnitOfWork implements the unit of work pattern for database transactions.
// Transactions run at the store's default isolation (READ COMMITTED on PostgreSQL);
// exclusion comes from row locks taken by the *ForUpdate repository methods.
type UnitOfWork struct {
	db     *gorm.DB
	logger coreport.Logger
}

// NewUnitOfWork creates a new UnitOfWork instance
func NewUnitOfWork(db *gorm.DB, logger coreport.Logger) persistence.UnitOfWork {
	return &UnitOfWork{
		db:     db,
		logger: logger,
	}
}

// Begin starts a new database transaction
func (u *UnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	tx := u.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		u.logger.Error("Failed to begin transaction", map[string]any{"error": tx.Error.Error()})
		return ctx, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	return context.WithValue(ctx, txKey, tx), nil
}

// Commit commits the current transaction
func (u *UnitOfWork) Commit(ctx context.Context) error {
	tx, ok := ctx.Value(txKey).(*gorm.DB)
	if !ok || tx == nil {
		return ErrNoTransaction
	}

	if err := tx.Commit().Error; err != nil {
		u.logger.Error("Failed to commit transaction", map[string]any{"error": err.Error()})
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Rollback rolls back the current transaction. Rolling back a finished transaction is not an error.
func (u *UnitOfWork) Rollback(ctx context.Context) error {
	tx, ok := ctx.Value(txKey).(*gorm.DB)
	if !ok || tx == nil {
		return ErrNoTransaction
	}

	err := tx.Rollback().Error
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrTxDone) {
		u.logger.Debug("Rollback skipped, transaction already finished", nil)
		return nil
	}

	u.logger.Error("Failed to rollback transaction", map[string]any{
		"error": err.Error(),
	})
	return fmt.Errorf("failed to rollback transaction: %w", err)
}

// GetAccountRepository returns an account repository in the current transaction
func (u *UnitOfWork) GetAccountRepository(ctx context.Context) persistence.AccountRepository {
	return repository.NewAccountRepository(u.getDbFromContext(ctx), u.logger)
}

// GetVoucherRepository returns a voucher repository in the current transaction
func (u *UnitOfWork) GetVoucherRepository(ctx context.Context) persistence.VoucherRepository {
	return repository.NewVoucherRepository(u.getDbFromContext(ctx), u.logger)
}

// GetUsageRecordRepository returns a usage record repository in the current transaction
func (u *UnitOfWork) GetUsageRecordRepository(ctx context.Context) persistence.UsageRecordRepository {
	return repository.NewUsageRecordRepository(u.getDbFromContext(ctx), u.logger)
}

func (u *UnitOfWork) getDbFromContext(ctx context.Context) *gorm.DB {
	tx, ok := ctx.Value(txKey).(*gorm.DB)
	if ok && tx != nil {
		return tx
	}
	return u.db.WithContext(ctx)
}
