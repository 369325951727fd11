package account

import (
	"context"
	"errors"

	"github.com/amirhossein-jamali/credit-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/credit-ledger/internal/domain/error"
)

// LookupByEmail returns the account for email. The store is not consulted for an empty email.
func (d *Directory) LookupByEmail(ctx context.Context, email string) (*entity.Account, error) {
	normalized := entity.NormalizeEmail(email)
	if normalized == "" {
		return nil, errs.ErrAccountNotFound
	}

	account, err := d.accountRepo.GetByEmail(ctx, normalized)
	if err != nil {
		if !errors.Is(err, errs.ErrAccountNotFound) {
			d.logger.Error("Failed to look up account", map[string]any{
				"email": normalized,
				"error": err.Error(),
			})
		}
		return nil, err
	}
	return account, nil
}

// GetCredits returns a fresh balance view for email
func (d *Directory) GetCredits(ctx context.Context, email string) (*entity.CreditSummary, error) {
	account, err := d.LookupByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	credits := account.Credits()
	return &credits, nil
}
