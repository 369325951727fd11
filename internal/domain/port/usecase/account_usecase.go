package usecase

import (
	"context"

	"github.com/amirhossein-jamali/credit-ledger/internal/domain/entity"
)

// AccountUseCase defines the account directory operations
type AccountUseCase interface {
	// UpsertFromProfile materialises or refreshes the account behind a sign-in
	UpsertFromProfile(ctx context.Context, profile entity.Profile) (*entity.Account, error)

	// LookupByEmail returns the account for email, case-insensitively.
	// An empty email is reported as not found without querying the store.
	LookupByEmail(ctx context.Context, email string) (*entity.Account, error)

	// GetCredits returns a fresh balance view for email
	GetCredits(ctx context.Context, email string) (*entity.CreditSummary, error)
}
