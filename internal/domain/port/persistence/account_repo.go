package persistence

import (
	"context"

	"github.com/amirhossein-jamali/credit-ledger/internal/domain/entity"
)

// AccountRepository defines the ledger operations on accounts
type AccountRepository interface {
	// Upsert inserts the account or, when the email already exists, overwrites
	// name, image and admin flag only. Credits of an existing row are never touched.
	// Returns the stored row.
	//
	// Possible errors:
	// - ErrDatabaseConnection: If database connection fails
	Upsert(ctx context.Context, account *entity.Account) (*entity.Account, error)

	// GetByEmail retrieves an account by its normalised email
	//
	// Possible errors:
	// - ErrAccountNotFound: If no account has this email
	// - ErrDatabaseConnection: If database connection fails
	GetByEmail(ctx context.Context, email string) (*entity.Account, error)

	// GetByID retrieves an account by ID
	//
	// Possible errors:
	// - ErrAccountNotFound: If account with specified ID doesn't exist
	// - ErrDatabaseConnection: If database connection fails
	GetByID(ctx context.Context, id int64) (*entity.Account, error)

	// GetByEmailForUpdate retrieves an account and holds its row lock until the
	// surrounding transaction ends. Must be called on a transactional repository.
	//
	// Possible errors:
	// - ErrAccountNotFound: If no account has this email
	// - ErrDatabaseConnection: If database connection fails
	GetByEmailForUpdate(ctx context.Context, email string) (*entity.Account, error)

	// IncrementUsedCredits adds delta to the used counter in a single statement
	//
	// Possible errors:
	// - ErrAccountNotFound: If account with specified ID doesn't exist
	// - ErrDatabaseConnection: If database connection fails
	IncrementUsedCredits(ctx context.Context, id int64, delta int64) error

	// AddTotalCredits adds delta to the total counter in a single statement
	//
	// Possible errors:
	// - ErrAccountNotFound: If account with specified ID doesn't exist
	// - ErrDatabaseConnection: If database connection fails
	AddTotalCredits(ctx context.Context, id int64, delta int64) error
}
