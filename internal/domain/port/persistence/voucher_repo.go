package persistence

import (
	"context"

	"github.com/amirhossein-jamali/credit-ledger/internal/domain/entity"
)

// VoucherRepository defines the ledger operations on vouchers
type VoucherRepository interface {
	// Create stores a new voucher and fills in its ID and creation time
	//
	// Possible errors:
	// - ErrDuplicateVoucherCode: If the code is already taken
	// - ErrDatabaseConnection: If database connection fails
	Create(ctx context.Context, voucher *entity.Voucher) error

	// GetByCodeForUpdate retrieves a voucher and holds its row lock until the
	// surrounding transaction ends. Must be called on a transactional repository.
	//
	// Possible errors:
	// - ErrVoucherNotFound: If no voucher has this code
	// - ErrDatabaseConnection: If database connection fails
	GetByCodeForUpdate(ctx context.Context, code string) (*entity.Voucher, error)

	// DecrementRemainingUses lowers the remaining uses by one
	//
	// Possible errors:
	// - ErrVoucherNotFound: If voucher with specified ID doesn't exist
	// - ErrDatabaseConnection: If database connection fails
	DecrementRemainingUses(ctx context.Context, id int64) error

	// ListRecent returns up to limit vouchers, newest first
	//
	// Possible errors:
	// - ErrDatabaseConnection: If database connection fails
	ListRecent(ctx context.Context, limit int) ([]*entity.Voucher, error)
}
