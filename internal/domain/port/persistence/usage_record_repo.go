package persistence

import (
	"context"

	"github.com/amirhossein-jamali/credit-ledger/internal/domain/entity"
)

// UsageRecordRepository stores the audit trail of charged calls
type UsageRecordRepository interface {
	// Create appends a usage record and fills in its ID and creation time
	//
	// Possible errors:
	// - ErrAccountNotFound: If the referenced account does not exist
	// - ErrDatabaseConnection: If database connection fails
	Create(ctx context.Context, record *entity.UsageRecord) error
}
