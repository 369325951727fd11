package usecase

import (
	"context"

	"github.com/amirhossein-jamali/credit-ledger/internal/domain/entity"
)

// ConsumeResult is returned after a metered call succeeded
type ConsumeResult struct {
	Answer  string
	Credits entity.CreditSummary
	// Recorded is false when the call succeeded but its charge could not be stored
	Recorded bool
}

// UsageUseCase gates the metered completion call behind the credit balance
type UsageUseCase interface {
	Consume(ctx context.Context, email, prompt string) (*ConsumeResult, error)
}
