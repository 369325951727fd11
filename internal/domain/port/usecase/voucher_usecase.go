package usecase

import (
	"context"
	"time"

	"github.com/amirhossein-jamali/credit-ledger/internal/domain/entity"
)

// RedeemResult is returned after a voucher was applied
type RedeemResult struct {
	CreditsAdded int64
	Credits      entity.CreditSummary
}

// IssueVoucherRequest describes a new voucher
type IssueVoucherRequest struct {
	CreditAmount int64
	MaxUses      int64
	IssuerEmail  string
	ExpiresAt    *time.Time
}

// VoucherUseCase defines voucher redemption and issuance
type VoucherUseCase interface {
	// Redeem applies the voucher identified by code to the account of email, exactly once per use
	Redeem(ctx context.Context, code, email string) (*RedeemResult, error)

	// Issue creates a voucher with a freshly generated code. Callers enforce admin rights.
	Issue(ctx context.Context, req IssueVoucherRequest) (*entity.Voucher, error)

	// ListRecent returns the newest vouchers, at most limit and never more than the listing cap
	ListRecent(ctx context.Context, limit int) ([]*entity.Voucher, error)
}
