package dto

import (
	"time"

	"github.com/amirhossein-jamali/credit-ledger/internal/domain/entity"
)

// ChatRequest represents a metered completion request
type ChatRequest struct {
	Prompt string `json:"prompt"`
}

// ChatResponse carries the answer and the balance after the charge
type ChatResponse struct {
	Answer  string               `json:"answer"`
	Credits entity.CreditSummary `json:"credits"`
}

// RedeemRequest represents a voucher redemption
type RedeemRequest struct {
	Code string `json:"code"`
}

// RedeemResponse reports the credits added and the new balance
type RedeemResponse struct {
	Added   int64                `json:"added"`
	Credits entity.CreditSummary `json:"credits"`
}

// IssueVoucherRequest represents an admin request for a new voucher
type IssueVoucherRequest struct {
	CreditAmount int64      `json:"creditAmount"`
	MaxUses      int64      `json:"maxUses"`
	ExpiresAt    *time.Time `json:"expiresAt,omitempty"`
}

// VoucherResponse is one row of the admin voucher listing
type VoucherResponse struct {
	ID            int64      `json:"id"`
	Code          string     `json:"code"`
	CreditAmount  int64      `json:"creditAmount"`
	RemainingUses int64      `json:"remainingUses"`
	CreatedBy     *int64     `json:"createdBy,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
}

// NewVoucherResponse converts a voucher for the listing
func NewVoucherResponse(v *entity.Voucher) VoucherResponse {
	return VoucherResponse{
		ID:            v.ID,
		Code:          v.Code,
		CreditAmount:  v.CreditAmount,
		RemainingUses: v.RemainingUses,
		CreatedBy:     v.CreatedBy,
		CreatedAt:     v.CreatedAt,
		ExpiresAt:     v.ExpiresAt,
	}
}

// VoucherListResponse wraps the admin voucher listing
type VoucherListResponse struct {
	Keys []VoucherResponse `json:"keys"`
}

// IssueVoucherResponse returns the created voucher
type IssueVoucherResponse struct {
	Key VoucherResponse `json:"key"`
}
