package entity

import (
	"strings"
	"time"
)

// Voucher is a redeemable code that adds a fixed number of credits to an account
type Voucher struct {
	ID            int64
	Code          string
	CreditAmount  int64
	RemainingUses int64
	CreatedBy     *int64 // Issuing account, nil when the issuer was not resolvable
	CreatedAt     time.Time
	ExpiresAt     *time.Time // nil means the voucher never expires
}

// NormalizeCode trims and upper-cases a submitted voucher code
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsExhausted reports whether the voucher has no uses left
func (v *Voucher) IsExhausted() bool {
	return v.RemainingUses <= 0
}

// IsExpired reports whether the voucher is past its expiry at now
func (v *Voucher) IsExpired(now time.Time) bool {
	if v.ExpiresAt == nil {
		return false
	}
	return !now.Before(*v.ExpiresAt)
}
