package entity

import (
	"strings"
	"time"
)

// DefaultStartingCredits is the balance granted to an account on first sign-in
const DefaultStartingCredits int64 = 3

// DefaultProvider is recorded when a profile does not name its identity provider
const DefaultProvider = "google"

// Account represents a signed-in identity and its credit balance
type Account struct {
	ID           int64     // Store-assigned identifier
	Provider     string    // Identity provider name
	ProviderID   string    // Subject identifier issued by the provider
	Email        string    // Lower-cased, unique merge key
	Name         string    // Display name from the latest sign-in
	Image        string    // Avatar URL from the latest sign-in
	IsAdmin      bool      // Recomputed from the admin allow-list on every sign-in
	TotalCredits int64     // Credits ever granted (starting grant plus redemptions)
	UsedCredits  int64     // Credits consumed by metered calls
	CreatedAt    time.Time // When the account was first materialised
}

// Remaining returns the spendable balance, never negative
func (a *Account) Remaining() int64 {
	if a == nil {
		return 0
	}
	remaining := a.TotalCredits - a.UsedCredits
	if remaining < 0 {
		return 0
	}
	return remaining
}

// CanConsume reports whether at least one credit is left
func (a *Account) CanConsume() bool {
	return a.Remaining() > 0
}

// Credits returns the balance triple reported to clients
func (a *Account) Credits() CreditSummary {
	if a == nil {
		return CreditSummary{}
	}
	return CreditSummary{
		Total:     a.TotalCredits,
		Used:      a.UsedCredits,
		Remaining: a.Remaining(),
	}
}

// RemainingCredits returns max(0, total-used) for account, or 0 when account is nil
func RemainingCredits(account *Account) int64 {
	return account.Remaining()
}

// NormalizeEmail trims and lower-cases an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
