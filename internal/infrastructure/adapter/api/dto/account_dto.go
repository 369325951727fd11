package dto

import (
	"time"

	"github.com/amirhossein-jamali/credit-ledger/internal/domain/entity"
)

// SessionRequest carries the identity profile delivered by the sign-in provider
type SessionRequest struct {
	Provider string `json:"provider"`
	ID       string `json:"id"`
	Sub      string `json:"sub"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Image    string `json:"image"`
}

// Profile converts the request into the domain profile
func (r SessionRequest) Profile() entity.Profile {
	return entity.Profile{
		Provider: r.Provider,
		ID:       r.ID,
		Subject:  r.Sub,
		Email:    r.Email,
		Name:     r.Name,
		Image:    r.Image,
	}
}

// AccountResponse is the session view of an account
type AccountResponse struct {
	ID      int64                `json:"id"`
	Email   string               `json:"email"`
	Name    string               `json:"name"`
	Image   string               `json:"image"`
	IsAdmin bool                 `json:"isAdmin"`
	Credits entity.CreditSummary `json:"credits"`
}

// NewAccountResponse builds the session view of account
func NewAccountResponse(account *entity.Account) AccountResponse {
	return AccountResponse{
		ID:      account.ID,
		Email:   account.Email,
		Name:    account.Name,
		Image:   account.Image,
		IsAdmin: account.IsAdmin,
		Credits: account.Credits(),
	}
}

// SessionResponse is returned after a successful sign-in
type SessionResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expiresAt"`
	Account   AccountResponse `json:"account"`
}
