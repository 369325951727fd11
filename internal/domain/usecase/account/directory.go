package account

import (
	"github.com/amirhossein-jamali/credit-ledger/internal/domain/entity"
	coreport "github.com/amirhossein-jamali/credit-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/credit-ledger/internal/domain/port/persistence"
)

// Directory materialises accounts from sign-in profiles and answers lookups
type Directory struct {
	accountRepo     persistence.AccountRepository
	admins          entity.AdminAllowList
	startingCredits int64
	logger          coreport.Logger
}

// Option configures a Directory
type Option func(*Directory)

// WithStartingCredits overrides the grant given to new accounts
func WithStartingCredits(credits int64) Option {
	return func(d *Directory) {
		if credits >= 0 {
			d.startingCredits = credits
		}
	}
}

// NewDirectory creates a new account directory
func NewDirectory(
	accountRepo persistence.AccountRepository,
	admins entity.AdminAllowList,
	logger coreport.Logger,
	opts ...Option,
) *Directory {
	d := &Directory{
		accountRepo:     accountRepo,
		admins:          admins,
		startingCredits: entity.DefaultStartingCredits,
		logger:          logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}
