package model

import "github.com/amirhossein-jamali/credit-ledger/internal/domain/entity"

// ToEntity converts an account model to its domain entity
func (m *Account) ToEntity() *entity.Account {
	return &entity.Account{
		ID:           m.ID,
		Provider:     m.Provider,
		ProviderID:   m.ProviderID,
		Email:        m.Email,
		Name:         m.Name,
		Image:        m.Image,
		IsAdmin:      m.IsAdmin,
		TotalCredits: m.TotalCredits,
		UsedCredits:  m.UsedCredits,
		CreatedAt:    m.CreatedAt,
	}
}

// AccountFromEntity converts a domain account to its model
func AccountFromEntity(a *entity.Account) *Account {
	return &Account{
		ID:           a.ID,
		Provider:     a.Provider,
		ProviderID:   a.ProviderID,
		Email:        a.Email,
		Name:         a.Name,
		Image:        a.Image,
		IsAdmin:      a.IsAdmin,
		TotalCredits: a.TotalCredits,
		UsedCredits:  a.UsedCredits,
		CreatedAt:    a.CreatedAt,
	}
}

// ToEntity converts a voucher model to its domain entity
func (m *Voucher) ToEntity() *entity.Voucher {
	return &entity.Voucher{
		ID:            m.ID,
		Code:          m.Code,
		CreditAmount:  m.CreditAmount,
		RemainingUses: m.RemainingUses,
		CreatedBy:     m.CreatedBy,
		CreatedAt:     m.CreatedAt,
		ExpiresAt:     m.ExpiresAt,
	}
}

// VoucherFromEntity converts a domain voucher to its model
func VoucherFromEntity(v *entity.Voucher) *Voucher {
	return &Voucher{
		ID:            v.ID,
		Code:          v.Code,
		CreditAmount:  v.CreditAmount,
		RemainingUses: v.RemainingUses,
		CreatedBy:     v.CreatedBy,
		CreatedAt:     v.CreatedAt,
		ExpiresAt:     v.ExpiresAt,
	}
}

// UsageRecordFromEntity converts a domain usage record to its model
func UsageRecordFromEntity(r *entity.UsageRecord) *UsageRecord {
	return &UsageRecord{
		ID:              r.ID,
		AccountID:       r.AccountID,
		Prompt:          r.Prompt,
		ResponsePreview: r.ResponsePreview,
		CreatedAt:       r.CreatedAt,
	}
}
