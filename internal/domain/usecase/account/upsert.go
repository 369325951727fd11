package account

import (
	"context"
	"fmt"

	"github.com/amirhossein-jamali/credit-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/credit-ledger/internal/domain/error"
)

// UpsertFromProfile creates the account on first sign-in or refreshes its
// profile fields and admin flag on later ones. Credits are never modified here.
func (d *Directory) UpsertFromProfile(ctx context.Context, profile entity.Profile) (*entity.Account, error) {
	email := profile.NormalizedEmail()
	if email == "" {
		return nil, errs.ErrInvalidProfile
	}

	candidate := &entity.Account{
		Provider:     profile.ProviderName(),
		ProviderID:   profile.SubjectID(),
		Email:        email,
		Name:         profile.Name,
		Image:        profile.Image,
		IsAdmin:      d.admins.Contains(email),
		TotalCredits: d.startingCredits,
		UsedCredits:  0,
	}

	stored, err := d.accountRepo.Upsert(ctx, candidate)
	if err != nil {
		d.logger.Error("Failed to upsert account from profile", map[string]any{
			"email":    email,
			"provider": candidate.Provider,
			"error":    err.Error(),
		})
		return nil, fmt.Errorf("upsert account: %w", err)
	}

	d.logger.Info("Account signed in", map[string]any{
		"accountId": stored.ID,
		"email":     stored.Email,
		"isAdmin":   stored.IsAdmin,
	})

	return stored, nil
}
