package voucher

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirhossein-jamali/credit-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/credit-ledger/internal/domain/error"
	"github.com/amirhossein-jamali/credit-ledger/internal/domain/port/usecase"
)

// Issue creates a voucher with a fresh code, regenerating the code on collision
func (s *Service) Issue(ctx context.Context, req usecase.IssueVoucherRequest) (*entity.Voucher, error) {
	if req.CreditAmount <= 0 {
		return nil, errs.ErrInvalidCreditAmount
	}
	if req.MaxUses <= 0 {
		return nil, errs.ErrInvalidMaxUses
	}

	voucher := &entity.Voucher{
		CreditAmount:  req.CreditAmount,
		RemainingUses: req.MaxUses,
		CreatedBy:     s.resolveIssuer(ctx, req.IssuerEmail),
		ExpiresAt:     req.ExpiresAt,
	}

	for attempt := 1; attempt <= s.attempts; attempt++ {
		code, err := s.codes.Generate()
		if err != nil {
			return nil, err
		}
		voucher.Code = code

		err = s.voucherRepo.Create(ctx, voucher)
		if err == nil {
			if s.metrics != nil {
				s.metrics.ObserveVoucherIssued(voucher.CreditAmount, voucher.RemainingUses)
			}
			s.logger.Info("Voucher issued", map[string]any{
				"code":         voucher.Code,
				"creditAmount": voucher.CreditAmount,
				"maxUses":      voucher.RemainingUses,
				"issuer":       req.IssuerEmail,
			})
			return voucher, nil
		}

		if !errors.Is(err, errs.ErrDuplicateVoucherCode) {
			s.logger.Error("Failed to store voucher", map[string]any{
				"error": err.Error(),
			})
			return nil, fmt.Errorf("store voucher: %w", err)
		}

		s.logger.Warn("Voucher code collision, regenerating", map[string]any{
			"attempt": attempt,
		})
	}

	return nil, fmt.Errorf("issue voucher after %d attempts: %w", s.attempts, errs.ErrDuplicateVoucherCode)
}

// resolveIssuer returns the issuer's account id, or nil when it cannot be resolved
func (s *Service) resolveIssuer(ctx context.Context, email string) *int64 {
	email = entity.NormalizeEmail(email)
	if email == "" {
		return nil
	}
	account, err := s.accountRepo.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, errs.ErrAccountNotFound) {
			s.logger.Warn("Failed to resolve voucher issuer", map[string]any{
				"email": email,
				"error": err.Error(),
			})
		}
		return nil
	}
	id := account.ID
	return &id
}

// ListRecent returns the newest vouchers first. A non-positive or oversized limit becomes MaxListLimit.
func (s *Service) ListRecent(ctx context.Context, limit int) ([]*entity.Voucher, error) {
	if limit <= 0 || limit > MaxListLimit {
		limit = MaxListLimit
	}
	vouchers, err := s.voucherRepo.ListRecent(ctx, limit)
	if err != nil {
		s.logger.Error("Failed to list vouchers", map[string]any{
			"error": err.Error(),
		})
		return nil, err
	}
	return vouchers, nil
}
