package voucher

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirhossein-jamali/credit-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/credit-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/credit-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/credit-ledger/internal/domain/port/usecase"
)

// Redeem applies one use of the voucher to the account of email.
// The voucher row is locked before the account row; concurrent redeemers of the
// same voucher are serialised by that lock and see the decremented count.
func (s *Service) Redeem(ctx context.Context, code, email string) (*usecase.RedeemResult, error) {
	code = entity.NormalizeCode(code)
	if code == "" {
		s.observeRedeem(coreport.OutcomeInvalid)
		return nil, errs.ErrInvalidVoucherCode
	}
	email = entity.NormalizeEmail(email)
	if email == "" {
		s.observeRedeem(coreport.OutcomeNotFound)
		return nil, errs.ErrAccountNotFound
	}

	account, added, err := s.redeemInTransaction(ctx, code, email)
	if err != nil {
		s.observeRedeem(redeemOutcome(err))
		if errs.KindOf(err) == errs.KindInternalFailure {
			s.logger.Error("Voucher redemption failed", map[string]any{
				"code":  code,
				"email": email,
				"error": err.Error(),
			})
		} else {
			s.logger.Info("Voucher redemption rejected", map[string]any{
				"code":   code,
				"email":  email,
				"reason": errs.Reason(err),
			})
		}
		return nil, err
	}

	s.observeRedeem(coreport.OutcomeSuccess)
	if s.metrics != nil {
		s.metrics.ObserveCreditsGranted(added)
	}

	s.logger.Info("Voucher redeemed", map[string]any{
		"code":      code,
		"accountId": account.ID,
		"added":     added,
	})

	return &usecase.RedeemResult{
		CreditsAdded: added,
		Credits:      s.balanceAfter(ctx, account, added),
	}, nil
}

func (s *Service) redeemInTransaction(ctx context.Context, code, email string) (account *entity.Account, added int64, err error) {
	txCtx, err := s.uow.Begin(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("begin redemption: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := s.uow.Rollback(txCtx); rbErr != nil {
			s.logger.Warn("Rollback of voucher redemption failed", map[string]any{
				"code":  code,
				"error": rbErr.Error(),
			})
		}
	}()

	vouchers := s.uow.GetVoucherRepository(txCtx)
	accounts := s.uow.GetAccountRepository(txCtx)

	voucher, err := vouchers.GetByCodeForUpdate(txCtx, code)
	if err != nil {
		return nil, 0, err
	}

	if voucher.IsExhausted() {
		return nil, 0, errs.NewVoucherError(code, email, "no remaining uses", errs.ErrVoucherExhausted)
	}

	if voucher.IsExpired(s.timeProvider.Now()) {
		return nil, 0, errs.NewVoucherError(code, email, "expired", errs.ErrVoucherExpired)
	}

	account, err = accounts.GetByEmailForUpdate(txCtx, email)
	if err != nil {
		return nil, 0, err
	}

	if err := vouchers.DecrementRemainingUses(txCtx, voucher.ID); err != nil {
		return nil, 0, fmt.Errorf("decrement voucher uses: %w", err)
	}

	if err := accounts.AddTotalCredits(txCtx, account.ID, voucher.CreditAmount); err != nil {
		return nil, 0, fmt.Errorf("credit account: %w", err)
	}

	if err := s.uow.Commit(txCtx); err != nil {
		return nil, 0, fmt.Errorf("commit redemption: %w", err)
	}
	committed = true

	return account, voucher.CreditAmount, nil
}

// balanceAfter re-reads the account after commit, falling back to the locked snapshot plus the grant
func (s *Service) balanceAfter(ctx context.Context, snapshot *entity.Account, added int64) entity.CreditSummary {
	fresh, err := s.accountRepo.GetByID(ctx, snapshot.ID)
	if err == nil {
		return fresh.Credits()
	}

	s.logger.Warn("Failed to re-read balance after redemption", map[string]any{
		"accountId": snapshot.ID,
		"error":     err.Error(),
	})

	derived := *snapshot
	derived.TotalCredits += added
	return derived.Credits()
}

func (s *Service) observeRedeem(outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveRedeem(outcome)
	}
}

func redeemOutcome(err error) string {
	switch {
	case errors.Is(err, errs.ErrVoucherExhausted), errors.Is(err, errs.ErrVoucherExpired):
		return coreport.OutcomeDenied
	case errs.IsNotFoundError(err):
		return coreport.OutcomeNotFound
	case errs.IsBusinessRuleViolation(err):
		return coreport.OutcomeInvalid
	default:
		return coreport.OutcomeError
	}
}
