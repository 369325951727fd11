package voucher

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/amirhossein-jamali/credit-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/credit-ledger/internal/domain/error"
	"github.com/amirhossein-jamali/credit-ledger/mocks/port/core"
	"github.com/amirhossein-jamali/credit-ledger/mocks/port/persistence"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const txKey contextKey = "tx"

var fixedNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

type redeemFixture struct {
	uow        *persistence.MockUnitOfWork
	accounts   *persistence.MockAccountRepository
	txAccounts *persistence.MockAccountRepository
	txVouchers *persistence.MockVoucherRepository
	clock      *core.MockTimeProvider
	txCtx      context.Context
}

func newRedeemFixture(t *testing.T) *redeemFixture {
	f := &redeemFixture{
		uow:        persistence.NewMockUnitOfWork(t),
		accounts:   persistence.NewMockAccountRepository(t),
		txAccounts: persistence.NewMockAccountRepository(t),
		txVouchers: persistence.NewMockVoucherRepository(t),
		clock:      core.NewMockTimeProvider(t),
		txCtx:      context.WithValue(context.Background(), txKey, "mockTransaction"),
	}
	f.clock.On("Now").Return(fixedNow).Maybe()
	f.uow.On("Begin", mock.Anything).Return(f.txCtx, nil).Once()
	f.uow.On("GetVoucherRepository", f.txCtx).Return(f.txVouchers).Once()
	f.uow.On("GetAccountRepository", f.txCtx).Return(f.txAccounts).Once()
	return f
}

func (f *redeemFixture) service(t *testing.T) *Service {
	logger := core.NewMockLogger(t).AllowAll()
	return NewService(f.uow, f.accounts, nil, f.clock, logger, nil, Config{})
}

func TestService_Redeem(t *testing.T) {
	ctx := context.Background()
	email := "alice@example.com"
	code := "HYDRA-AB12-CD34-EF56"

	t.Run("Successful redemption credits the account once", func(t *testing.T) {
		// Arrange
		f := newRedeemFixture(t)
		voucher := &entity.Voucher{ID: 10, Code: code, CreditAmount: 10, RemainingUses: 1}
		account := &entity.Account{ID: 1, Email: email, TotalCredits: 3, UsedCredits: 3}

		f.txVouchers.On("GetByCodeForUpdate", f.txCtx, code).Return(voucher, nil).Once()
		f.txAccounts.On("GetByEmailForUpdate", f.txCtx, email).Return(account, nil).Once()
		f.txVouchers.On("DecrementRemainingUses", f.txCtx, int64(10)).Return(nil).Once()
		f.txAccounts.On("AddTotalCredits", f.txCtx, int64(1), int64(10)).Return(nil).Once()
		f.uow.On("Commit", f.txCtx).Return(nil).Once()
		f.accounts.On("GetByID", ctx, int64(1)).
			Return(&entity.Account{ID: 1, TotalCredits: 13, UsedCredits: 3}, nil).Once()

		// Act
		result, err := f.service(t).Redeem(ctx, "  hydra-ab12-cd34-ef56 ", "Alice@Example.com")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, int64(10), result.CreditsAdded)
		assert.Equal(t, entity.CreditSummary{Total: 13, Used: 3, Remaining: 10}, result.Credits)
		f.uow.AssertNotCalled(t, "Rollback", mock.Anything)
	})

	t.Run("Unknown code rolls back", func(t *testing.T) {
		f := newRedeemFixture(t)

		f.txVouchers.On("GetByCodeForUpdate", f.txCtx, code).Return(nil, errs.ErrVoucherNotFound).Once()
		f.uow.On("Rollback", f.txCtx).Return(nil).Once()

		result, err := f.service(t).Redeem(ctx, code, email)

		assert.Nil(t, result)
		assert.ErrorIs(t, err, errs.ErrVoucherNotFound)
		f.uow.AssertNotCalled(t, "Commit", mock.Anything)
	})

	t.Run("Exhausted voucher is rejected without mutation", func(t *testing.T) {
		f := newRedeemFixture(t)
		voucher := &entity.Voucher{ID: 10, Code: code, CreditAmount: 10, RemainingUses: 0}

		f.txVouchers.On("GetByCodeForUpdate", f.txCtx, code).Return(voucher, nil).Once()
		f.uow.On("Rollback", f.txCtx).Return(nil).Once()

		result, err := f.service(t).Redeem(ctx, code, email)

		assert.Nil(t, result)
		assert.ErrorIs(t, err, errs.ErrVoucherExhausted)
		assert.Equal(t, errs.KindBusinessRuleViolation, errs.KindOf(err))
		f.txAccounts.AssertNotCalled(t, "GetByEmailForUpdate", mock.Anything, mock.Anything)
		f.txAccounts.AssertNotCalled(t, "AddTotalCredits", mock.Anything, mock.Anything, mock.Anything)
		f.txVouchers.AssertNotCalled(t, "DecrementRemainingUses", mock.Anything, mock.Anything)
	})

	t.Run("Expired voucher is rejected without mutation", func(t *testing.T) {
		f := newRedeemFixture(t)
		expired := fixedNow.Add(-time.Minute)
		voucher := &entity.Voucher{ID: 10, Code: code, CreditAmount: 10, RemainingUses: 5, ExpiresAt: &expired}

		f.txVouchers.On("GetByCodeForUpdate", f.txCtx, code).Return(voucher, nil).Once()
		f.uow.On("Rollback", f.txCtx).Return(nil).Once()

		result, err := f.service(t).Redeem(ctx, code, email)

		assert.Nil(t, result)
		assert.ErrorIs(t, err, errs.ErrVoucherExpired)
		f.txVouchers.AssertNotCalled(t, "DecrementRemainingUses", mock.Anything, mock.Anything)
	})

	t.Run("Unknown account rolls back after locking the voucher", func(t *testing.T) {
		f := newRedeemFixture(t)
		voucher := &entity.Voucher{ID: 10, Code: code, CreditAmount: 10, RemainingUses: 1}

		f.txVouchers.On("GetByCodeForUpdate", f.txCtx, code).Return(voucher, nil).Once()
		f.txAccounts.On("GetByEmailForUpdate", f.txCtx, email).Return(nil, errs.ErrAccountNotFound).Once()
		f.uow.On("Rollback", f.txCtx).Return(nil).Once()

		_, err := f.service(t).Redeem(ctx, code, email)

		assert.ErrorIs(t, err, errs.ErrAccountNotFound)
		f.txVouchers.AssertNotCalled(t, "DecrementRemainingUses", mock.Anything, mock.Anything)
	})

	t.Run("Failed credit rolls back the decrement", func(t *testing.T) {
		f := newRedeemFixture(t)
		voucher := &entity.Voucher{ID: 10, Code: code, CreditAmount: 10, RemainingUses: 1}
		account := &entity.Account{ID: 1, Email: email}

		f.txVouchers.On("GetByCodeForUpdate", f.txCtx, code).Return(voucher, nil).Once()
		f.txAccounts.On("GetByEmailForUpdate", f.txCtx, email).Return(account, nil).Once()
		f.txVouchers.On("DecrementRemainingUses", f.txCtx, int64(10)).Return(nil).Once()
		f.txAccounts.On("AddTotalCredits", f.txCtx, int64(1), int64(10)).Return(errs.ErrDatabaseConnection).Once()
		f.uow.On("Rollback", f.txCtx).Return(nil).Once()

		_, err := f.service(t).Redeem(ctx, code, email)

		assert.ErrorIs(t, err, errs.ErrDatabaseConnection)
		assert.Equal(t, errs.KindInternalFailure, errs.KindOf(err))
		f.uow.AssertNotCalled(t, "Commit", mock.Anything)
	})
}

func TestService_Redeem_InputValidation(t *testing.T) {
	ctx := context.Background()
	logger := core.NewMockLogger(t).AllowAll()
	uow := persistence.NewMockUnitOfWork(t)
	service := NewService(uow, nil, nil, nil, logger, nil, Config{})

	t.Run("Blank code", func(t *testing.T) {
		_, err := service.Redeem(ctx, "   ", "a@example.com")
		assert.ErrorIs(t, err, errs.ErrInvalidVoucherCode)
	})

	t.Run("Blank email", func(t *testing.T) {
		_, err := service.Redeem(ctx, "HYDRA-AAAA-BBBB-CCCC", "")
		assert.ErrorIs(t, err, errs.ErrAccountNotFound)
	})

	uow.AssertNotCalled(t, "Begin", mock.Anything)
}

func TestService_Redeem_ExactlyOnceUnderConcurrency(t *testing.T) {
	const redeemers = 16
	ctx := context.Background()
	code := "HYDRA-RACE-RACE-RACE"

	ledger := newMemoryLedger()
	ledger.addVoucher(code, 10, 1)
	for i := 0; i < redeemers; i++ {
		ledger.addAccount(fmt.Sprintf("user%d@example.com", i), 3, 3)
	}

	clock := core.NewMockTimeProvider(t)
	clock.On("Now").Return(fixedNow).Maybe()
	logger := core.NewMockLogger(t).AllowAll()
	service := NewService(ledger, ledger.GetAccountRepository(ctx), nil, clock, logger, nil, Config{})

	results := make([]error, redeemers)
	var g errgroup.Group
	for i := 0; i < redeemers; i++ {
		i := i
		g.Go(func() error {
			_, err := service.Redeem(ctx, code, fmt.Sprintf("user%d@example.com", i))
			results[i] = err
			return nil
		})
	}
	require.NoError(t, g.Wait())

	successes, exhausted := 0, 0
	var winner string
	for i, err := range results {
		switch {
		case err == nil:
			successes++
			winner = fmt.Sprintf("user%d@example.com", i)
		case errors.Is(err, errs.ErrVoucherExhausted):
			exhausted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, successes)
	assert.Equal(t, redeemers-1, exhausted)
	assert.Equal(t, int64(0), ledger.voucher(code).RemainingUses)
	assert.Equal(t, int64(13), ledger.account(winner).TotalCredits)
	for i := 0; i < redeemers; i++ {
		email := fmt.Sprintf("user%d@example.com", i)
		if email != winner {
			assert.Equal(t, int64(3), ledger.account(email).TotalCredits)
		}
	}
}

func TestService_Redeem_MultiUseVoucher(t *testing.T) {
	const redeemers = 8
	ctx := context.Background()
	code := "HYDRA-MULT-IUSE-0003"

	ledger := newMemoryLedger()
	ledger.addVoucher(code, 5, 3)
	for i := 0; i < redeemers; i++ {
		ledger.addAccount(fmt.Sprintf("user%d@example.com", i), 0, 0)
	}

	clock := core.NewMockTimeProvider(t)
	clock.On("Now").Return(fixedNow).Maybe()
	service := NewService(ledger, ledger.GetAccountRepository(ctx), nil, clock, core.NewMockLogger(t).AllowAll(), nil, Config{})

	var g errgroup.Group
	var successes, exhausted atomic.Int64
	for i := 0; i < redeemers; i++ {
		i := i
		g.Go(func() error {
			_, err := service.Redeem(ctx, code, fmt.Sprintf("user%d@example.com", i))
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, errs.ErrVoucherExhausted):
				exhausted.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int64(3), successes.Load())
	assert.Equal(t, int64(redeemers-3), exhausted.Load())
	assert.Equal(t, int64(0), ledger.voucher(code).RemainingUses)
}

func TestService_IssueThenRedeemRoundTrip(t *testing.T) {
	ctx := context.Background()
	ledger := newMemoryLedger()
	ledger.addAccount("alice@example.com", 3, 3)

	clock := core.NewMockTimeProvider(t)
	clock.On("Now").Return(fixedNow).Maybe()
	logger := core.NewMockLogger(t).AllowAll()

	issuedRepo := &capturingVoucherRepo{ledger: ledger}
	service := NewService(ledger, ledger.GetAccountRepository(ctx), issuedRepo, clock, logger, nil, Config{})

	voucher, err := service.Issue(ctx, issueRequest(10, 1))
	require.NoError(t, err)

	result, err := service.Redeem(ctx, voucher.Code, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(10), result.CreditsAdded)
	assert.Equal(t, entity.CreditSummary{Total: 13, Used: 3, Remaining: 10}, result.Credits)
	assert.Equal(t, int64(0), ledger.voucher(voucher.Code).RemainingUses)

	_, err = service.Redeem(ctx, voucher.Code, "alice@example.com")
	assert.ErrorIs(t, err, errs.ErrVoucherExhausted)
	assert.Equal(t, int64(13), ledger.account("alice@example.com").TotalCredits)
}
