package usage

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/amirhossein-jamali/credit-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/credit-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/credit-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/credit-ledger/internal/domain/port/upstream"
	"github.com/amirhossein-jamali/credit-ledger/mocks/port/core"
	"github.com/amirhossein-jamali/credit-ledger/mocks/port/persistence"
	upstreammocks "github.com/amirhossein-jamali/credit-ledger/mocks/port/upstream"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const txKey contextKey = "tx"

type recordingMetrics struct {
	mu             sync.Mutex
	consume        map[string]int
	recordFailures int
	upstream       map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{consume: map[string]int{}, upstream: map[string]int{}}
}

func (m *recordingMetrics) ObserveConsume(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.consume[outcome]++
}

func (m *recordingMetrics) ObserveUsageRecordFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordFailures++
}

func (m *recordingMetrics) ObserveUpstream(outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upstream[outcome]++
}

func (m *recordingMetrics) ObserveRedeem(string)              {}
func (m *recordingMetrics) ObserveCreditsGranted(int64)       {}
func (m *recordingMetrics) ObserveVoucherIssued(int64, int64) {}

type gateFixture struct {
	accounts   *persistence.MockAccountRepository
	txAccounts *persistence.MockAccountRepository
	usage      *persistence.MockUsageRecordRepository
	uow        *persistence.MockUnitOfWork
	completion *upstreammocks.MockCompletionClient
	clock      *core.MockTimeProvider
	logger     *core.MockLogger
	metrics    *recordingMetrics
	txCtx      context.Context
}

func newGateFixture(t *testing.T) *gateFixture {
	f := &gateFixture{
		accounts:   persistence.NewMockAccountRepository(t),
		txAccounts: persistence.NewMockAccountRepository(t),
		usage:      persistence.NewMockUsageRecordRepository(t),
		uow:        persistence.NewMockUnitOfWork(t),
		completion: upstreammocks.NewMockCompletionClient(t),
		clock:      core.NewMockTimeProvider(t),
		logger:     core.NewMockLogger(t).AllowAll(),
		metrics:    newRecordingMetrics(),
		txCtx:      context.WithValue(context.Background(), txKey, "mockTransaction"),
	}
	f.clock.On("Now").Return(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)).Maybe()
	f.clock.On("Since", mock.Anything).Return(150 * time.Millisecond).Maybe()
	return f
}

func (f *gateFixture) gate() *Gate {
	return NewGate(f.accounts, f.uow, f.completion, f.clock, f.logger, f.metrics, DefaultConfig())
}

func (f *gateFixture) expectTransaction() {
	f.uow.On("Begin", mock.Anything).Return(f.txCtx, nil).Once()
	f.uow.On("GetAccountRepository", f.txCtx).Return(f.txAccounts).Maybe()
	f.uow.On("GetUsageRecordRepository", f.txCtx).Return(f.usage).Maybe()
}

func TestGate_Consume(t *testing.T) {
	ctx := context.Background()
	email := "alice@example.com"

	t.Run("Successful call charges one credit and records usage", func(t *testing.T) {
		// Arrange
		f := newGateFixture(t)
		account := &entity.Account{ID: 1, Email: email, TotalCredits: 3, UsedCredits: 1}

		f.accounts.On("GetByEmail", ctx, email).Return(account, nil).Once()
		f.completion.On("Complete", ctx, mock.MatchedBy(func(req upstream.CompletionRequest) bool {
			return len(req.Messages) == 2 &&
				req.Messages[0].Role == upstream.RoleSystem &&
				req.Messages[1].Role == upstream.RoleUser &&
				req.Messages[1].Content == "hello" &&
				req.Temperature == 0.1 && req.TopP == 0.1
		})).Return(&upstream.CompletionResponse{Content: "hi there"}, nil).Once()
		f.expectTransaction()
		f.txAccounts.On("IncrementUsedCredits", f.txCtx, int64(1), int64(1)).Return(nil).Once()
		f.usage.On("Create", f.txCtx, mock.MatchedBy(func(r *entity.UsageRecord) bool {
			return r.AccountID == 1 && r.Prompt == "hello" && r.ResponsePreview == "hi there"
		})).Return(nil).Once()
		f.uow.On("Commit", f.txCtx).Return(nil).Once()
		f.accounts.On("GetByID", ctx, int64(1)).
			Return(&entity.Account{ID: 1, TotalCredits: 3, UsedCredits: 2}, nil).Once()

		// Act
		result, err := f.gate().Consume(ctx, email, "hello")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "hi there", result.Answer)
		assert.True(t, result.Recorded)
		assert.Equal(t, entity.CreditSummary{Total: 3, Used: 2, Remaining: 1}, result.Credits)
		assert.Equal(t, 1, f.metrics.consume[coreport.OutcomeSuccess])
		assert.Equal(t, 1, f.metrics.upstream[coreport.OutcomeSuccess])
		f.uow.AssertNotCalled(t, "Rollback", mock.Anything)
	})

	t.Run("Exhausted account is denied without mutation or upstream call", func(t *testing.T) {
		f := newGateFixture(t)
		account := &entity.Account{ID: 2, Email: email, TotalCredits: 3, UsedCredits: 3}

		f.accounts.On("GetByEmail", ctx, email).Return(account, nil).Once()

		result, err := f.gate().Consume(ctx, email, "hello")

		assert.Nil(t, result)
		assert.ErrorIs(t, err, errs.ErrCreditsExhausted)
		assert.Equal(t, errs.KindBusinessRuleViolation, errs.KindOf(err))
		f.completion.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
		f.uow.AssertNotCalled(t, "Begin", mock.Anything)
		assert.Equal(t, 1, f.metrics.consume[coreport.OutcomeDenied])
	})

	t.Run("Unknown account is not found", func(t *testing.T) {
		f := newGateFixture(t)

		f.accounts.On("GetByEmail", ctx, "ghost@example.com").Return(nil, errs.ErrAccountNotFound).Once()

		result, err := f.gate().Consume(ctx, "Ghost@Example.com", "hello")

		assert.Nil(t, result)
		assert.ErrorIs(t, err, errs.ErrAccountNotFound)
		f.completion.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
	})

	t.Run("Empty prompt is rejected", func(t *testing.T) {
		f := newGateFixture(t)

		result, err := f.gate().Consume(ctx, email, "")

		assert.Nil(t, result)
		assert.ErrorIs(t, err, errs.ErrInvalidPrompt)
		f.accounts.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
	})

	t.Run("Upstream failure leaves the ledger untouched", func(t *testing.T) {
		f := newGateFixture(t)
		account := &entity.Account{ID: 3, Email: email, TotalCredits: 3}

		f.accounts.On("GetByEmail", ctx, email).Return(account, nil).Once()
		f.completion.On("Complete", ctx, mock.Anything).
			Return(nil, errs.NewUpstreamError(503, "overloaded", nil)).Once()

		result, err := f.gate().Consume(ctx, email, "hello")

		assert.Nil(t, result)
		assert.ErrorIs(t, err, errs.ErrUpstreamFailure)
		var upstreamErr *errs.UpstreamError
		require.ErrorAs(t, err, &upstreamErr)
		assert.Equal(t, 503, upstreamErr.Status)
		f.uow.AssertNotCalled(t, "Begin", mock.Anything)
		assert.Equal(t, 1, f.metrics.consume[coreport.OutcomeUpstream])
		assert.Equal(t, 1, f.metrics.upstream[coreport.OutcomeError])
	})

	t.Run("Transport error is classified as upstream failure", func(t *testing.T) {
		f := newGateFixture(t)
		account := &entity.Account{ID: 3, Email: email, TotalCredits: 3}

		f.accounts.On("GetByEmail", ctx, email).Return(account, nil).Once()
		f.completion.On("Complete", ctx, mock.Anything).Return(nil, context.DeadlineExceeded).Once()

		_, err := f.gate().Consume(ctx, email, "hello")

		assert.ErrorIs(t, err, errs.ErrUpstreamFailure)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("Usage record failure still returns the answer and rolls back the charge", func(t *testing.T) {
		f := newGateFixture(t)
		account := &entity.Account{ID: 4, Email: email, TotalCredits: 3, UsedCredits: 0}

		f.accounts.On("GetByEmail", ctx, email).Return(account, nil).Once()
		f.completion.On("Complete", ctx, mock.Anything).
			Return(&upstream.CompletionResponse{Content: "answer"}, nil).Once()
		f.expectTransaction()
		f.txAccounts.On("IncrementUsedCredits", f.txCtx, int64(4), int64(1)).Return(nil).Once()
		f.usage.On("Create", f.txCtx, mock.Anything).Return(errors.New("disk full")).Once()
		f.uow.On("Rollback", f.txCtx).Return(nil).Once()
		f.accounts.On("GetByID", ctx, int64(4)).
			Return(&entity.Account{ID: 4, TotalCredits: 3, UsedCredits: 0}, nil).Once()

		result, err := f.gate().Consume(ctx, email, "hello")

		require.NoError(t, err)
		assert.Equal(t, "answer", result.Answer)
		assert.False(t, result.Recorded)
		assert.Equal(t, int64(0), result.Credits.Used)
		f.uow.AssertNotCalled(t, "Commit", mock.Anything)
		assert.Equal(t, 1, f.metrics.recordFailures)
	})

	t.Run("Begin failure still returns the answer", func(t *testing.T) {
		f := newGateFixture(t)
		account := &entity.Account{ID: 5, Email: email, TotalCredits: 3}

		f.accounts.On("GetByEmail", ctx, email).Return(account, nil).Once()
		f.completion.On("Complete", ctx, mock.Anything).
			Return(&upstream.CompletionResponse{Content: "answer"}, nil).Once()
		f.uow.On("Begin", mock.Anything).Return(nil, errs.ErrDatabaseConnection).Once()
		f.accounts.On("GetByID", ctx, int64(5)).Return(account, nil).Once()

		result, err := f.gate().Consume(ctx, email, "hello")

		require.NoError(t, err)
		assert.Equal(t, "answer", result.Answer)
		assert.False(t, result.Recorded)
		f.uow.AssertNotCalled(t, "Rollback", mock.Anything)
	})

	t.Run("Balance is derived from the snapshot when the re-read fails", func(t *testing.T) {
		f := newGateFixture(t)
		account := &entity.Account{ID: 6, Email: email, TotalCredits: 3, UsedCredits: 2}

		f.accounts.On("GetByEmail", ctx, email).Return(account, nil).Once()
		f.completion.On("Complete", ctx, mock.Anything).
			Return(&upstream.CompletionResponse{Content: "answer"}, nil).Once()
		f.expectTransaction()
		f.txAccounts.On("IncrementUsedCredits", f.txCtx, int64(6), int64(1)).Return(nil).Once()
		f.usage.On("Create", f.txCtx, mock.Anything).Return(nil).Once()
		f.uow.On("Commit", f.txCtx).Return(nil).Once()
		f.accounts.On("GetByID", ctx, int64(6)).Return(nil, errs.ErrDatabaseConnection).Once()

		result, err := f.gate().Consume(ctx, email, "hello")

		require.NoError(t, err)
		assert.Equal(t, entity.CreditSummary{Total: 3, Used: 3, Remaining: 0}, result.Credits)
	})

	t.Run("Long answers are stored as a truncated preview", func(t *testing.T) {
		f := newGateFixture(t)
		account := &entity.Account{ID: 7, Email: email, TotalCredits: 3}
		longAnswer := strings.Repeat("x", 2000)

		f.accounts.On("GetByEmail", ctx, email).Return(account, nil).Once()
		f.completion.On("Complete", ctx, mock.Anything).
			Return(&upstream.CompletionResponse{Content: longAnswer}, nil).Once()
		f.expectTransaction()
		f.txAccounts.On("IncrementUsedCredits", f.txCtx, int64(7), int64(1)).Return(nil).Once()
		f.usage.On("Create", f.txCtx, mock.MatchedBy(func(r *entity.UsageRecord) bool {
			return len(r.ResponsePreview) == entity.MaxResponsePreviewLength
		})).Return(nil).Once()
		f.uow.On("Commit", f.txCtx).Return(nil).Once()
		f.accounts.On("GetByID", ctx, int64(7)).Return(account, nil).Once()

		result, err := f.gate().Consume(ctx, email, "hello")

		require.NoError(t, err)
		assert.Len(t, result.Answer, 2000)
	})
}

func TestNewGate_DefaultsSystemPrompt(t *testing.T) {
	gate := NewGate(nil, nil, nil, nil, nil, nil, Config{Temperature: 0.5})

	assert.Equal(t, DefaultSystemPrompt, gate.config.SystemPrompt)
	assert.Equal(t, 0.5, gate.config.Temperature)
}
