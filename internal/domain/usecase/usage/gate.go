package usage

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirhossein-jamali/credit-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/credit-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/credit-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/credit-ledger/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/credit-ledger/internal/domain/port/upstream"
	"github.com/amirhossein-jamali/credit-ledger/internal/domain/port/usecase"
)

// Default sampling parameters for the completion call
const (
	DefaultTemperature  = 0.1
	DefaultTopP         = 0.1
	DefaultSystemPrompt = "You are HydraAI, a helpful assistant."
)

// Config holds the completion request parameters
type Config struct {
	SystemPrompt string
	Temperature  float64
	TopP         float64
}

// DefaultConfig returns the default completion parameters
func DefaultConfig() Config {
	return Config{
		SystemPrompt: DefaultSystemPrompt,
		Temperature:  DefaultTemperature,
		TopP:         DefaultTopP,
	}
}

// Gate charges one credit per successful completion call.
// The balance check and the charge are not atomic with each other; two concurrent
// calls from the same account may both pass the check and overdraw it by one.
type Gate struct {
	accountRepo  persistence.AccountRepository
	uow          persistence.UnitOfWork
	completion   upstream.CompletionClient
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
	metrics      coreport.Metrics
	config       Config
}

// NewGate creates a new usage gate
func NewGate(
	accountRepo persistence.AccountRepository,
	uow persistence.UnitOfWork,
	completion upstream.CompletionClient,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
	metrics coreport.Metrics,
	config Config,
) *Gate {
	if config.SystemPrompt == "" {
		config.SystemPrompt = DefaultSystemPrompt
	}
	return &Gate{
		accountRepo:  accountRepo,
		uow:          uow,
		completion:   completion,
		timeProvider: timeProvider,
		logger:       logger,
		metrics:      metrics,
		config:       config,
	}
}

var _ usecase.UsageUseCase = (*Gate)(nil)

// Consume checks the caller's balance, performs the completion call outside any
// transaction and then charges one credit together with its usage record.
func (g *Gate) Consume(ctx context.Context, email, prompt string) (*usecase.ConsumeResult, error) {
	if prompt == "" {
		g.observe(coreport.OutcomeInvalid)
		return nil, errs.ErrInvalidPrompt
	}

	account, err := g.lookup(ctx, email)
	if err != nil {
		return nil, err
	}

	if !account.CanConsume() {
		g.observe(coreport.OutcomeDenied)
		g.logger.Info("Usage denied, no credits remaining", map[string]any{
			"accountId": account.ID,
			"total":     account.TotalCredits,
			"used":      account.UsedCredits,
		})
		return nil, errs.NewCreditsExhaustedError(account.ID, account.TotalCredits, account.UsedCredits)
	}

	answer, err := g.complete(ctx, prompt)
	if err != nil {
		g.observe(coreport.OutcomeUpstream)
		g.logger.Error("Completion call failed", errorFields(err, map[string]any{
			"accountId": account.ID,
		}))
		return nil, err
	}

	recorded := g.charge(ctx, account, prompt, answer)

	g.observe(coreport.OutcomeSuccess)

	return &usecase.ConsumeResult{
		Answer:   answer,
		Credits:  g.balanceAfter(ctx, account, recorded),
		Recorded: recorded,
	}, nil
}

func (g *Gate) lookup(ctx context.Context, email string) (*entity.Account, error) {
	normalized := entity.NormalizeEmail(email)
	if normalized == "" {
		g.observe(coreport.OutcomeNotFound)
		return nil, errs.ErrAccountNotFound
	}

	account, err := g.accountRepo.GetByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, errs.ErrAccountNotFound) {
			g.observe(coreport.OutcomeNotFound)
			return nil, err
		}
		g.observe(coreport.OutcomeError)
		g.logger.Error("Failed to load account for usage", map[string]any{
			"email": normalized,
			"error": err.Error(),
		})
		return nil, fmt.Errorf("load account: %w", err)
	}
	return account, nil
}

func (g *Gate) complete(ctx context.Context, prompt string) (string, error) {
	start := g.timeProvider.Now()

	resp, err := g.completion.Complete(ctx, upstream.CompletionRequest{
		Messages: []upstream.Message{
			{Role: upstream.RoleSystem, Content: g.config.SystemPrompt},
			{Role: upstream.RoleUser, Content: prompt},
		},
		Temperature: g.config.Temperature,
		TopP:        g.config.TopP,
	})

	elapsed := g.timeProvider.Since(start)
	if err != nil {
		if g.metrics != nil {
			g.metrics.ObserveUpstream(coreport.OutcomeError, elapsed)
		}
		if !errors.Is(err, errs.ErrUpstreamFailure) {
			err = errs.NewUpstreamError(0, "", err)
		}
		return "", err
	}
	if g.metrics != nil {
		g.metrics.ObserveUpstream(coreport.OutcomeSuccess, elapsed)
	}
	return resp.Content, nil
}

// charge increments the used counter and appends the usage record in one
// transaction. Failures are logged and swallowed; it reports whether the charge committed.
func (g *Gate) charge(ctx context.Context, account *entity.Account, prompt, answer string) (committed bool) {
	txCtx, err := g.uow.Begin(ctx)
	if err != nil {
		g.recordFailure(account, "begin", err)
		return false
	}

	defer func() {
		if !committed {
			if rbErr := g.uow.Rollback(txCtx); rbErr != nil {
				g.logger.Warn("Rollback of usage charge failed", map[string]any{
					"accountId": account.ID,
					"error":     rbErr.Error(),
				})
			}
		}
	}()

	if err := g.uow.GetAccountRepository(txCtx).IncrementUsedCredits(txCtx, account.ID, 1); err != nil {
		g.recordFailure(account, "increment", err)
		return false
	}

	if err := g.uow.GetUsageRecordRepository(txCtx).Create(txCtx, entity.NewUsageRecord(account.ID, prompt, answer)); err != nil {
		g.recordFailure(account, "usage_record", err)
		return false
	}

	if err := g.uow.Commit(txCtx); err != nil {
		g.recordFailure(account, "commit", err)
		return false
	}

	return true
}

// balanceAfter re-reads the account. When that fails the balance is derived from the snapshot.
func (g *Gate) balanceAfter(ctx context.Context, snapshot *entity.Account, charged bool) entity.CreditSummary {
	fresh, err := g.accountRepo.GetByID(ctx, snapshot.ID)
	if err == nil {
		return fresh.Credits()
	}

	g.logger.Warn("Failed to re-read balance after usage", map[string]any{
		"accountId": snapshot.ID,
		"error":     err.Error(),
	})

	credits := snapshot.Credits()
	if charged {
		credits = credits.WithConsumed(1)
	}
	return credits
}

func (g *Gate) recordFailure(account *entity.Account, step string, err error) {
	if g.metrics != nil {
		g.metrics.ObserveUsageRecordFailure()
	}
	g.logger.Error("Failed to record usage, answer returned uncharged", map[string]any{
		"accountId": account.ID,
		"step":      step,
		"error":     err.Error(),
	})
}

func (g *Gate) observe(outcome string) {
	if g.metrics != nil {
		g.metrics.ObserveConsume(outcome)
	}
}

func errorFields(err error, fields map[string]any) map[string]any {
	var upstreamErr *errs.UpstreamError
	if errors.As(err, &upstreamErr) {
		for k, v := range upstreamErr.LogFields() {
			fields[k] = v
		}
		return fields
	}
	fields["error"] = err.Error()
	return fields
}
