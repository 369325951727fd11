package voucher

import (
	coreport "github.com/amirhossein-jamali/credit-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/credit-ledger/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/credit-ledger/internal/domain/port/usecase"
)

const (
	// DefaultIssueAttempts bounds code regeneration on a unique-code collision
	DefaultIssueAttempts = 3
	// MaxListLimit caps the number of vouchers returned by ListRecent
	MaxListLimit = 100
)

// Config tunes voucher issuance
type Config struct {
	CodePrefix    string
	IssueAttempts int
}

// Service redeems and issues vouchers
type Service struct {
	uow          persistence.UnitOfWork
	accountRepo  persistence.AccountRepository
	voucherRepo  persistence.VoucherRepository
	codes        CodeGenerator
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
	metrics      coreport.Metrics
	attempts     int
}

// NewService creates a new voucher service
func NewService(
	uow persistence.UnitOfWork,
	accountRepo persistence.AccountRepository,
	voucherRepo persistence.VoucherRepository,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
	metrics coreport.Metrics,
	config Config,
) *Service {
	attempts := config.IssueAttempts
	if attempts <= 0 {
		attempts = DefaultIssueAttempts
	}
	return &Service{
		uow:          uow,
		accountRepo:  accountRepo,
		voucherRepo:  voucherRepo,
		codes:        NewRandomCodeGenerator(config.CodePrefix),
		timeProvider: timeProvider,
		logger:       logger,
		metrics:      metrics,
		attempts:     attempts,
	}
}

// WithCodeGenerator replaces the code generator
func (s *Service) WithCodeGenerator(codes CodeGenerator) *Service {
	s.codes = codes
	return s
}

var _ usecase.VoucherUseCase = (*Service)(nil)
