package usecase

import (
	"context"

	"github.com/amirhossein-jamali/credit-ledger/internal/domain/entity"
	"github.com/stretchr/testify/mock"
)

// MockAccountUseCase is a testify mock of usecase.AccountUseCase
type MockAccountUseCase struct {
	mock.Mock
}

// NewMockAccountUseCase creates a MockAccountUseCase that asserts its expectations on cleanup
func NewMockAccountUseCase(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockAccountUseCase {
	m := &MockAccountUseCase{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockAccountUseCase) UpsertFromProfile(ctx context.Context, profile entity.Profile) (*entity.Account, error) {
	ret := m.Called(ctx, profile)
	var account *entity.Account
	if v := ret.Get(0); v != nil {
		account = v.(*entity.Account)
	}
	return account, ret.Error(1)
}

func (m *MockAccountUseCase) LookupByEmail(ctx context.Context, email string) (*entity.Account, error) {
	ret := m.Called(ctx, email)
	var account *entity.Account
	if v := ret.Get(0); v != nil {
		account = v.(*entity.Account)
	}
	return account, ret.Error(1)
}

func (m *MockAccountUseCase) GetCredits(ctx context.Context, email string) (*entity.CreditSummary, error) {
	ret := m.Called(ctx, email)
	var summary *entity.CreditSummary
	if v := ret.Get(0); v != nil {
		summary = v.(*entity.CreditSummary)
	}
	return summary, ret.Error(1)
}
