package persistence

import (
	"context"

	"github.com/amirhossein-jamali/credit-ledger/internal/domain/entity"
	"github.com/stretchr/testify/mock"
)

// MockAccountRepository is a testify mock of persistence.AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

// NewMockAccountRepository creates a MockAccountRepository that asserts its expectations on cleanup
func NewMockAccountRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockAccountRepository {
	m := &MockAccountRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockAccountRepository) Upsert(ctx context.Context, account *entity.Account) (*entity.Account, error) {
	ret := m.Called(ctx, account)
	return accountOrNil(ret.Get(0)), ret.Error(1)
}

func (m *MockAccountRepository) GetByEmail(ctx context.Context, email string) (*entity.Account, error) {
	ret := m.Called(ctx, email)
	return accountOrNil(ret.Get(0)), ret.Error(1)
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id int64) (*entity.Account, error) {
	ret := m.Called(ctx, id)
	return accountOrNil(ret.Get(0)), ret.Error(1)
}

func (m *MockAccountRepository) GetByEmailForUpdate(ctx context.Context, email string) (*entity.Account, error) {
	ret := m.Called(ctx, email)
	return accountOrNil(ret.Get(0)), ret.Error(1)
}

func (m *MockAccountRepository) IncrementUsedCredits(ctx context.Context, id int64, delta int64) error {
	ret := m.Called(ctx, id, delta)
	return ret.Error(0)
}

func (m *MockAccountRepository) AddTotalCredits(ctx context.Context, id int64, delta int64) error {
	ret := m.Called(ctx, id, delta)
	return ret.Error(0)
}

func accountOrNil(v any) *entity.Account {
	if v == nil {
		return nil
	}
	return v.(*entity.Account)
}
