package persistence

import (
	"context"

	"github.com/amirhossein-jamali/credit-ledger/internal/domain/port/persistence"
	"github.com/stretchr/testify/mock"
)

// MockUnitOfWork is a testify mock of persistence.UnitOfWork
type MockUnitOfWork struct {
	mock.Mock
}

// NewMockUnitOfWork creates a MockUnitOfWork that asserts its expectations on cleanup
func NewMockUnitOfWork(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockUnitOfWork {
	m := &MockUnitOfWork{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	ret := m.Called(ctx)
	var txCtx context.Context
	if v := ret.Get(0); v != nil {
		txCtx = v.(context.Context)
	}
	return txCtx, ret.Error(1)
}

func (m *MockUnitOfWork) Commit(ctx context.Context) error {
	ret := m.Called(ctx)
	return ret.Error(0)
}

func (m *MockUnitOfWork) Rollback(ctx context.Context) error {
	ret := m.Called(ctx)
	return ret.Error(0)
}

func (m *MockUnitOfWork) GetAccountRepository(ctx context.Context) persistence.AccountRepository {
	ret := m.Called(ctx)
	return ret.Get(0).(persistence.AccountRepository)
}

func (m *MockUnitOfWork) GetVoucherRepository(ctx context.Context) persistence.VoucherRepository {
	ret := m.Called(ctx)
	return ret.Get(0).(persistence.VoucherRepository)
}

func (m *MockUnitOfWork) GetUsageRecordRepository(ctx context.Context) persistence.UsageRecordRepository {
	ret := m.Called(ctx)
	return ret.Get(0).(persistence.UsageRecordRepository)
}
