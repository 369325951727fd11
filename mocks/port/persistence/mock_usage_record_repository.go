package persistence

import (
	"context"

	"github.com/amirhossein-jamali/credit-ledger/internal/domain/entity"
	"github.com/stretchr/testify/mock"
)

// MockUsageRecordRepository is a testify mock of persistence.UsageRecordRepository
type MockUsageRecordRepository struct {
	mock.Mock
}

// NewMockUsageRecordRepository creates a MockUsageRecordRepository that asserts its expectations on cleanup
func NewMockUsageRecordRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockUsageRecordRepository {
	m := &MockUsageRecordRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockUsageRecordRepository) Create(ctx context.Context, record *entity.UsageRecord) error {
	ret := m.Called(ctx, record)
	return ret.Error(0)
}
