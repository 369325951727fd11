package usecase

import (
	"context"

	"github.com/amirhossein-jamali/credit-ledger/internal/domain/port/usecase"
	"github.com/stretchr/testify/mock"
)

// MockUsageUseCase is a testify mock of usecase.UsageUseCase
type MockUsageUseCase struct {
	mock.Mock
}

// NewMockUsageUseCase creates a MockUsageUseCase that asserts its expectations on cleanup
func NewMockUsageUseCase(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockUsageUseCase {
	m := &MockUsageUseCase{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockUsageUseCase) Consume(ctx context.Context, email, prompt string) (*usecase.ConsumeResult, error) {
	ret := m.Called(ctx, email, prompt)
	var result *usecase.ConsumeResult
	if v := ret.Get(0); v != nil {
		result = v.(*usecase.ConsumeResult)
	}
	return result, ret.Error(1)
}
