package usecase

import (
	"context"

	"github.com/amirhossein-jamali/credit-ledger/internal/domain/entity"
	"github.com/amirhossein-jamali/credit-ledger/internal/domain/port/usecase"
	"github.com/stretchr/testify/mock"
)

// MockVoucherUseCase is a testify mock of usecase.VoucherUseCase
type MockVoucherUseCase struct {
	mock.Mock
}

// NewMockVoucherUseCase creates a MockVoucherUseCase that asserts its expectations on cleanup
func NewMockVoucherUseCase(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockVoucherUseCase {
	m := &MockVoucherUseCase{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockVoucherUseCase) Redeem(ctx context.Context, code, email string) (*usecase.RedeemResult, error) {
	ret := m.Called(ctx, code, email)
	var result *usecase.RedeemResult
	if v := ret.Get(0); v != nil {
		result = v.(*usecase.RedeemResult)
	}
	return result, ret.Error(1)
}

func (m *MockVoucherUseCase) Issue(ctx context.Context, req usecase.IssueVoucherRequest) (*entity.Voucher, error) {
	ret := m.Called(ctx, req)
	var voucher *entity.Voucher
	if v := ret.Get(0); v != nil {
		voucher = v.(*entity.Voucher)
	}
	return voucher, ret.Error(1)
}

func (m *MockVoucherUseCase) ListRecent(ctx context.Context, limit int) ([]*entity.Voucher, error) {
	ret := m.Called(ctx, limit)
	var vouchers []*entity.Voucher
	if v := ret.Get(0); v != nil {
		vouchers = v.([]*entity.Voucher)
	}
	return vouchers, ret.Error(1)
}
