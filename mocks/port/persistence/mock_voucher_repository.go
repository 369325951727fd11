package persistence

import (
	"context"

	"github.com/amirhossein-jamali/credit-ledger/internal/domain/entity"
	"github.com/stretchr/testify/mock"
)

// MockVoucherRepository is a testify mock of persistence.VoucherRepository
type MockVoucherRepository struct {
	mock.Mock
}

// NewMockVoucherRepository creates a MockVoucherRepository that asserts its expectations on cleanup
func NewMockVoucherRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockVoucherRepository {
	m := &MockVoucherRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockVoucherRepository) Create(ctx context.Context, voucher *entity.Voucher) error {
	ret := m.Called(ctx, voucher)
	return ret.Error(0)
}

func (m *MockVoucherRepository) GetByCodeForUpdate(ctx context.Context, code string) (*entity.Voucher, error) {
	ret := m.Called(ctx, code)
	var voucher *entity.Voucher
	if v := ret.Get(0); v != nil {
		voucher = v.(*entity.Voucher)
	}
	return voucher, ret.Error(1)
}

func (m *MockVoucherRepository) DecrementRemainingUses(ctx context.Context, id int64) error {
	ret := m.Called(ctx, id)
	return ret.Error(0)
}

func (m *MockVoucherRepository) ListRecent(ctx context.Context, limit int) ([]*entity.Voucher, error) {
	ret := m.Called(ctx, limit)
	var vouchers []*entity.Voucher
	if v := ret.Get(0); v != nil {
		vouchers = v.([]*entity.Voucher)
	}
	return vouchers, ret.Error(1)
}
