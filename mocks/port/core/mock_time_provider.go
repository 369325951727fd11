package core

import (
	"time"

	"github.com/stretchr/testify/mock"
)

// MockTimeProvider is a testify mock of core.TimeProvider
type MockTimeProvider struct {
	mock.Mock
}

// NewMockTimeProvider creates a MockTimeProvider that asserts its expectations on cleanup
func NewMockTimeProvider(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockTimeProvider {
	m := &MockTimeProvider{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockTimeProvider) Now() time.Time {
	ret := m.Called()
	return ret.Get(0).(time.Time)
}

func (m *MockTimeProvider) Since(t time.Time) time.Duration {
	ret := m.Called(t)
	return ret.Get(0).(time.Duration)
}
