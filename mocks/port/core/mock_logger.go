package core

import (
	core "github.com/amirhossein-jamali/credit-ledger/internal/domain/port/core"
	"github.com/stretchr/testify/mock"
)

// MockLogger is a testify mock of core.Logger
type MockLogger struct {
	mock.Mock
}

// NewMockLogger creates a MockLogger that asserts its expectations on cleanup
func NewMockLogger(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockLogger {
	m := &MockLogger{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// AllowAll accepts any log call at any level
func (m *MockLogger) AllowAll() *MockLogger {
	for _, level := range []string{"Debug", "Info", "Warn", "Error"} {
		m.On(level, mock.Anything, mock.Anything).Maybe()
	}
	return m
}

func (m *MockLogger) SetLevel(level core.LogLevel) {
	m.Called(level)
}

func (m *MockLogger) GetLevel() core.LogLevel {
	ret := m.Called()
	return ret.Get(0).(core.LogLevel)
}

func (m *MockLogger) Debug(message string, fields map[string]any) {
	m.Called(message, fields)
}

func (m *MockLogger) Info(message string, fields map[string]any) {
	m.Called(message, fields)
}

func (m *MockLogger) Warn(message string, fields map[string]any) {
	m.Called(message, fields)
}

func (m *MockLogger) Error(message string, fields map[string]any) {
	m.Called(message, fields)
}

func (m *MockLogger) Flush() error {
	ret := m.Called()
	return ret.Error(0)
}
