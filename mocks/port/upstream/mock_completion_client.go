package upstream

import (
	"context"

	"github.com/amirhossein-jamali/credit-ledger/internal/domain/port/upstream"
	"github.com/stretchr/testify/mock"
)

// MockCompletionClient is a testify mock of upstream.CompletionClient
type MockCompletionClient struct {
	mock.Mock
}

// NewMockCompletionClient creates a MockCompletionClient that asserts its expectations on cleanup
func NewMockCompletionClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockCompletionClient {
	m := &MockCompletionClient{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockCompletionClient) Complete(ctx context.Context, req upstream.CompletionRequest) (*upstream.CompletionResponse, error) {
	ret := m.Called(ctx, req)
	var resp *upstream.CompletionResponse
	if v := ret.Get(0); v != nil {
		resp = v.(*upstream.CompletionResponse)
	}
	return resp, ret.Error(1)
}
