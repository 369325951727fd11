package upstream

import "context"

// Message roles understood by the completion service
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a chat completion request
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is the input to a single metered call
type CompletionRequest struct {
	Messages    []Message
	Temperature float64
	TopP        float64
}

// CompletionResponse carries the generated answer
type CompletionResponse struct {
	Content string
}

// CompletionClient calls the external text-completion service.
// Implementations return an *errs.UpstreamError on failure.
type CompletionClient interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}
