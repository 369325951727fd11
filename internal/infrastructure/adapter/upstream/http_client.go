package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	errs "github.com/amirhossein-jamali/credit-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/credit-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/credit-ledger/internal/domain/port/upstream"
	"github.com/amirhossein-jamali/credit-ledger/internal/infrastructure/adapter/tracing"
)

const (
	// DefaultModel is the model requested when none is configured
	DefaultModel = "Meta-Llama-3.1-8B-Instruct"
	// DefaultEmptyReplyText replaces an answer the service returned without content
	DefaultEmptyReplyText = "(Empty response from the model)"
	// DefaultTimeout bounds a single completion call
	DefaultTimeout = 60 * time.Second

	completionsPath = "/chat/completions"
	maxErrorBody    = 2048
)

// Config configures the HTTP completion client
type Config struct {
	BaseURL        string
	APIKey         string
	Model          string
	Timeout        time.Duration
	EmptyReplyText string
}

// HTTPCompletionClient calls an OpenAI-compatible chat completions endpoint
type HTTPCompletionClient struct {
	endpoint   string
	apiKey     string
	model      string
	emptyReply string
	httpClient *http.Client
	logger     coreport.Logger
}

type chatRequest struct {
	Model       string             `json:"model"`
	Messages    []upstream.Message `json:"messages"`
	Temperature float64            `json:"temperature"`
	TopP        float64            `json:"top_p"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// NewHTTPCompletionClient creates a client for cfg.BaseURL
func NewHTTPCompletionClient(cfg Config, logger coreport.Logger) (*HTTPCompletionClient, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("completion base URL is empty")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("completion API key is empty")
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	emptyReply := cfg.EmptyReplyText
	if emptyReply == "" {
		emptyReply = DefaultEmptyReplyText
	}

	return &HTTPCompletionClient{
		endpoint:   base + completionsPath,
		apiKey:     cfg.APIKey,
		model:      model,
		emptyReply: emptyReply,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

var _ upstream.CompletionClient = (*HTTPCompletionClient)(nil)

// Complete sends one chat completion request and returns the first choice
func (c *HTTPCompletionClient) Complete(ctx context.Context, req upstream.CompletionRequest) (*upstream.CompletionResponse, error) {
	ctx, span := tracing.Tracer("upstream").Start(ctx, "upstream.Complete")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.model", c.model),
		attribute.Int("llm.messages", len(req.Messages)),
	)

	body, err := json.Marshal(&chatRequest{
		Model:       c.model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		TopP:        req.TopP,
	})
	if err != nil {
		return nil, c.fail(span, errs.NewUpstreamError(0, "", fmt.Errorf("failed to marshal completion request: %w", err)))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, c.fail(span, errs.NewUpstreamError(0, "", fmt.Errorf("failed to create completion request: %w", err)))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, c.fail(span, errs.NewUpstreamError(0, "", err))
	}
	defer httpResp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", httpResp.StatusCode))

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		text, _ := io.ReadAll(io.LimitReader(httpResp.Body, maxErrorBody))
		return nil, c.fail(span, errs.NewUpstreamError(httpResp.StatusCode, strings.TrimSpace(string(text)), nil))
	}

	var resp chatResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, c.fail(span, errs.NewUpstreamError(httpResp.StatusCode, "malformed response body", err))
	}

	content := ""
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}
	if content == "" {
		c.logger.Warn("Completion returned no content", map[string]any{
			"model": c.model,
		})
		content = c.emptyReply
	}

	return &upstream.CompletionResponse{Content: content}, nil
}

func (c *HTTPCompletionClient) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
