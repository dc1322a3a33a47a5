package providers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const MockClientName = "mock"

// MockClient is a Generator for testing.
type MockClient struct {
	// Configurable behavior
	Latency      time.Duration
	ShouldFail   bool
	FailAfter    int // Fail after N requests (0 = never)
	PingFails    bool
	ResponseText string

	// Respond, when set, overrides ResponseText per request.
	Respond func(req *GenerateRequest) string

	// State
	requestCount atomic.Int64
	mu           sync.Mutex
	prompts      []string
}

// NewMockClient creates a new mock client with sensible defaults.
func NewMockClient() *MockClient {
	return &MockClient{
		Latency:      time.Millisecond,
		ResponseText: "mock response",
	}
}

// Name returns the client identifier.
func (c *MockClient) Name() string {
	return MockClientName
}

// Ping fails when PingFails is set.
func (c *MockClient) Ping(ctx context.Context) error {
	if c.PingFails {
		return errors.New("mock client configured to be unreachable")
	}
	return ctx.Err()
}

// Generate returns the canned response after Latency.
func (c *MockClient) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error) {
	start := time.Now()
	count := c.requestCount.Add(1)

	c.mu.Lock()
	c.prompts = append(c.prompts, req.Prompt)
	c.mu.Unlock()

	result := &GenerateResult{
		RequestID: fmt.Sprintf("mock-%d", count),
		Provider:  MockClientName,
		ModelUsed: req.Model,
	}

	if c.ShouldFail {
		return result.failed(start, ErrorTypeMock, errors.New("mock client configured to fail"))
	}
	if c.FailAfter > 0 && int(count) > c.FailAfter {
		return result.failed(start, ErrorTypeMock, fmt.Errorf("mock client failed after %d requests", c.FailAfter))
	}

	select {
	case <-time.After(c.Latency):
	case <-ctx.Done():
		return result.failed(start, ErrorTypeCancelled, ctx.Err())
	}

	content := c.ResponseText
	if c.Respond != nil {
		content = c.Respond(req)
	}

	result.Success = true
	result.Content = content
	result.PromptTokens = len(req.Prompt) / 4 // Rough estimate
	result.CompletionTokens = len(content) / 4
	result.TotalTokens = result.PromptTokens + result.CompletionTokens
	result.ExecutionTime = time.Since(start)
	return result, nil
}

// RequestCount returns the number of requests made.
func (c *MockClient) RequestCount() int64 {
	return c.requestCount.Load()
}

// Prompts returns a copy of every prompt received, in order.
func (c *MockClient) Prompts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.prompts))
	copy(out, c.prompts)
	return out
}

// Reset resets the request counter and recorded prompts.
func (c *MockClient) Reset() {
	c.requestCount.Store(0)
	c.mu.Lock()
	c.prompts = nil
	c.mu.Unlock()
}

// Verify interface
var _ Generator = (*MockClient)(nil)
