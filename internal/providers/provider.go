package providers

import (
	"context"
	"time"
)

// Generator is the interface every text-generation backend implements.
type Generator interface {
	// Generate runs a single non-streaming completion for req.Prompt.
	// On failure it returns both a result (Success=false, ErrorType set)
	// and an error, so callers can log the classification.
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error)

	// Ping is a lightweight liveness probe.
	Ping(ctx context.Context) error

	// Name returns the backend identifier (e.g., "ollama").
	Name() string
}

// Options are the sampling parameters forwarded to the backend.
// Zero values are omitted from the wire request.
type Options struct {
	Temperature float64  `json:"temperature,omitempty"`
	TopP        float64  `json:"top_p,omitempty"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

// GenerateRequest is a request to a text-generation backend.
type GenerateRequest struct {
	Prompt string `json:"prompt"`

	// Model selection (uses client default if empty)
	Model string `json:"model,omitempty"`

	Options Options `json:"options"`

	// Request tracking
	RequestID string `json:"-"`
}

// GenerateResult is the complete response from a generation call.
type GenerateResult struct {
	Content string `json:"content"`

	// Token counts (0 when the backend does not report them)
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`

	ExecutionTime time.Duration `json:"execution_time"`

	Provider  string `json:"provider"`
	ModelUsed string `json:"model_used"`
	RequestID string `json:"request_id"`

	Success      bool   `json:"success"`
	ErrorType    string `json:"error_type,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// Error classifications reported in GenerateResult.ErrorType.
const (
	ErrorTypeTimeout       = "timeout"
	ErrorTypeConnection    = "connection"
	ErrorTypeHTTPStatus    = "http_status"
	ErrorTypeDecode        = "decode"
	ErrorTypeEmptyResponse = "empty_response"
	ErrorTypeCancelled     = "context_cancelled"
	ErrorTypeMock          = "mock_failure"
)

// failed fills in the failure fields of r and returns it with err.
func (r *GenerateResult) failed(start time.Time, errType string, err error) (*GenerateResult, error) {
	r.Success = false
	r.ErrorType = errType
	r.ErrorMessage = err.Error()
	r.ExecutionTime = time.Since(start)
	return r, err
}
