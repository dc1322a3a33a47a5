package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	OllamaName           = "ollama"
	OllamaDefaultBaseURL = "http://localhost:11434"
	OllamaDefaultModel   = "mistral:7b"
	OllamaDefaultTimeout = 60 * time.Second
)

// OllamaConfig holds configuration for the native Ollama client.
type OllamaConfig struct {
	BaseURL      string
	DefaultModel string
	Timeout      time.Duration // Per request, applies to generation and probes
	HTTPClient   *http.Client  // Optional (tests)
}

// OllamaClient talks to Ollama's native HTTP API (/api/generate, /api/tags).
type OllamaClient struct {
	baseURL      string
	defaultModel string
	client       *http.Client
}

// NewOllamaClient creates a new Ollama client.
func NewOllamaClient(cfg OllamaConfig) *OllamaClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = OllamaDefaultBaseURL
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = OllamaDefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = OllamaDefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &OllamaClient{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		defaultModel: cfg.DefaultModel,
		client:       httpClient,
	}
}

// Name returns the client identifier.
func (c *OllamaClient) Name() string {
	return OllamaName
}

// Model returns the configured default model.
func (c *OllamaClient) Model() string {
	return c.defaultModel
}

// BaseURL returns the server address.
func (c *OllamaClient) BaseURL() string {
	return c.baseURL
}

type ollamaOptions struct {
	Temperature float64  `json:"temperature,omitempty"`
	TopP        float64  `json:"top_p,omitempty"`
	NumPredict  int      `json:"num_predict,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

type ollamaGenerateRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaGenerateResponse struct {
	Model           string `json:"model"`
	Response        string `json:"response"`
	Done            bool   `json:"done"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
}

// Generate sends a non-streaming /api/generate request.
func (c *OllamaClient) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error) {
	start := time.Now()

	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.New().String()
	}
	model := req.Model
	if model == "" {
		model = c.defaultModel
	}

	result := &GenerateResult{
		Provider:  OllamaName,
		ModelUsed: model,
		RequestID: requestID,
	}

	body, err := json.Marshal(ollamaGenerateRequest{
		Model:  model,
		Prompt: req.Prompt,
		Stream: false,
		Options: ollamaOptions{
			Temperature: req.Options.Temperature,
			TopP:        req.Options.TopP,
			NumPredict:  req.Options.MaxTokens,
			Stop:        req.Options.Stop,
		},
	})
	if err != nil {
		return result.failed(start, ErrorTypeDecode, fmt.Errorf("failed to marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return result.failed(start, ErrorTypeConnection, fmt.Errorf("failed to create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return result.failed(start, classifyTransportError(ctx, err), fmt.Errorf("ollama request failed: %w", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return result.failed(start, classifyTransportError(ctx, err), fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return result.failed(start, ErrorTypeHTTPStatus,
			fmt.Errorf("ollama error (status %d): %s", resp.StatusCode, truncate(string(respBody), 200)))
	}

	var out ollamaGenerateResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return result.failed(start, ErrorTypeDecode, fmt.Errorf("failed to decode response: %w", err))
	}
	if strings.TrimSpace(out.Response) == "" {
		return result.failed(start, ErrorTypeEmptyResponse, errors.New("ollama returned an empty response"))
	}

	result.Success = true
	result.Content = out.Response
	result.PromptTokens = out.PromptEvalCount
	result.CompletionTokens = out.EvalCount
	result.TotalTokens = out.PromptEvalCount + out.EvalCount
	if out.Model != "" {
		result.ModelUsed = out.Model
	}
	result.ExecutionTime = time.Since(start)
	return result, nil
}

// Ping issues GET /api/tags and expects 200.
func (c *OllamaClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama unreachable at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama probe returned status %d", resp.StatusCode)
	}
	return nil
}

// classifyTransportError maps a client.Do error onto an ErrorType.
func classifyTransportError(ctx context.Context, err error) string {
	if ctx.Err() == context.Canceled {
		return ErrorTypeCancelled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTypeTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorTypeTimeout
	}
	return ErrorTypeConnection
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

var _ Generator = (*OllamaClient)(nil)
