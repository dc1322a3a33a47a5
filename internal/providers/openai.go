package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	OpenAIName = "openai"

	// Ollama serves an OpenAI-compatible API under /v1.
	OpenAIDefaultBaseURL = "http://localhost:11434/v1"
)

// OpenAIConfig holds configuration for an OpenAI-compatible backend.
type OpenAIConfig struct {
	APIKey       string // Ollama ignores the key but the SDK requires one
	BaseURL      string
	DefaultModel string
	Timeout      time.Duration
	HTTPClient   *http.Client // Optional (tests)
}

// OpenAIClient implements Generator using the official OpenAI SDK against
// any OpenAI-compatible chat completions endpoint.
type OpenAIClient struct {
	defaultModel string
	client       openai.Client
}

// NewOpenAIClient creates a new OpenAI-compatible client.
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = OpenAIDefaultBaseURL
	}
	if cfg.APIKey == "" {
		cfg.APIKey = "ollama"
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

	// Retries are disabled: failed calls degrade to fallback content upstream.
	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
		option.WithBaseURL(cfg.BaseURL),
	)

	return &OpenAIClient{
		defaultModel: cfg.DefaultModel,
		client:       client,
	}
}

// Name returns the provider identifier.
func (c *OpenAIClient) Name() string {
	return OpenAIName
}

// Model returns the configured default model.
func (c *OpenAIClient) Model() string {
	return c.defaultModel
}

// Ping lists models to verify the endpoint is reachable.
func (c *OpenAIClient) Ping(ctx context.Context) error {
	page, err := c.client.Models.List(ctx)
	if err != nil {
		return fmt.Errorf("openai models list failed: %w", mapOpenAIError(err))
	}
	if page == nil {
		return fmt.Errorf("openai models list returned nil response")
	}
	return nil
}

// Generate sends the prompt as a single user message.
func (c *OpenAIClient) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error) {
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
		Provider:  OpenAIName,
		ModelUsed: model,
		RequestID: requestID,
	}

	params := openai.ChatCompletionNewParams{
		Model: model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(req.Prompt),
		},
	}
	if req.Options.Temperature > 0 {
		params.Temperature = openai.Float(req.Options.Temperature)
	}
	if req.Options.TopP > 0 {
		params.TopP = openai.Float(req.Options.TopP)
	}
	if req.Options.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.Options.MaxTokens))
	}
	if len(req.Options.Stop) > 0 {
		params.Stop = openai.ChatCompletionNewParamsStopUnion{OfStringArray: req.Options.Stop}
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		errType := classifyTransportError(ctx, err)
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			errType = ErrorTypeHTTPStatus
		}
		return result.failed(start, errType, mapOpenAIError(err))
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return result.failed(start, ErrorTypeEmptyResponse, errors.New("openai returned no completion content"))
	}

	result.Success = true
	result.Content = resp.Choices[0].Message.Content
	result.PromptTokens = int(resp.Usage.PromptTokens)
	result.CompletionTokens = int(resp.Usage.CompletionTokens)
	result.TotalTokens = int(resp.Usage.TotalTokens)
	if resp.Model != "" {
		result.ModelUsed = resp.Model
	}
	result.ExecutionTime = time.Since(start)
	return result, nil
}

func mapOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return fmt.Errorf("openai error (status %d): %s", apiErr.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("openai error (status %d)", apiErr.StatusCode)
	}
	return err
}

var _ Generator = (*OpenAIClient)(nil)
