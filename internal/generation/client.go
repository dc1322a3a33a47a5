// Package generation turns document requests into outline titles and
// chapter content using an inference backend. Backend failures never reach
// the caller: every request degrades to a deterministic fallback.
package generation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackzampolin/docgen/internal/prompts"
	"github.com/jackzampolin/docgen/internal/prompts/chapter"
	"github.com/jackzampolin/docgen/internal/prompts/outline"
	"github.com/jackzampolin/docgen/internal/providers"
	"github.com/jackzampolin/docgen/internal/types"
)

// Sampling defaults used for every request.
const (
	DefaultTemperature      = 0.7
	DefaultTopP             = 0.9
	DefaultChapterMaxTokens = 3000
)

// ChapterStop curbs runaway whitespace at the end of a chapter.
var ChapterStop = []string{"\n\n\n\n"}

// Config configures a Client.
type Config struct {
	Backend providers.Generator
	// Model overrides the backend's default model when non-empty.
	Model string
	// Prompts resolves prompt overrides. Nil uses the embedded templates.
	Prompts *prompts.Resolver
	Logger  *slog.Logger

	Temperature      float64
	TopP             float64
	ChapterMaxTokens int
}

// Client issues outline and chapter requests against a backend.
type Client struct {
	backend providers.Generator
	model   string
	prompts *prompts.Resolver
	logger  *slog.Logger

	temperature      float64
	topP             float64
	chapterMaxTokens int
}

// NewClient creates a generation client. Zero sampling values use the defaults.
func NewClient(cfg Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		backend:          cfg.Backend,
		model:            cfg.Model,
		prompts:          cfg.Prompts,
		logger:           logger,
		temperature:      cfg.Temperature,
		topP:             cfg.TopP,
		chapterMaxTokens: cfg.ChapterMaxTokens,
	}
	if c.temperature == 0 {
		c.temperature = DefaultTemperature
	}
	if c.topP == 0 {
		c.topP = DefaultTopP
	}
	if c.chapterMaxTokens == 0 {
		c.chapterMaxTokens = DefaultChapterMaxTokens
	}
	return c
}

// CheckConnectivity probes the backend. It never returns an error.
func (c *Client) CheckConnectivity(ctx context.Context) bool {
	if c.backend == nil {
		c.logger.Error("no inference backend configured")
		return false
	}
	if err := c.backend.Ping(ctx); err != nil {
		c.logger.Error("inference backend unreachable", "backend", c.backend.Name(), "error", err)
		return false
	}
	c.logger.Info("connected to inference backend", "backend", c.backend.Name())
	return true
}

// RequestOutline asks the backend for n chapter titles. On any failure it
// returns FallbackOutline with Fallback set.
func (c *Client) RequestOutline(ctx context.Context, topic string, complexity types.Complexity, n int) OutlineResult {
	prompt, hash := outline.Build(c.prompts, outline.Input{Topic: topic, Complexity: complexity, Chapters: n})
	c.logger.Debug("requesting outline", "topic", topic, "chapters", n, "prompt_hash", prompts.HashText(prompt), "template_hash", hash)

	content, err := c.generate(ctx, prompt, providers.Options{
		Temperature: c.temperature,
		TopP:        c.topP,
	})
	if err != nil {
		c.logger.Warn("outline generation failed, using fallback outline", "topic", topic, "error", err)
		return OutlineResult{
			Titles:   FallbackOutline(topic, n),
			Fallback: true,
			Reason:   err.Error(),
		}
	}

	titles := ParseOutline(content, n)
	c.logger.Info("generated outline", "topic", topic, "chapters", len(titles))
	return OutlineResult{Titles: titles}
}

// RequestChapterContent asks the backend for one chapter and normalizes the
// response. On any failure it returns FallbackChapter with Fallback set.
func (c *Client) RequestChapterContent(ctx context.Context, spec ChapterSpec) ChapterResult {
	prompt, hash := chapter.Build(c.prompts, chapter.Input{
		Topic:      spec.Topic,
		Title:      spec.Title,
		Complexity: spec.Complexity,
		Index:      spec.Index,
		Total:      spec.Total,
		Prior:      spec.Prior,
		Outline:    spec.Outline,
	})
	c.logger.Debug("requesting chapter",
		"chapter", spec.Index, "title", spec.Title,
		"prompt_hash", prompts.HashText(prompt), "template_hash", hash)

	content, err := c.generate(ctx, prompt, providers.Options{
		Temperature: c.temperature,
		TopP:        c.topP,
		MaxTokens:   c.chapterMaxTokens,
		Stop:        ChapterStop,
	})
	if err != nil {
		c.logger.Warn("chapter generation failed, using fallback chapter",
			"chapter", spec.Index, "title", spec.Title, "error", err)
		return ChapterResult{
			Content:  FallbackChapter(spec.Topic, spec.Title, spec.Complexity, spec.Index),
			Fallback: true,
			Reason:   err.Error(),
		}
	}

	return ChapterResult{Content: NormalizeContent(content, spec.Title)}
}

// generate runs one backend call and returns its text. Any failure,
// including a blank response, is an error.
func (c *Client) generate(ctx context.Context, prompt string, opts providers.Options) (string, error) {
	if c.backend == nil {
		return "", fmt.Errorf("no inference backend configured")
	}

	result, err := c.backend.Generate(ctx, &providers.GenerateRequest{
		Prompt:  prompt,
		Model:   c.model,
		Options: opts,
	})
	if err != nil {
		if result != nil && result.ErrorType != "" {
			return "", fmt.Errorf("%s: %w", result.ErrorType, err)
		}
		return "", err
	}
	if result == nil || !result.Success {
		return "", fmt.Errorf("backend reported failure")
	}
	if strings.TrimSpace(result.Content) == "" {
		return "", fmt.Errorf("%s: backend returned no text", providers.ErrorTypeEmptyResponse)
	}

	c.logger.Debug("generation complete",
		"provider", result.Provider,
		"model", result.ModelUsed,
		"tokens", result.TotalTokens,
		"duration", result.ExecutionTime)
	return result.Content, nil
}
