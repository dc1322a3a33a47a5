package generation

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/jackzampolin/docgen/internal/providers"
	"github.com/jackzampolin/docgen/internal/types"
)

// recordingBackend captures requests and returns a fixed response.
type recordingBackend struct {
	mu       sync.Mutex
	requests []*providers.GenerateRequest
	content  string
	err      error
}

func (b *recordingBackend) Name() string { return "recording" }
func (b *recordingBackend) Ping(ctx context.Context) error { return b.err }

func (b *recordingBackend) Generate(ctx context.Context, req *providers.GenerateRequest) (*providers.GenerateResult, error) {
	b.mu.Lock()
	b.requests = append(b.requests, req)
	b.mu.Unlock()
	if b.err != nil {
		return &providers.GenerateResult{ErrorType: providers.ErrorTypeConnection}, b.err
	}
	return &providers.GenerateResult{Content: b.content, Success: true}, nil
}

func TestCheckConnectivity(t *testing.T) {
	healthy := providers.NewMockClient()
	if !NewClient(Config{Backend: healthy}).CheckConnectivity(context.Background()) {
		t.Error("expected healthy backend to be reachable")
	}

	down := providers.NewMockClient()
	down.PingFails = true
	if NewClient(Config{Backend: down}).CheckConnectivity(context.Background()) {
		t.Error("expected failing backend to be unreachable")
	}

	if NewClient(Config{}).CheckConnectivity(context.Background()) {
		t.Error("expected nil backend to be unreachable")
	}
}

func TestRequestOutline(t *testing.T) {
	t.Run("parses backend response", func(t *testing.T) {
		backend := &recordingBackend{content: "1. Foo\n2. Bar\n"}
		c := NewClient(Config{Backend: backend, Model: "llama3"})

		got := c.RequestOutline(context.Background(), "Graph Theory", types.ComplexityBeginner, 4)
		if got.Fallback {
			t.Fatalf("unexpected fallback: %s", got.Reason)
		}
		want := []string{"Foo", "Bar", "Advanced Topic 3", "Advanced Topic 4"}
		if !reflect.DeepEqual(got.Titles, want) {
			t.Errorf("Titles = %q, want %q", got.Titles, want)
		}

		req := backend.requests[0]
		if req.Model != "llama3" {
			t.Errorf("Model = %q, want llama3", req.Model)
		}
		if req.Options.Temperature != DefaultTemperature || req.Options.TopP != DefaultTopP {
			t.Errorf("Options = %+v", req.Options)
		}
		if req.Options.MaxTokens != 0 || len(req.Options.Stop) != 0 {
			t.Errorf("outline request should not cap output: %+v", req.Options)
		}
		if !strings.Contains(req.Prompt, `"Graph Theory"`) {
			t.Error("prompt should mention the topic")
		}
	})

	t.Run("falls back on failure", func(t *testing.T) {
		backend := providers.NewMockClient()
		backend.ShouldFail = true
		c := NewClient(Config{Backend: backend})

		got := c.RequestOutline(context.Background(), "Graph Theory", types.ComplexityBeginner, 3)
		if !got.Fallback || got.Reason == "" {
			t.Fatalf("expected fallback with reason, got %+v", got)
		}
		want := []string{"Introduction to Graph Theory", "Fundamental Concepts", "Core Principles"}
		if !reflect.DeepEqual(got.Titles, want) {
			t.Errorf("Titles = %q, want %q", got.Titles, want)
		}
	})

	t.Run("empty response is a failure", func(t *testing.T) {
		c := NewClient(Config{Backend: &recordingBackend{content: "  \n"}})
		got := c.RequestOutline(context.Background(), "Go", types.ComplexityAdvanced, 2)
		if !got.Fallback {
			t.Error("expected fallback for blank response")
		}
		if len(got.Titles) != 2 {
			t.Errorf("len(Titles) = %d, want 2", len(got.Titles))
		}
	})
}

func TestRequestChapterContent(t *testing.T) {
	spec := ChapterSpec{
		Topic:      "Graph Theory",
		Title:      "Intro",
		Complexity: types.ComplexityBeginner,
		Index:      1,
		Total:      3,
		Outline:    []string{"Intro", "Paths", "Trees"},
	}

	t.Run("normalizes backend response", func(t *testing.T) {
		backend := &recordingBackend{content: "Some body text."}
		c := NewClient(Config{Backend: backend})

		got := c.RequestChapterContent(context.Background(), spec)
		if got.Fallback {
			t.Fatalf("unexpected fallback: %s", got.Reason)
		}
		if got.Content != "\\section{Intro}\n\nSome body text.\n" {
			t.Errorf("Content = %q", got.Content)
		}

		opts := backend.requests[0].Options
		if opts.MaxTokens != DefaultChapterMaxTokens {
			t.Errorf("MaxTokens = %d, want %d", opts.MaxTokens, DefaultChapterMaxTokens)
		}
		if !reflect.DeepEqual(opts.Stop, ChapterStop) {
			t.Errorf("Stop = %q", opts.Stop)
		}
		if strings.Contains(backend.requests[0].Prompt, "Previous chapters") {
			t.Error("chapter 1 prompt must not list previous chapters")
		}
	})

	t.Run("falls back on failure", func(t *testing.T) {
		backend := &recordingBackend{err: errors.New("connection refused")}
		c := NewClient(Config{Backend: backend})

		got := c.RequestChapterContent(context.Background(), spec)
		if !got.Fallback {
			t.Fatal("expected fallback")
		}
		if !strings.Contains(got.Reason, "connection refused") {
			t.Errorf("Reason = %q", got.Reason)
		}
		if got.Content != FallbackChapter("Graph Theory", "Intro", types.ComplexityBeginner, 1) {
			t.Error("expected fallback chapter template")
		}
	})
}
