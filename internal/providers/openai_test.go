package providers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

const chatCompletionJSON = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "mistral:7b",
  "choices": [{"index": 0, "message": {"role": "assistant", "content": "\\section{Intro}\nBody"}, "finish_reason": "stop"}],
  "usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
}`

func TestOpenAIGenerateSuccess(t *testing.T) {
	var payload map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read body: %v", err)
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Errorf("unmarshal body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatCompletionJSON))
	}))
	defer server.Close()

	client := NewOpenAIClient(OpenAIConfig{BaseURL: server.URL, DefaultModel: "mistral:7b"})

	result, err := client.Generate(context.Background(), &GenerateRequest{
		Prompt:  "write chapter",
		Options: Options{Temperature: 0.7, MaxTokens: 3000, Stop: []string{"\n\n\n\n"}},
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !result.Success {
		t.Fatal("expected success result")
	}
	if result.Content != "\\section{Intro}\nBody" {
		t.Errorf("Content = %q", result.Content)
	}
	if result.TotalTokens != 15 {
		t.Errorf("TotalTokens = %d, want 15", result.TotalTokens)
	}
	if got, _ := payload["model"].(string); got != "mistral:7b" {
		t.Errorf("model = %q, want mistral:7b", got)
	}
	if got, _ := payload["max_tokens"].(float64); got != 3000 {
		t.Errorf("max_tokens = %v, want 3000", payload["max_tokens"])
	}
	msgs, _ := payload["messages"].([]any)
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
}

func TestOpenAIGenerateHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad model","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	client := NewOpenAIClient(OpenAIConfig{BaseURL: server.URL})
	result, err := client.Generate(context.Background(), &GenerateRequest{Prompt: "x"})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if result.ErrorType != ErrorTypeHTTPStatus {
		t.Errorf("ErrorType = %q, want %q", result.ErrorType, ErrorTypeHTTPStatus)
	}
}

func TestOpenAIPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[{"id":"mistral:7b","object":"model","created":1,"owned_by":"library"}]}`))
	}))
	defer server.Close()

	client := NewOpenAIClient(OpenAIConfig{BaseURL: server.URL})
	if err := client.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}
