package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestOllamaGenerateSuccess(t *testing.T) {
	var payload ollamaGenerateRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(ollamaGenerateResponse{
			Model:           "mistral:7b",
			Response:        "1. Foo\n2. Bar",
			Done:            true,
			PromptEvalCount: 12,
			EvalCount:       8,
		})
	}))
	defer server.Close()

	client := NewOllamaClient(OllamaConfig{BaseURL: server.URL})

	result, err := client.Generate(context.Background(), &GenerateRequest{
		Prompt: "outline please",
		Options: Options{
			Temperature: 0.7,
			TopP:        0.9,
			MaxTokens:   3000,
			Stop:        []string{"\n\n\n\n"},
		},
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !result.Success {
		t.Fatal("expected success result")
	}
	if result.Content != "1. Foo\n2. Bar" {
		t.Errorf("Content = %q", result.Content)
	}
	if result.TotalTokens != 20 {
		t.Errorf("TotalTokens = %d, want 20", result.TotalTokens)
	}
	if result.RequestID == "" {
		t.Error("expected generated request id")
	}

	if payload.Model != OllamaDefaultModel {
		t.Errorf("model = %q, want %q", payload.Model, OllamaDefaultModel)
	}
	if payload.Stream {
		t.Error("expected stream=false")
	}
	if payload.Options.NumPredict != 3000 {
		t.Errorf("num_predict = %d, want 3000", payload.Options.NumPredict)
	}
	if len(payload.Options.Stop) != 1 || payload.Options.Stop[0] != "\n\n\n\n" {
		t.Errorf("stop = %q", payload.Options.Stop)
	}
}

func TestOllamaGenerateFailures(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		wantType string
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "model not found", http.StatusNotFound)
			},
			wantType: ErrorTypeHTTPStatus,
		},
		{
			name: "malformed payload",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("{not json"))
			},
			wantType: ErrorTypeDecode,
		},
		{
			name: "empty response",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"response":"   ","done":true}`))
			},
			wantType: ErrorTypeEmptyResponse,
		},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, r *http.Request) {
				time.Sleep(200 * time.Millisecond)
				_, _ = w.Write([]byte(`{"response":"late"}`))
			},
			wantType: ErrorTypeTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			client := NewOllamaClient(OllamaConfig{BaseURL: server.URL, Timeout: 50 * time.Millisecond})
			result, err := client.Generate(context.Background(), &GenerateRequest{Prompt: "x"})
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if result == nil || result.Success {
				t.Fatalf("expected failed result, got %+v", result)
			}
			if result.ErrorType != tt.wantType {
				t.Errorf("ErrorType = %q, want %q", result.ErrorType, tt.wantType)
			}
		})
	}
}

func TestOllamaPing(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/tags" {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}
			_, _ = w.Write([]byte(`{"models":[]}`))
		}))
		defer server.Close()

		client := NewOllamaClient(OllamaConfig{BaseURL: server.URL + "/"})
		if err := client.Ping(context.Background()); err != nil {
			t.Errorf("Ping() error = %v", err)
		}
	})

	t.Run("unreachable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := server.URL
		server.Close()

		client := NewOllamaClient(OllamaConfig{BaseURL: url, Timeout: time.Second})
		if err := client.Ping(context.Background()); err == nil {
			t.Error("expected error for closed server")
		}
	})

	t.Run("non-200", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		client := NewOllamaClient(OllamaConfig{BaseURL: server.URL})
		if err := client.Ping(context.Background()); err == nil {
			t.Error("expected error for 503")
		}
	})
}
