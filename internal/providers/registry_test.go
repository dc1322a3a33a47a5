package providers

import (
	"context"
	"testing"
	"time"
)

func TestRegistry_RegisterAndActive(t *testing.T) {
	r := NewRegistry()

	if _, _, err := r.Active(); err == nil {
		t.Error("expected error with no backends")
	}
	if r.Name() != "none" {
		t.Errorf("Name() = %q, want none", r.Name())
	}

	first := NewMockClient()
	first.ResponseText = "first"
	second := NewMockClient()
	second.ResponseText = "second"

	r.Register("a", first)
	r.Register("b", second)

	name, _, err := r.Active()
	if err != nil {
		t.Fatalf("Active() error = %v", err)
	}
	if name != "a" {
		t.Errorf("active = %q, want a (first registered)", name)
	}

	if err := r.SetActive("b"); err != nil {
		t.Fatalf("SetActive() error = %v", err)
	}
	res, err := r.Generate(context.Background(), &GenerateRequest{Prompt: "x"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if res.Content != "second" {
		t.Errorf("Content = %q, want second", res.Content)
	}

	if err := r.SetActive("missing"); err == nil {
		t.Error("expected error for unknown backend")
	}

	names := r.List()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("List() = %v", names)
	}
}

func TestRegistry_GenerateWithoutBackend(t *testing.T) {
	r := NewRegistry()
	res, err := r.Generate(context.Background(), &GenerateRequest{Prompt: "x"})
	if err == nil {
		t.Fatal("expected error")
	}
	if res.Success || res.ErrorType != ErrorTypeConnection {
		t.Errorf("unexpected result: %+v", res)
	}
	if err := r.Ping(context.Background()); err == nil {
		t.Error("expected Ping error")
	}
}

func TestRegistry_Reload(t *testing.T) {
	cfg := RegistryConfig{
		Active: "local",
		Backends: map[string]BackendConfig{
			"local":  {Type: OllamaName, BaseURL: "http://localhost:11434", Model: "mistral:7b", Timeout: time.Minute, Enabled: true},
			"compat": {Type: OpenAIName, BaseURL: "http://localhost:11434/v1", Model: "llama3", Enabled: true},
			"off":    {Type: OllamaName, Enabled: false},
			"weird":  {Type: "carrier-pigeon", Enabled: true},
		},
	}

	r := NewRegistryFromConfig(cfg)

	names := r.List()
	if len(names) != 2 {
		t.Fatalf("List() = %v, want 2 backends", names)
	}
	if r.Name() != OllamaName {
		t.Errorf("Name() = %q, want %q", r.Name(), OllamaName)
	}
	if r.Model() != "mistral:7b" {
		t.Errorf("Model() = %q, want mistral:7b", r.Model())
	}

	before, _ := r.Get("compat")

	// Switch active, change the local model, drop compat.
	cfg2 := RegistryConfig{
		Active: "local",
		Backends: map[string]BackendConfig{
			"local": {Type: OllamaName, BaseURL: "http://localhost:11434", Model: "llama3:8b", Timeout: time.Minute, Enabled: true},
		},
	}
	r.Reload(cfg2)

	if r.Model() != "llama3:8b" {
		t.Errorf("Model() after reload = %q, want llama3:8b", r.Model())
	}
	if _, err := r.Get("compat"); err == nil {
		t.Error("expected compat to be unregistered")
	}
	if before == nil {
		t.Error("expected compat backend before reload")
	}

	// Unchanged config keeps the same instance.
	local1, _ := r.Get("local")
	r.Reload(cfg2)
	local2, _ := r.Get("local")
	if local1 != local2 {
		t.Error("expected unchanged backend to be reused")
	}
}
