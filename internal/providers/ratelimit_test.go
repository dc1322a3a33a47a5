package providers

import (
	"context"
	"testing"
	"time"
)

func TestRateLimiter_Wait(t *testing.T) {
	rl := NewRateLimiter(2)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := rl.Wait(ctx); err != nil {
			t.Fatalf("Wait() #%d error = %v", i, err)
		}
	}

	status := rl.Status()
	if status.TokensAvailable != 0 {
		t.Errorf("TokensAvailable = %d, want 0", status.TokensAvailable)
	}
	if status.TotalConsumed != 2 {
		t.Errorf("TotalConsumed = %d, want 2", status.TotalConsumed)
	}

	// Bucket is empty and refills at 2/min, so a short deadline must expire.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := rl.Wait(ctx); err == nil {
		t.Error("expected deadline error on empty bucket")
	}
}

func TestThrottle(t *testing.T) {
	mock := NewMockClient()
	mock.ResponseText = "ok"
	g := Throttle(mock, 1)

	res, err := g.Generate(context.Background(), &GenerateRequest{Prompt: "a"})
	if err != nil || res.Content != "ok" {
		t.Fatalf("Generate() = %+v, %v", res, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	res, err = g.Generate(ctx, &GenerateRequest{Prompt: "b"})
	if err == nil {
		t.Fatal("expected throttled call to fail on deadline")
	}
	if res.ErrorType != ErrorTypeCancelled {
		t.Errorf("ErrorType = %q, want %q", res.ErrorType, ErrorTypeCancelled)
	}
	if mock.RequestCount() != 1 {
		t.Errorf("backend saw %d requests, want 1", mock.RequestCount())
	}
	if g.Name() != MockClientName {
		t.Errorf("Name() = %q", g.Name())
	}
}
