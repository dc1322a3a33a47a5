package providers

import (
	"context"
	"sync"
	"time"
)

// RateLimiter implements a token bucket limiter for backend calls.
type RateLimiter struct {
	mu sync.Mutex

	requestsPerMinute int
	tokens            float64
	lastUpdate        time.Time

	totalConsumed int64
	totalWaited   time.Duration
}

// RateLimiterStatus reports current limiter state.
type RateLimiterStatus struct {
	TokensAvailable int           `json:"tokens_available"`
	TokensLimit     int           `json:"tokens_limit"`
	TotalConsumed   int64         `json:"total_consumed"`
	TotalWaited     time.Duration `json:"total_waited"`
}

// NewRateLimiter creates a limiter that starts with a full bucket.
func NewRateLimiter(requestsPerMinute int) *RateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	return &RateLimiter{
		requestsPerMinute: requestsPerMinute,
		tokens:            float64(requestsPerMinute),
		lastUpdate:        time.Now(),
	}
}

// Wait blocks until a token is available or ctx is cancelled.
func (r *RateLimiter) Wait(ctx context.Context) error {
	for {
		r.mu.Lock()
		r.refill()
		if r.tokens >= 1.0 {
			r.tokens--
			r.totalConsumed++
			r.mu.Unlock()
			return nil
		}
		wait := r.timeUntilToken()
		r.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
			r.mu.Lock()
			r.totalWaited += wait
			r.mu.Unlock()
		}
	}
}

// Status returns current limiter status.
func (r *RateLimiter) Status() RateLimiterStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refill()
	return RateLimiterStatus{
		TokensAvailable: int(r.tokens),
		TokensLimit:     r.requestsPerMinute,
		TotalConsumed:   r.totalConsumed,
		TotalWaited:     r.totalWaited,
	}
}

// Must be called with lock held.
func (r *RateLimiter) refill() {
	now := time.Now()
	elapsed := now.Sub(r.lastUpdate).Seconds()
	r.lastUpdate = now

	r.tokens += elapsed * r.perSecond()
	if r.tokens > float64(r.requestsPerMinute) {
		r.tokens = float64(r.requestsPerMinute)
	}
}

// Must be called with lock held.
func (r *RateLimiter) timeUntilToken() time.Duration {
	needed := 1.0 - r.tokens
	if needed <= 0 {
		return 0
	}
	return time.Duration(needed / r.perSecond() * float64(time.Second))
}

func (r *RateLimiter) perSecond() float64 {
	return float64(r.requestsPerMinute) / 60.0
}

// Throttle wraps g so every Generate call first takes a token from a
// limiter allowing requestsPerMinute calls. Ping is not throttled.
func Throttle(g Generator, requestsPerMinute int) *ThrottledGenerator {
	return &ThrottledGenerator{inner: g, limiter: NewRateLimiter(requestsPerMinute)}
}

// ThrottledGenerator is a rate-limited Generator.
type ThrottledGenerator struct {
	inner   Generator
	limiter *RateLimiter
}

func (t *ThrottledGenerator) Name() string { return t.inner.Name() }

func (t *ThrottledGenerator) Ping(ctx context.Context) error { return t.inner.Ping(ctx) }

// Generate waits for a token, then delegates.
func (t *ThrottledGenerator) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error) {
	start := time.Now()
	if err := t.limiter.Wait(ctx); err != nil {
		result := &GenerateResult{RequestID: req.RequestID, Provider: t.inner.Name()}
		return result.failed(start, ErrorTypeCancelled, err)
	}
	return t.inner.Generate(ctx, req)
}

// Model forwards to the wrapped backend when it reports a model.
func (t *ThrottledGenerator) Model() string {
	if m, ok := t.inner.(interface{ Model() string }); ok {
		return m.Model()
	}
	return ""
}

// Limiter exposes the underlying limiter for status reporting.
func (t *ThrottledGenerator) Limiter() *RateLimiter { return t.limiter }

var _ Generator = (*ThrottledGenerator)(nil)
