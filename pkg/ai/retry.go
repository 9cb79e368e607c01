package ai

import (
	"context"
	"strings"
	"time"
)

// RetryGenerator wraps a TextGenerator with bounded retries for transient
// provider failures (rate limits, 5xx). Non-retryable errors return
// immediately.
type RetryGenerator struct {
	inner    TextGenerator
	attempts int
	backoff  time.Duration
}

// NewRetryGenerator wraps gen with up to attempts tries and linear backoff.
func NewRetryGenerator(gen TextGenerator, attempts int, backoff time.Duration) *RetryGenerator {
	if attempts <= 0 {
		attempts = 3
	}
	if backoff <= 0 {
		backoff = 2 * time.Second
	}
	return &RetryGenerator{inner: gen, attempts: attempts, backoff: backoff}
}

// GenerateText implements TextGenerator.
func (r *RetryGenerator) GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		text, err := r.inner.GenerateText(ctx, systemPrompt, userPrompt)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !isRetryable(err) {
			return "", err
		}
		if attempt == r.attempts {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(time.Duration(attempt) * r.backoff):
		}
	}
	return "", lastErr
}

func isRetryable(err error) bool {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429"),
		strings.Contains(msg, "rate limit"),
		strings.Contains(msg, "resource_exhausted"),
		strings.Contains(msg, "overloaded"),
		strings.Contains(msg, "503"),
		strings.Contains(msg, "500"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "unavailable"):
		return true
	}
	return false
}
