package llm

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/gurenolun/fly-eval/internal/ports"
)

// Retry defaults.
const (
	DefaultMaxAttempts   = 3
	DefaultBaseDelay     = 1 * time.Second
	DefaultMaxDelay      = 30 * time.Second
	DefaultJitterPercent = 0.1
)

// RetryConfig controls exponential backoff for transient failures.
type RetryConfig struct {
	// MaxAttempts is the number of retries after the initial call.
	MaxAttempts int

	// BaseDelay seeds the exponential backoff.
	BaseDelay time.Duration

	// MaxDelay caps the backoff.
	MaxDelay time.Duration

	// JitterPercent randomizes each delay by up to this fraction in
	// either direction, in [0, 1].
	JitterPercent float64
}

// DefaultRetryConfig returns the default backoff settings.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   DefaultMaxAttempts,
		BaseDelay:     DefaultBaseDelay,
		MaxDelay:      DefaultMaxDelay,
		JitterPercent: DefaultJitterPercent,
	}
}

var _ ports.LLMClient = (*RetryingLLMClient)(nil)

// RetryingLLMClient retries transient failures of a wrapped client with
// exponential backoff and jitter. Safe for concurrent use.
type RetryingLLMClient struct {
	client ports.LLMClient
	config RetryConfig
}

// NewRetryingLLMClient wraps a client with retry behavior.
func NewRetryingLLMClient(client ports.LLMClient, config RetryConfig) *RetryingLLMClient {
	return &RetryingLLMClient{client: client, config: config}
}

// Complete retries the wrapped Complete on transient errors.
func (r *RetryingLLMClient) Complete(ctx context.Context, prompt string, options map[string]any) (string, error) {
	response, _, _, err := r.CompleteWithUsage(ctx, prompt, options)
	return response, err
}

// CompleteWithUsage retries the wrapped call on transient errors,
// returning the first success or the last failure.
func (r *RetryingLLMClient) CompleteWithUsage(
	ctx context.Context,
	prompt string,
	options map[string]any,
) (string, int, int, error) {
	var lastErr error
	for attempt := 0; attempt <= r.config.MaxAttempts; attempt++ {
		response, tokensIn, tokensOut, err := r.client.CompleteWithUsage(ctx, prompt, options)
		if err == nil {
			return response, tokensIn, tokensOut, nil
		}

		lastErr = err
		if attempt == r.config.MaxAttempts || !isRetryableError(err) {
			break
		}

		select {
		case <-ctx.Done():
			return "", 0, 0, fmt.Errorf("canceled during retry: %w", ctx.Err())
		case <-time.After(r.retryDelay(attempt)):
		}
	}

	return "", 0, 0, fmt.Errorf("call failed after %d attempts: %w", r.config.MaxAttempts+1, lastErr)
}

// EstimateTokens delegates to the wrapped client without retries.
func (r *RetryingLLMClient) EstimateTokens(text string) (int, error) {
	return r.client.EstimateTokens(text)
}

// GetModel delegates to the wrapped client.
func (r *RetryingLLMClient) GetModel() string { return r.client.GetModel() }

// isRetryableError prefers the classified provider error; for anything
// else it falls back to message patterns, since errors crossing the
// ports boundary may have lost their type.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.IsRetryable()
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"rate limit", "too many requests", "timeout", "connection refused",
		"connection reset", "temporary failure", "service unavailable",
		"internal server error", "bad gateway", "gateway timeout",
	} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

func (r *RetryingLLMClient) retryDelay(attempt int) time.Duration {
	delay := r.config.BaseDelay * time.Duration(1<<attempt)
	if delay > r.config.MaxDelay {
		delay = r.config.MaxDelay
	}

	jitter := int64(float64(delay) * r.config.JitterPercent)
	if jitter > 0 {
		//nolint:gosec // G404: timing jitter does not need crypto randomness.
		delay += time.Duration(rand.Int64N(2*jitter) - jitter)
	}

	if delay < r.config.BaseDelay {
		return r.config.BaseDelay
	}
	return delay
}
