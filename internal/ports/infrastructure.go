package ports

import (
	"context"
	"time"
)

// LLMClient is the interface the judge uses to reach a language model
// provider. Implementations handle authentication, request formatting,
// retries, and response parsing.
type LLMClient interface {
	// Complete sends a prompt and returns the generated text.
	// The options map carries provider-tunable settings; the judge sends
	// "temperature", "max_tokens", and "response_format".
	Complete(ctx context.Context, prompt string, options map[string]any) (string, error)

	// CompleteWithUsage behaves like Complete and additionally returns
	// input and output token counts for cost accounting.
	CompleteWithUsage(ctx context.Context, prompt string, options map[string]any) (string, int, int, error)

	// EstimateTokens approximates the token count of a text.
	EstimateTokens(text string) (int, error)

	// GetModel returns the model identifier used by this client.
	GetModel() string
}

// CacheStore is a generic keyed store used to memoize judge verdicts.
// Implementations must be safe for concurrent use.
type CacheStore interface {
	// Get retrieves a cached value by key, reporting whether it existed.
	Get(ctx context.Context, key string) (any, bool, error)

	// Set stores a value under a key. A zero expiration means the entry
	// does not expire.
	Set(ctx context.Context, key string, value any, expiration time.Duration) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Clear removes every entry.
	Clear(ctx context.Context) error
}

// MetricsCollector receives operational metrics from the pipeline.
// Implementations integrate with Prometheus or other monitoring stacks.
type MetricsCollector interface {
	// RecordLatency records the execution time of an operation.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter metric.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordGauge sets the current value of a gauge metric.
	RecordGauge(metric string, value float64, labels map[string]string)

	// RecordHistogram records a value in a histogram.
	RecordHistogram(metric string, value float64, labels map[string]string)
}
