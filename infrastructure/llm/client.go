// Package llm adapts hosted language model providers (OpenAI, Anthropic,
// Google) to the ports.LLMClient interface the judge consumes. Providers
// sit behind a small CoreLLM interface so cross-cutting concerns such as
// rate limiting, timeouts, metrics, and tracing compose as middleware
// without touching provider code.
//
// The judge needs deterministic, machine-parseable output, so the request
// options carry a response format hint ("json_object") that each provider
// maps to its native structured-output mechanism where one exists.
//
// Basic usage:
//
//	client, err := llm.NewClient("openai", llm.ClientConfig{
//	    APIKey: os.Getenv("OPENAI_API_KEY"),
//	    Model:  "gpt-4o",
//	    Middleware: []llm.Middleware{
//	        llm.RateLimitMiddleware(10, 20),
//	        llm.TimeoutMiddleware(60 * time.Second),
//	    },
//	})
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/gurenolun/fly-eval/internal/ports"
)

// CoreLLM is the minimal surface a provider must implement. Middleware
// wraps any conforming implementation.
type CoreLLM interface {
	// DoRequest sends a prompt and returns the response text plus input
	// and output token counts. The opts map carries tunables such as
	// "temperature", "max_tokens", and "response_format".
	DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error)

	// GetModel returns the configured model name.
	GetModel() string

	// SetModel switches the model for subsequent requests.
	SetModel(model string)
}

// Middleware wraps a CoreLLM to add behavior around requests.
type Middleware func(CoreLLM) CoreLLM

// TokenEstimator approximates token counts for budgeting when the
// provider has not reported exact usage.
type TokenEstimator interface {
	EstimateTokens(text string) int
}

// ClientConfig configures a provider-backed client.
type ClientConfig struct {
	// APIKey authenticates against the provider.
	APIKey string

	// Model names the model to call. Empty selects the provider default.
	Model string

	// BaseURL overrides the provider endpoint, for proxies and
	// compatible gateways. Empty uses the provider default.
	BaseURL string

	// Timeout bounds individual HTTP requests at the transport level.
	// Zero means no transport timeout.
	Timeout time.Duration

	// TokenEstimator replaces the default character heuristic.
	TokenEstimator TokenEstimator

	// Middleware is applied in order, first entry outermost.
	Middleware []Middleware
}

// Client adapts a middleware-wrapped CoreLLM to ports.LLMClient.
type Client struct {
	core      CoreLLM
	estimator TokenEstimator
}

var _ ports.LLMClient = (*Client)(nil)

// NewClient builds a client for a registered provider, wrapping it with
// the configured middleware chain.
func NewClient(providerType string, config ClientConfig) (ports.LLMClient, error) {
	if config.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}

	factory, ok := providerFactories[providerType]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q", providerType)
	}

	core, err := factory(config)
	if err != nil {
		return nil, fmt.Errorf("create %s provider: %w", providerType, err)
	}

	// Reverse application keeps the first configured middleware outermost.
	for i := len(config.Middleware) - 1; i >= 0; i-- {
		core = config.Middleware[i](core)
	}

	estimator := config.TokenEstimator
	if estimator == nil {
		estimator = CharTokenEstimator{}
	}

	return &Client{core: core, estimator: estimator}, nil
}

// Complete sends a prompt and returns the response text, discarding
// usage counts.
func (c *Client) Complete(ctx context.Context, prompt string, options map[string]any) (string, error) {
	response, _, _, err := c.CompleteWithUsage(ctx, prompt, options)
	return response, err
}

// CompleteWithUsage sends a prompt and returns the response text along
// with input and output token counts.
func (c *Client) CompleteWithUsage(
	ctx context.Context,
	prompt string,
	options map[string]any,
) (string, int, int, error) {
	return c.core.DoRequest(ctx, prompt, options)
}

// EstimateTokens approximates the token count of a text.
func (c *Client) EstimateTokens(text string) (int, error) {
	return c.estimator.EstimateTokens(text), nil
}

// GetModel returns the underlying provider's model name.
func (c *Client) GetModel() string { return c.core.GetModel() }

// CharTokenEstimator approximates tokens at four characters apiece,
// a workable heuristic for English prose and JSON alike.
type CharTokenEstimator struct{}

func (CharTokenEstimator) EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}

// ProviderFactory builds a CoreLLM from configuration.
type ProviderFactory func(ClientConfig) (CoreLLM, error)

var providerFactories = map[string]ProviderFactory{}

// RegisterProviderFactory installs a provider under a name. Providers in
// this package register themselves in init; external providers may
// register before building clients.
func RegisterProviderFactory(providerType string, factory ProviderFactory) {
	providerFactories[providerType] = factory
}
