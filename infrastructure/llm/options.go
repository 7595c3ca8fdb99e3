package llm

import (
	"net/url"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Parameter bounds shared across providers.
const (
	// DefaultMaxTokens bounds completion length when the caller does not
	// set one.
	DefaultMaxTokens = 1024

	// MinTemperature and MaxTemperature span the widest range any of the
	// supported providers accepts.
	MinTemperature = 0.0
	MaxTemperature = 2.0

	MinTopP = 0.0
	MaxTopP = 1.0
)

// ResponseFormatJSON asks the provider to emit a single JSON object.
// Providers without native structured output ignore the hint; the
// prompt still instructs the model to reply with JSON.
const ResponseFormatJSON = "json_object"

// RequestOptions is the provider-neutral view of one request's tunables.
type RequestOptions struct {
	Model     string `validate:"required"`
	MaxTokens int    `validate:"gt=0"`

	// Temperature and TopP are nil when the provider default applies.
	Temperature *float64 `validate:"omitempty,gte=0,lte=2"`
	TopP        *float64 `validate:"omitempty,gte=0,lte=1"`

	// System carries a system prompt for providers that support one.
	System string

	// ResponseFormat is "json_object" to request structured output.
	ResponseFormat string

	// Extra holds provider-specific options not covered above.
	Extra map[string]any
}

var (
	optionsValidator     *validator.Validate
	optionsValidatorOnce sync.Once
)

// Validate checks the parsed options against provider-neutral bounds.
func (o RequestOptions) Validate() error {
	optionsValidatorOnce.Do(func() {
		optionsValidator = validator.New(validator.WithRequiredStructEnabled())
	})
	return optionsValidator.Struct(o)
}

// ParseRequestOptions normalizes a raw options map. Missing or
// out-of-range entries fall back to defaults; unrecognized keys land in
// Extra for provider-specific handling.
func ParseRequestOptions(opts map[string]any, defaultModel string) RequestOptions {
	options := RequestOptions{
		Model:          stringOpt(opts, "model", defaultModel),
		MaxTokens:      intOpt(opts, "max_tokens", DefaultMaxTokens),
		System:         stringOpt(opts, "system", ""),
		ResponseFormat: stringOpt(opts, "response_format", ""),
		Extra:          make(map[string]any),
	}

	if t, ok := floatOpt(opts, "temperature"); ok && t >= MinTemperature && t <= MaxTemperature {
		options.Temperature = &t
	}
	if p, ok := floatOpt(opts, "top_p"); ok && p >= MinTopP && p <= MaxTopP {
		options.TopP = &p
	}

	for k, v := range opts {
		switch k {
		case "model", "max_tokens", "system", "response_format", "temperature", "top_p":
		default:
			options.Extra[k] = v
		}
	}

	return options
}

func stringOpt(opts map[string]any, key, fallback string) string {
	if s, ok := opts[key].(string); ok && s != "" {
		return s
	}
	return fallback
}

func intOpt(opts map[string]any, key string, fallback int) int {
	switch v := opts[key].(type) {
	case int:
		if v > 0 {
			return v
		}
	case float64:
		// JSON decoding yields float64 for numbers.
		if v > 0 {
			return int(v)
		}
	}
	return fallback
}

func floatOpt(opts map[string]any, key string) (float64, bool) {
	switch v := opts[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ValidateBaseURL checks that an endpoint override is an absolute http
// or https URL. Empty means the provider default and is valid.
func ValidateBaseURL(baseURL string) (string, error) {
	if baseURL == "" {
		return "", nil
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", ErrInvalidBaseURL
	}
	if parsed.Host == "" {
		return "", ErrInvalidBaseURL
	}
	return parsed.String(), nil
}
