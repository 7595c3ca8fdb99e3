package llm

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrEmptyAPIKey is returned when a client is built without credentials.
	ErrEmptyAPIKey = errors.New("API key cannot be empty")
	// ErrEmptyResponse is returned when a provider reply carries no text.
	ErrEmptyResponse = errors.New("empty response from provider")
	// ErrNoResponseChoice is returned when a chat completion has no choices.
	ErrNoResponseChoice = errors.New("no response choices returned")
	// ErrInvalidBaseURL is returned for endpoint overrides that are not
	// absolute http(s) URLs.
	ErrInvalidBaseURL = errors.New("base URL must be an absolute http or https URL")
)

// ErrorType categorizes provider failures for retry decisions.
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeAuthentication
	ErrorTypeRateLimit
	ErrorTypeBadRequest
	ErrorTypeNotFound
	ErrorTypeServerError
	ErrorTypeContentPolicy
	ErrorTypeNetwork
	ErrorTypeTimeout
)

// String returns the snake_case name of the error type.
func (t ErrorType) String() string {
	switch t {
	case ErrorTypeAuthentication:
		return "authentication"
	case ErrorTypeRateLimit:
		return "rate_limit"
	case ErrorTypeBadRequest:
		return "bad_request"
	case ErrorTypeNotFound:
		return "not_found"
	case ErrorTypeServerError:
		return "server_error"
	case ErrorTypeContentPolicy:
		return "content_policy"
	case ErrorTypeNetwork:
		return "network"
	case ErrorTypeTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// ProviderError normalizes provider-specific failures into one shape a
// retry policy can reason about.
type ProviderError struct {
	Type       ErrorType
	Provider   string
	StatusCode int
	Message    string
	Wrapped    error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("%s error [%s]", e.Provider, e.Type)
	if e.StatusCode > 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() error { return e.Wrapped }

// IsRetryable reports whether the failure is plausibly transient.
func (e *ProviderError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeRateLimit, ErrorTypeServerError, ErrorTypeNetwork, ErrorTypeTimeout:
		return true
	}
	return false
}

// NewProviderError builds a classified provider error.
func NewProviderError(provider string, errType ErrorType, statusCode int, message string, wrapped error) *ProviderError {
	return &ProviderError{
		Type:       errType,
		Provider:   provider,
		StatusCode: statusCode,
		Message:    message,
		Wrapped:    wrapped,
	}
}

// classifyHTTPError maps an HTTP status to a ProviderError.
func classifyHTTPError(provider string, statusCode int, message string, err error) *ProviderError {
	var errType ErrorType
	switch {
	case statusCode == 401 || statusCode == 403:
		errType = ErrorTypeAuthentication
		message = "authentication failed"
	case statusCode == 429:
		errType = ErrorTypeRateLimit
		message = "rate limit exceeded"
	case statusCode == 404:
		errType = ErrorTypeNotFound
	case statusCode >= 500:
		errType = ErrorTypeServerError
	case statusCode >= 400:
		errType = ErrorTypeBadRequest
	default:
		errType = ErrorTypeUnknown
	}
	return NewProviderError(provider, errType, statusCode, message, err)
}

// classifyContextError maps cancellation and deadline errors.
func classifyContextError(provider string, err error) *ProviderError {
	if errors.Is(err, context.DeadlineExceeded) {
		return NewProviderError(provider, ErrorTypeTimeout, 0, "request deadline exceeded", err)
	}
	return NewProviderError(provider, ErrorTypeNetwork, 0, "request canceled", err)
}

func isContextError(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
