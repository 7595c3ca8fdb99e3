package domain

import "errors"

// Common domain errors returned by evaluation operations.
var (
	// ErrEmptyResponse indicates a model output with no response text.
	ErrEmptyResponse = errors.New("empty response text")

	// ErrUnknownTask indicates a task identifier outside S1, M1, M3.
	ErrUnknownTask = errors.New("unknown task id")

	// ErrSampleMismatch indicates a model output paired with the wrong sample.
	ErrSampleMismatch = errors.New("model output does not match sample")

	// ErrInvalidConfiguration indicates incomplete or invalid configuration.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)
