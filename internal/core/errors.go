package core

import (
	"errors"
	"fmt"
)

var (
	// ErrDataNotReady is returned when a query arrives before the KCC
	// corpus has been embedded.
	ErrDataNotReady = errors.New("KCC data not loaded")

	// ErrInvalidInput is returned for an empty or missing query.
	ErrInvalidInput = errors.New("query is required")

	// ErrGenerateTimeout is returned when the generative model call
	// exceeds the configured deadline.
	ErrGenerateTimeout = errors.New("answer generation timed out")
)

// ExternalServiceError wraps a failure of the embedding or generation
// backend so callers can distinguish it from validation errors.
type ExternalServiceError struct {
	Op  string // "embed" or "generate"
	Err error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("external service failure during %s: %v", e.Op, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }
