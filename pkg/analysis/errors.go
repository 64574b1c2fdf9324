package analysis

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions.
var (
	// ErrNoAPIKey is returned when the API key is missing.
	ErrNoAPIKey = errors.New("analysis: API key required")

	// ErrEmptyFrame is returned when Analyze is called without frame data.
	ErrEmptyFrame = errors.New("analysis: empty frame")

	// ErrBadFrame is returned when a data URL payload cannot be decoded.
	ErrBadFrame = errors.New("analysis: malformed frame payload")

	// ErrEmptyResponse is returned when the model reply carries no body.
	ErrEmptyResponse = errors.New("analysis: empty model response")

	// ErrMissingSafetyLevel is returned when the reply omits the verdict.
	ErrMissingSafetyLevel = errors.New("analysis: reply missing safety level")
)

// ParseError reports a model reply that failed to decode against the
// response schema. The raw reply is retained for the observability sink;
// no semantic repair is attempted.
type ParseError struct {
	// Raw is the reply body as received.
	Raw string

	// Err is the underlying decode failure.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("analysis: unparsable model reply: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// RequestError wraps a transport-level failure talking to the model.
type RequestError struct {
	Err error
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	return fmt.Sprintf("analysis: request failed: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *RequestError) Unwrap() error {
	return e.Err
}
