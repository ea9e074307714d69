package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is a generic sentinel for auth failures.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNoTurns means an extraction selected nothing to extract.
	ErrNoTurns = errors.New("no turns to extract")
	// ErrSessionCompleted is returned for operations that need an active session.
	ErrSessionCompleted = errors.New("session completed")
	// ErrConcurrentExtraction means another extraction advanced the watermark first.
	ErrConcurrentExtraction = errors.New("concurrent extraction for session")
)

// ValidationError describes one schema violation in provider output.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// ParseError wraps malformed or schema-invalid provider output. Raw keeps the
// provider payload for diagnostics.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}
	return "parse extraction output: " + e.Err.Error()
}

func (e *ParseError) Unwrap() error { return e.Err }

// ProviderError is a failed call to an external completion, transcription or
// synthesis provider. Deadline expiry is reported the same way.
type ProviderError struct {
	Provider string
	Op       string
	Err      error
}

func (e *ProviderError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func NewProviderError(provider, op string, err error) error {
	if err == nil {
		return nil
	}
	return &ProviderError{Provider: provider, Op: op, Err: err}
}
