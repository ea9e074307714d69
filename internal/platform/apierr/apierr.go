package apierr

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	pkgerrors "github.com/yungbote/careerkb-backend/internal/pkg/errors"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// FromError maps a service error onto an HTTP status and code.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}

	var (
		parseErr    *pkgerrors.ParseError
		validErr    *pkgerrors.ValidationError
		providerErr *pkgerrors.ProviderError
	)
	switch {
	case errors.Is(err, pkgerrors.ErrNotFound):
		return New(http.StatusNotFound, "not_found", err)
	case errors.Is(err, pkgerrors.ErrUnauthorized):
		return New(http.StatusUnauthorized, "unauthorized", err)
	case errors.Is(err, pkgerrors.ErrNoTurns):
		return New(http.StatusUnprocessableEntity, "no_turns", err)
	case errors.Is(err, pkgerrors.ErrSessionCompleted):
		return New(http.StatusConflict, "session_completed", err)
	case errors.Is(err, pkgerrors.ErrConcurrentExtraction):
		return New(http.StatusConflict, "extraction_in_progress", err)
	case errors.As(err, &parseErr):
		return New(http.StatusUnprocessableEntity, "extraction_invalid", err)
	case errors.As(err, &providerErr):
		return New(http.StatusBadGateway, "provider_error", err)
	case errors.As(err, &validErr), errors.Is(err, pkgerrors.ErrInvalidArgument):
		return New(http.StatusBadRequest, "invalid_request", err)
	case errors.Is(err, context.DeadlineExceeded):
		return New(http.StatusGatewayTimeout, "timeout", err)
	default:
		return New(http.StatusInternalServerError, "internal", err)
	}
}
