package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	pkgerrors "github.com/yungbote/careerkb-backend/internal/pkg/errors"
)

func TestFromError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", fmt.Errorf("session: %w", pkgerrors.ErrNotFound), http.StatusNotFound, "not_found"},
		{"no turns", pkgerrors.ErrNoTurns, http.StatusUnprocessableEntity, "no_turns"},
		{"parse", &pkgerrors.ParseError{Raw: "{", Err: errors.New("eof")}, http.StatusUnprocessableEntity, "extraction_invalid"},
		{"parse wraps validation", &pkgerrors.ParseError{Raw: "{}", Err: &pkgerrors.ValidationError{Field: "module"}}, http.StatusUnprocessableEntity, "extraction_invalid"},
		{"provider", pkgerrors.NewProviderError("openai", "complete", errors.New("boom")), http.StatusBadGateway, "provider_error"},
		{"completed", pkgerrors.ErrSessionCompleted, http.StatusConflict, "session_completed"},
		{"concurrent", pkgerrors.ErrConcurrentExtraction, http.StatusConflict, "extraction_in_progress"},
		{"invalid", fmt.Errorf("%w: speaker", pkgerrors.ErrInvalidArgument), http.StatusBadRequest, "invalid_request"},
		{"unknown", errors.New("db down"), http.StatusInternalServerError, "internal"},
		{"passthrough", New(http.StatusTeapot, "teapot", nil), http.StatusTeapot, "teapot"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := FromError(tc.err)
			if got.Status != tc.status || got.Code != tc.code {
				t.Fatalf("got %d/%s want %d/%s", got.Status, got.Code, tc.status, tc.code)
			}
		})
	}
	if FromError(nil) != nil {
		t.Fatalf("nil error should map to nil")
	}
}
