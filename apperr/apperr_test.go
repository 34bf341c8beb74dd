package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestCodeOf(t *testing.T) {
	t.Run("direct", func(t *testing.T) {
		if code := CodeOf(New(NotFound, "plan not found")); code != NotFound {
			t.Errorf("expected not-found, got %s", code)
		}
	})

	t.Run("wrapped deeper in the chain", func(t *testing.T) {
		err := fmt.Errorf("handler: %w", New(FailedPrecondition, "out of order"))
		if code := CodeOf(err); code != FailedPrecondition {
			t.Errorf("expected failed-precondition, got %s", code)
		}
	})

	t.Run("uncoded defaults to internal", func(t *testing.T) {
		if code := CodeOf(errors.New("disk full")); code != Internal {
			t.Errorf("expected internal, got %s", code)
		}
	})
}

func TestReasonOf(t *testing.T) {
	if r := ReasonOf(New(InvalidArgument, "missing goal")); r != "missing goal" {
		t.Errorf("unexpected reason: %s", r)
	}
	if r := ReasonOf(errors.New("raw")); r != "internal error" {
		t.Errorf("uncoded errors must not leak their message, got %s", r)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(Internal, cause, "ai request failed")

	if !errors.Is(err, cause) {
		t.Error("wrapped error must unwrap to its cause")
	}
	if !Is(err, Internal) {
		t.Errorf("expected internal, got %s", CodeOf(err))
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{Unauthenticated, http.StatusUnauthorized},
		{InvalidArgument, http.StatusBadRequest},
		{NotFound, http.StatusNotFound},
		{FailedPrecondition, http.StatusConflict},
		{NotConnected, http.StatusPreconditionFailed},
		{Internal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := HTTPStatus(New(tt.code, "x")); got != tt.want {
			t.Errorf("%s: expected %d, got %d", tt.code, tt.want, got)
		}
	}
	if got := HTTPStatus(errors.New("raw")); got != http.StatusInternalServerError {
		t.Errorf("uncoded error: expected 500, got %d", got)
	}
}

func TestIs(t *testing.T) {
	if Is(nil, Internal) {
		t.Error("nil error carries no code")
	}
	if !Is(New(NotConnected, "google calendar not connected"), NotConnected) {
		t.Error("expected not-connected match")
	}
	if Is(New(NotFound, "x"), Internal) {
		t.Error("coded errors must not match other codes")
	}
}
