package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindMapping(t *testing.T) {
	cases := []struct {
		err    *Error
		status int
		name   string
	}{
		{NotFound("x"), http.StatusNotFound, "not_found"},
		{Validation("x"), http.StatusBadRequest, "validation"},
		{RateLimited("x"), http.StatusTooManyRequests, "rate_limited"},
		{Unavailable("x"), http.StatusBadGateway, "unavailable"},
		{Internal("x"), http.StatusInternalServerError, "internal"},
		{New(Kind(99), "x"), http.StatusBadRequest, "unknown"},
	}

	for _, tc := range cases {
		if got := tc.err.HTTPStatus(); got != tc.status {
			t.Fatalf("%s: expected status %d, got %d", tc.name, tc.status, got)
		}
		if got := tc.err.Kind.String(); got != tc.name {
			t.Fatalf("expected kind name %q, got %q", tc.name, got)
		}
	}
}

func TestWrapKeepsCauseReachable(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("update: %w", Wrap(KindUnavailable, "record store unreachable", cause).WithOp("records.Update"))

	if !errors.Is(err, cause) {
		t.Fatalf("expected cause in chain")
	}
	if !Is(err, KindUnavailable) {
		t.Fatalf("expected unavailable kind, got %v", GetKind(err))
	}
	if got := UserMessage(err); got != "record store unreachable" {
		t.Fatalf("expected user message, got %q", got)
	}
	if got := UserMessage(errors.New("plain")); got != "plain" {
		t.Fatalf("expected plain error text, got %q", got)
	}
}
