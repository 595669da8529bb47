package errno

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrnoIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("compose: %w", Forbidden("not a leader of %s", "Chess Club"))

	if !errors.Is(err, ErrForbidden) {
		t.Error("Expected errors.Is to match forbidden kind")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("Forbidden error should not match not_found")
	}
}

func TestFromWrapsUnknownErrors(t *testing.T) {
	e := From(errors.New("connection refused"))
	if e.Kind != KindStoreUnavailable {
		t.Errorf("Expected store_unavailable, got %s", e.Kind)
	}
	if e.Status() != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", e.Status())
	}
	if From(nil) != nil {
		t.Error("From(nil) should be nil")
	}
}

func TestStatusMapping(t *testing.T) {
	cases := map[*Errno]int{
		ErrUnauthenticated: http.StatusUnauthorized,
		ErrForbidden:       http.StatusForbidden,
		ErrValidation:      http.StatusBadRequest,
		ErrNotFound:        http.StatusNotFound,
		ErrRateLimited:     http.StatusTooManyRequests,
	}
	for e, want := range cases {
		if got := e.Status(); got != want {
			t.Errorf("%s: expected %d, got %d", e.Kind, want, got)
		}
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(Store(errors.New("timeout"))) {
		t.Error("store errors should be retryable")
	}
	if IsRetryable(Validation("empty message")) {
		t.Error("validation errors must not be retried")
	}
	if IsRetryable(nil) {
		t.Error("nil is not retryable")
	}
}
