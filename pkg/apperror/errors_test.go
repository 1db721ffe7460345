package apperror

import (
	"fmt"
	"net/http"
	"testing"
)

func TestMapErrorToStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("thread not found: %w", ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("cannot vote on your own content: %w", ErrForbidden), http.StatusForbidden},
		{fmt.Errorf("title too short: %w", ErrInvalidInput), http.StatusBadRequest},
		{fmt.Errorf("already reported: %w", ErrConflict), http.StatusConflict},
		{fmt.Errorf("slow down: %w", ErrRateLimitExceeded), http.StatusTooManyRequests},
		{New(http.StatusTeapot, "teapot", nil), http.StatusTeapot},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		if got := MapErrorToStatus(tc.err); got != tc.want {
			t.Errorf("MapErrorToStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestMessageStripsSentinel(t *testing.T) {
	err := fmt.Errorf("you have already reported this content: %w", ErrConflict)
	if got := Message(err); got != "you have already reported this content" {
		t.Fatalf("Message() = %q", got)
	}

	if got := Message(ErrNotFound); got != "resource not found" {
		t.Fatalf("Message(sentinel) = %q", got)
	}
}
