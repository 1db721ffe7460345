package ratelimiter

import (
	"context"
	"errors"
	"testing"
	"time"

	"consultlink.id/forum/pkg/apperror"
	"github.com/google/uuid"
)

func TestNilClientAlwaysAllows(t *testing.T) {
	c := NewCooldowns(nil, time.Second, map[Scope]time.Duration{ScopeThread: time.Minute})
	for i := 0; i < 3; i++ {
		release, err := c.Acquire(context.Background(), uuid.New(), ScopeThread)
		if err != nil {
			t.Fatalf("acquire %d: %v", i, err)
		}
		release()
	}

	var nilCooldowns *Cooldowns
	if _, err := nilCooldowns.Acquire(context.Background(), uuid.New(), ScopeReport); err != nil {
		t.Fatalf("nil cooldowns: %v", err)
	}
}

func TestRateLimitErrorUnwraps(t *testing.T) {
	err := &RateLimitError{Message: "slow down", RetryAfter: time.Second}
	if !errors.Is(err, apperror.ErrRateLimitExceeded) {
		t.Fatal("RateLimitError should unwrap to ErrRateLimitExceeded")
	}
	if apperror.MapErrorToStatus(err) != 429 {
		t.Fatalf("status = %d", apperror.MapErrorToStatus(err))
	}
}
