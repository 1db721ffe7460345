package ratelimiter

import (
	"context"
	"fmt"
	"time"

	"consultlink.id/forum/pkg/apperror"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

type Scope string

const (
	ScopeGlobal  Scope = "global"
	ScopeThread  Scope = "thread"
	ScopeComment Scope = "comment"
	ScopeReport  Scope = "report"
)

// RateLimitError carries the remaining cooldown so handlers can set Retry-After.
type RateLimitError struct {
	Message    string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return e.Message
}

func (e *RateLimitError) Unwrap() error {
	return apperror.ErrRateLimitExceeded
}

func CheckAndSetRateLimit(ctx context.Context, rdb *redis.Client, userID uuid.UUID, scope Scope, limit time.Duration) (bool, error) {
	if rdb == nil || limit <= 0 {
		return true, nil
	}

	wasSet, err := rdb.SetNX(ctx, key(userID, scope), "locked", limit).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit in redis: %w", err)
	}

	return wasSet, nil
}

func GetRateLimitTTL(ctx context.Context, rdb *redis.Client, userID uuid.UUID, scope Scope) (time.Duration, error) {
	if rdb == nil {
		return 0, nil
	}
	return rdb.TTL(ctx, key(userID, scope)).Result()
}

func ClearRateLimit(ctx context.Context, rdb *redis.Client, userID uuid.UUID, scope Scope) error {
	if rdb == nil {
		return nil
	}
	_, err := rdb.Del(ctx, key(userID, scope)).Result()
	return err
}

func key(userID uuid.UUID, scope Scope) string {
	return fmt.Sprintf("rate_limit:user:%s:%s", userID.String(), scope)
}

// Cooldowns combines a short global cooldown with a per-scope one.
// A nil redis client disables limiting entirely.
type Cooldowns struct {
	rdb    *redis.Client
	global time.Duration
	scoped map[Scope]time.Duration
}

func NewCooldowns(rdb *redis.Client, global time.Duration, scoped map[Scope]time.Duration) *Cooldowns {
	return &Cooldowns{rdb: rdb, global: global, scoped: scoped}
}

// Acquire sets both cooldown keys for the user. The returned release func clears them again
// and must be called when the guarded action fails, so a failed attempt does not cost a slot.
func (c *Cooldowns) Acquire(ctx context.Context, userID uuid.UUID, scope Scope) (func(), error) {
	noop := func() {}
	if c == nil || c.rdb == nil {
		return noop, nil
	}

	allowed, err := CheckAndSetRateLimit(ctx, c.rdb, userID, ScopeGlobal, c.global)
	if err != nil {
		return nil, err
	}
	if !allowed {
		ttl, _ := GetRateLimitTTL(ctx, c.rdb, userID, ScopeGlobal)
		return nil, &RateLimitError{
			Message:    fmt.Sprintf("you are doing that too fast. Please wait %.0f seconds", ttl.Seconds()),
			RetryAfter: ttl,
		}
	}

	limit := c.scoped[scope]
	allowed, err = CheckAndSetRateLimit(ctx, c.rdb, userID, scope, limit)
	if err != nil {
		c.clear(ctx, userID, ScopeGlobal)
		return nil, err
	}
	if !allowed {
		c.clear(ctx, userID, ScopeGlobal)
		ttl, _ := GetRateLimitTTL(ctx, c.rdb, userID, scope)
		return nil, &RateLimitError{
			Message:    fmt.Sprintf("you can only create one %s every %s. Please wait %.0f seconds", scope, limit, ttl.Seconds()),
			RetryAfter: ttl,
		}
	}

	return func() {
		c.clear(ctx, userID, ScopeGlobal)
		c.clear(ctx, userID, scope)
	}, nil
}

func (c *Cooldowns) clear(ctx context.Context, userID uuid.UUID, scope Scope) {
	if err := ClearRateLimit(ctx, c.rdb, userID, scope); err != nil {
		log.WithError(err).WithField("scope", scope).Warn("failed to roll back rate limit")
	}
}
