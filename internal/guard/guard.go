// Package guard tracks failed-authentication counters per principal key
// (lowercased identifier or client IP) on Redis fixed windows.
//
// The lockout is soft: there is no unlock operation. The counter carries a
// TTL armed atomically with the increment, so a locked key frees itself
// when the window lapses, and a recorded success clears it immediately.
package guard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrTooManyAttempts is returned by Check once the failure threshold is
	// reached within the window.
	ErrTooManyAttempts = errors.New("too many login attempts")
	// ErrGuardUnavailable indicates the counter backend is unreachable.
	// Callers fail closed on it: a guard that cannot count cannot admit.
	ErrGuardUnavailable = errors.New("login guard backend unavailable")
)

// Config holds the lockout threshold and window.
type Config struct {
	MaxAttempts int
	Window      time.Duration
}

// Guard enforces the soft lockout. Safe for concurrent use.
type Guard struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a login attempt guard backed by the given Redis client.
func New(client redis.UniversalClient, cfg Config) (*Guard, error) {
	if cfg.MaxAttempts <= 0 {
		return nil, errors.New("guard threshold must be positive")
	}
	if cfg.Window <= 0 {
		return nil, errors.New("guard window must be positive")
	}
	return &Guard{redis: client, config: cfg}, nil
}

func (g *Guard) key(principal string) string {
	return "lg:" + strings.ToLower(principal)
}

// Check rejects with [ErrTooManyAttempts] when the key's failure count has
// reached the threshold. It runs before any password verification so a
// locked-out caller costs no hashing work.
func (g *Guard) Check(ctx context.Context, principalKey string) error {
	count, err := g.redis.Get(ctx, g.key(principalKey)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrGuardUnavailable, err)
	}
	if count >= int64(g.config.MaxAttempts) {
		return ErrTooManyAttempts
	}
	return nil
}

// failScript bumps the counter and arms the window expiry whenever the
// key has none. One script keeps the increment and the expiry atomic: a
// counter must never survive without a TTL, or its lockout would have
// no way to clear.
var failScript = redis.NewScript(`
local c = redis.call("INCR", KEYS[1])
if redis.call("PTTL", KEYS[1]) < 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return c
`)

// RecordFailure increments the failure counter and returns the new count.
// Fixed-window semantics: the TTL runs from the first hit, so the counter
// (and the lockout it may cause) clears when the window expires.
func (g *Guard) RecordFailure(ctx context.Context, principalKey string) (int64, error) {
	count, err := failScript.Run(ctx, g.redis, []string{g.key(principalKey)}, g.config.Window.Milliseconds()).Int64()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrGuardUnavailable, err)
	}
	return count, nil
}

// RecordSuccess clears the failure counter for the key.
func (g *Guard) RecordSuccess(ctx context.Context, principalKey string) error {
	if err := g.redis.Del(ctx, g.key(principalKey)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrGuardUnavailable, err)
	}
	return nil
}

// Attempts returns the current failure count for a key. Missing keys return
// zero and do not reveal account existence.
func (g *Guard) Attempts(ctx context.Context, principalKey string) (int, error) {
	count, err := g.redis.Get(ctx, g.key(principalKey)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrGuardUnavailable, err)
	}
	if count < 0 {
		return 0, nil
	}
	return int(count), nil
}
