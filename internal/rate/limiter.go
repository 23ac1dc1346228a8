package rate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// Quota is the budget for one scope: at most Limit requests per Window.
type Quota struct {
	Limit  int
	Window time.Duration
}

// Config holds the per-scope quotas and local fallback sizing.
type Config struct {
	// Quotas maps a scope name (per-IP, per-user, per-route-class)
	// to its budget. Allow rejects scopes not listed here.
	Quotas map[string]Quota

	// MaxLocalEntries bounds the degraded-mode fallback map.
	// Defaults to 10000 when zero.
	MaxLocalEntries int
}

// Result describes one Allow decision. Remaining is never negative and
// Reset is never earlier than now while a window is open. RetryAfter is
// zero unless the request was rejected.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	Reset      time.Time
	RetryAfter time.Duration

	// Degraded reports that the decision came from the process-local
	// fallback rather than the shared store.
	Degraded bool
}

// incrScript bumps the counter and, on the first hit of a window, arms
// its expiry. Returning the count together with the remaining TTL from
// one script keeps the increment and the expiry check race-free.
var incrScript = redis.NewScript(`
local c = redis.call("INCR", KEYS[1])
if c == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {c, ttl}
`)

// Limiter enforces fixed-window quotas keyed by scope plus identity,
// backed by Redis with a bounded in-process fallback.
type Limiter struct {
	redis    redis.UniversalClient
	config   Config
	local    *localCounters
	logger   *slog.Logger
	degraded atomic.Bool
}

// New creates a [Limiter] backed by the given Redis client.
func New(client redis.UniversalClient, cfg Config, logger *slog.Logger) (*Limiter, error) {
	if client == nil {
		return nil, errors.New("rate: redis client is required")
	}
	if len(cfg.Quotas) == 0 {
		return nil, errors.New("rate: at least one scope quota is required")
	}
	for scope, q := range cfg.Quotas {
		if q.Limit <= 0 {
			return nil, fmt.Errorf("rate: scope %q: limit must be positive", scope)
		}
		if q.Window <= 0 {
			return nil, fmt.Errorf("rate: scope %q: window must be positive", scope)
		}
	}
	if cfg.MaxLocalEntries <= 0 {
		cfg.MaxLocalEntries = 10000
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Limiter{
		redis:  client,
		config: cfg,
		local:  newLocalCounters(cfg.MaxLocalEntries),
		logger: logger,
	}, nil
}

func key(scope, identity string) string {
	return "rl:" + scope + ":" + identity
}

// Allow counts one request against the scope's quota for the identity
// and reports whether it fits. The returned error is non-nil only for
// an unknown scope; backend failures degrade to the local fallback and
// still produce a decision.
func (l *Limiter) Allow(ctx context.Context, scope, identity string) (Result, error) {
	quota, ok := l.config.Quotas[scope]
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownScope, scope)
	}

	count, ttl, err := l.shared(ctx, key(scope, identity), quota.Window)
	if err != nil {
		if l.degraded.CompareAndSwap(false, true) {
			l.logger.Warn("rate limiter degraded to local counters",
				"scope", scope,
				"error", err,
			)
		}
		var reset time.Time
		count, reset = l.local.incr(key(scope, identity), quota.Window, time.Now())
		res := decide(quota, count, reset)
		res.Degraded = true
		return res, nil
	}

	if l.degraded.CompareAndSwap(true, false) {
		l.logger.Info("rate limiter backend recovered")
	}
	return decide(quota, count, time.Now().Add(ttl)), nil
}

// Degraded reports whether the limiter is currently serving decisions
// from the local fallback.
func (l *Limiter) Degraded() bool {
	return l.degraded.Load()
}

func (l *Limiter) shared(ctx context.Context, k string, window time.Duration) (int64, time.Duration, error) {
	raw, err := incrScript.Run(ctx, l.redis, []string{k}, window.Milliseconds()).Result()
	if err != nil {
		return 0, 0, err
	}
	vals, ok := raw.([]interface{})
	if !ok || len(vals) != 2 {
		return 0, 0, fmt.Errorf("rate: unexpected script reply %T", raw)
	}
	count, ok := vals[0].(int64)
	if !ok {
		return 0, 0, fmt.Errorf("rate: unexpected count reply %T", vals[0])
	}
	ttlMillis, ok := vals[1].(int64)
	if !ok {
		return 0, 0, fmt.Errorf("rate: unexpected ttl reply %T", vals[1])
	}
	// PTTL reports -1 for a key without expiry, which can only happen
	// if the window was lost between INCR and PEXPIRE on a prior call.
	// Treat it as a fresh window rather than an immortal counter.
	if ttlMillis < 0 {
		ttlMillis = window.Milliseconds()
	}
	return count, time.Duration(ttlMillis) * time.Millisecond, nil
}

func decide(q Quota, count int64, reset time.Time) Result {
	res := Result{
		Allowed: count <= int64(q.Limit),
		Limit:   q.Limit,
		Reset:   reset,
	}
	if remaining := int64(q.Limit) - count; remaining > 0 {
		res.Remaining = int(remaining)
	}
	if !res.Allowed {
		res.RetryAfter = time.Until(reset)
		if res.RetryAfter < time.Second {
			res.RetryAfter = time.Second
		}
	}
	return res
}
