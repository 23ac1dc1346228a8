package authplane

import (
	"context"
	"fmt"
	"time"

	"github.com/kestrelsec/authplane/internal/rate"
)

// RateLimitResult carries the limit metadata for one decision: limit,
// remaining, reset time, and retry-after when rejected.
type RateLimitResult = rate.Result

// AllowRequest counts one request against the scope's quota for the
// identity (an IP, a user ID, a route class). The limiter fails open:
// a backend outage degrades to process-local counting instead of
// blocking requests. The error return is non-nil only for an unknown
// scope.
func (e *Engine) AllowRequest(ctx context.Context, scope, identity string) (RateLimitResult, error) {
	if e.closed.Load() {
		return RateLimitResult{}, ErrEngineClosed
	}

	res, err := e.limiter.Allow(ctx, scope, identity)
	if err != nil {
		return RateLimitResult{}, err
	}

	// Count entries into degraded mode, not degraded requests.
	if res.Degraded {
		if e.degradedSeen.CompareAndSwap(false, true) {
			e.metrics.DegradedEntries.Inc()
		}
	} else {
		e.degradedSeen.Store(false)
	}
	if !res.Allowed {
		e.metrics.RateLimited.WithLabelValues(scope).Inc()
		e.emitAudit(auditEventRequestRateLimited, "", "", clientIPFromContext(ctx), false, "quota exhausted")
	}
	return res, nil
}

// CheckRequest is AllowRequest for callers that only need a verdict:
// nil when the request fits the quota, ErrRateLimited (carrying the
// retry-after) when it does not.
func (e *Engine) CheckRequest(ctx context.Context, scope, identity string) error {
	res, err := e.AllowRequest(ctx, scope, identity)
	if err != nil {
		return err
	}
	if !res.Allowed {
		return fmt.Errorf("%w: retry after %s", ErrRateLimited, res.RetryAfter.Round(time.Second))
	}
	return nil
}
