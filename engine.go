package authplane

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/kestrelsec/authplane/internal/audit"
	"github.com/kestrelsec/authplane/internal/guard"
	"github.com/kestrelsec/authplane/internal/metrics"
	"github.com/kestrelsec/authplane/internal/rate"
	"github.com/kestrelsec/authplane/session"
	"github.com/kestrelsec/authplane/token"
)

// Engine is the identity control plane: credential issuance and
// verification, session lifecycle, brute-force guarding, and request
// rate limiting. Construct one with [Builder.Build]; all methods are
// safe for concurrent use.
type Engine struct {
	config     Config
	codec      *token.Codec
	sessions   *session.Manager
	refreshes  token.RefreshStore
	principals PrincipalDirectory
	passwords  CredentialVerifier
	guard      *guard.Guard
	limiter    *rate.Limiter
	audit      *audit.Dispatcher
	metrics    *metrics.Set
	logger     *slog.Logger
	closed     atomic.Bool

	degradedSeen atomic.Bool
}

// Close drains the audit pipeline. The engine rejects calls afterwards.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.closed.CompareAndSwap(false, true) {
		e.audit.Close()
	}
}

// AuditDropped reports audit events discarded on a full buffer.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// RateLimiterDegraded reports whether the limiter is running on its
// local fallback.
func (e *Engine) RateLimiterDegraded() bool {
	return e.limiter.Degraded()
}

func (e *Engine) emitAudit(action, userID, sessionID, ip string, success bool, reason string) {
	e.audit.Emit(audit.Event{
		Timestamp: time.Now(),
		Action:    action,
		UserID:    userID,
		SessionID: sessionID,
		IP:        ip,
		Success:   success,
		Reason:    reason,
	})
}
