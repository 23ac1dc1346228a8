package authplane

import (
	"context"
	"errors"
	"fmt"

	"github.com/kestrelsec/authplane/internal/guard"
	"github.com/kestrelsec/authplane/token"
)

// Login authenticates the identifier (email or username) and password,
// creates a session, and issues an access/refresh pair.
//
// Unknown identifier, wrong password, and inactive principal all
// return ErrInvalidCredentials; the three cases are indistinguishable
// and take comparable time. A locked-out caller gets
// ErrTooManyLoginAttempts before any password work happens.
func (e *Engine) Login(ctx context.Context, identifier, password string) (*TokenPair, error) {
	if e.closed.Load() {
		return nil, ErrEngineClosed
	}

	ip := clientIPFromContext(ctx)
	device := deviceInfoFromContext(ctx)

	if err := e.checkGuard(ctx, identifier, ip); err != nil {
		return nil, err
	}

	principal, found, err := e.lookupPrincipal(ctx, identifier)
	if err != nil {
		return nil, err
	}

	hash := ""
	if found {
		hash = principal.PasswordHash
	}
	ok, err := e.passwords.Compare(hash, password)
	if err != nil {
		// A malformed stored hash is a server-side fault, but the
		// caller still only learns that the credentials were rejected.
		e.logger.Error("password comparison failed", "error", err)
		ok = false
	}

	if !ok || !found || !principal.Active {
		e.recordLoginFailure(ctx, identifier, ip)
		e.metrics.Logins.WithLabelValues("invalid").Inc()
		e.emitAudit(auditEventLoginFailure, principal.ID, "", ip, false, "invalid credentials")
		return nil, ErrInvalidCredentials
	}

	e.clearGuard(ctx, identifier, ip)

	sess, err := e.sessions.Create(ctx, principal.ID, device, ip)
	if err != nil {
		e.metrics.StoreErrors.WithLabelValues("session").Inc()
		e.metrics.Logins.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: create session: %v", ErrStoreUnavailable, err)
	}

	pair, err := e.issuePair(ctx, principal.ID, sess.SessionID)
	if err != nil {
		// The session exists but the caller never received its
		// credentials. Best-effort cleanup keeps it from lingering.
		if terr := e.sessions.Terminate(ctx, sess.SessionID); terr != nil {
			e.logger.Warn("orphan session cleanup failed", "session_id", sess.SessionID, "error", terr)
		}
		e.metrics.Logins.WithLabelValues("error").Inc()
		return nil, err
	}

	e.metrics.Logins.WithLabelValues("success").Inc()
	e.metrics.SessionsCreated.Inc()
	e.emitAudit(auditEventLoginSuccess, principal.ID, sess.SessionID, ip, true, "")
	return pair, nil
}

// LoginAttempts reports the current failure count for an identifier.
// Missing counters report zero; so do unknown identifiers, which keeps
// the counter from acting as an account-existence probe.
func (e *Engine) LoginAttempts(ctx context.Context, identifier string) (int, error) {
	n, err := e.guard.Attempts(ctx, identifier)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return n, nil
}

// checkGuard rejects callers whose identifier or IP is locked out.
// Guard outages fail closed: lockout is part of identity verification.
func (e *Engine) checkGuard(ctx context.Context, identifier, ip string) error {
	keys := []string{identifier}
	if ip != "" {
		keys = append(keys, ip)
	}
	for _, key := range keys {
		err := e.guard.Check(ctx, key)
		if err == nil {
			continue
		}
		if errors.Is(err, guard.ErrTooManyAttempts) {
			e.metrics.Logins.WithLabelValues("locked").Inc()
			e.emitAudit(auditEventLoginLocked, "", "", ip, false, "too many attempts")
			return ErrTooManyLoginAttempts
		}
		e.metrics.StoreErrors.WithLabelValues("guard").Inc()
		return fmt.Errorf("%w: login guard: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (e *Engine) recordLoginFailure(ctx context.Context, identifier, ip string) {
	if _, err := e.guard.RecordFailure(ctx, identifier); err != nil {
		e.logger.Warn("recording login failure", "error", err)
	}
	if ip == "" {
		return
	}
	if _, err := e.guard.RecordFailure(ctx, ip); err != nil {
		e.logger.Warn("recording login failure", "error", err)
	}
}

func (e *Engine) clearGuard(ctx context.Context, identifier, ip string) {
	if err := e.guard.RecordSuccess(ctx, identifier); err != nil {
		e.logger.Warn("clearing login counter", "error", err)
	}
	if ip == "" {
		return
	}
	if err := e.guard.RecordSuccess(ctx, ip); err != nil {
		e.logger.Warn("clearing login counter", "error", err)
	}
}

func (e *Engine) lookupPrincipal(ctx context.Context, identifier string) (Principal, bool, error) {
	principal, err := e.principals.FindByIdentifier(ctx, identifier)
	if errors.Is(err, ErrPrincipalNotFound) {
		return Principal{}, false, nil
	}
	if err != nil {
		e.metrics.StoreErrors.WithLabelValues("principals").Inc()
		return Principal{}, false, fmt.Errorf("%w: principal lookup: %v", ErrStoreUnavailable, err)
	}
	return principal, true, nil
}

func (e *Engine) issuePair(ctx context.Context, userID, sessionID string) (*TokenPair, error) {
	access, accessExp, err := e.codec.IssueAccess(userID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("issue access credential: %w", err)
	}

	issue, err := e.codec.IssueRefresh(userID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("issue refresh credential: %w", err)
	}

	rec := token.RefreshRecord{
		TokenID:    issue.TokenID,
		SecretHash: issue.SecretHash,
		UserID:     userID,
		SessionID:  sessionID,
		ExpiresAt:  issue.ExpiresAt,
	}
	if err := e.refreshes.Create(ctx, &rec); err != nil {
		e.metrics.StoreErrors.WithLabelValues("refresh").Inc()
		return nil, fmt.Errorf("%w: store refresh record: %v", ErrStoreUnavailable, err)
	}

	return &TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp.Unix(),
		RefreshToken:     issue.Token,
		RefreshExpiresAt: issue.ExpiresAt.Unix(),
		SessionID:        sessionID,
	}, nil
}
