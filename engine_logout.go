package authplane

import (
	"context"
	"errors"
	"fmt"

	"github.com/kestrelsec/authplane/session"
)

// Logout terminates the session referenced by the access credential.
// Refresh credentials bound to that session stop working on their next
// rotation because the session check fails.
func (e *Engine) Logout(ctx context.Context, accessToken string) error {
	if e.closed.Load() {
		return ErrEngineClosed
	}

	claims, err := e.codec.VerifyAccess(accessToken)
	if err != nil {
		return err
	}

	if err := e.sessions.Terminate(ctx, claims.SessionID); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return ErrSessionInvalid
		}
		e.metrics.StoreErrors.WithLabelValues("session").Inc()
		return fmt.Errorf("%w: terminate session: %v", ErrStoreUnavailable, err)
	}

	e.metrics.SessionsTerminated.Inc()
	e.emitAudit(auditEventLogout, claims.Subject, claims.SessionID, clientIPFromContext(ctx), true, "")
	return nil
}

// LogoutAll terminates every session of the user and revokes every
// refresh credential, the response to password change or credential
// theft. Both halves are attempted even when one fails; partial
// results are logged and the first error is returned so the caller can
// retry.
func (e *Engine) LogoutAll(ctx context.Context, userID string) error {
	if e.closed.Load() {
		return ErrEngineClosed
	}
	if userID == "" {
		return errors.New("user id is required")
	}

	err := e.revokeEverything(ctx, userID)
	e.emitAudit(auditEventLogoutAll, userID, "", clientIPFromContext(ctx), err == nil, "")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
