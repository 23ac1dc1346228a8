package authplane

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/kestrelsec/authplane/internal/audit"
	"github.com/kestrelsec/authplane/token"
)

// Refresh rotates a refresh credential: the presented credential is
// verified, revoked, and replaced by a fresh access/refresh pair bound
// to the same session. Each refresh credential rotates at most once;
// presenting one that was already rotated or revoked is treated as
// replay.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if e.closed.Load() {
		return nil, ErrEngineClosed
	}

	ip := clientIPFromContext(ctx)

	claims, err := e.codec.VerifyRefresh(refreshToken)
	if err != nil {
		e.emitAudit(auditEventRefreshInvalid, "", "", ip, false, "verification failed")
		return nil, err
	}

	rec, err := e.refreshes.FindByTokenID(ctx, claims.ID)
	if errors.Is(err, token.ErrRecordNotFound) {
		e.emitAudit(auditEventRefreshInvalid, claims.Subject, claims.SessionID, ip, false, "no record")
		return nil, ErrRefreshInvalid
	}
	if err != nil {
		e.metrics.StoreErrors.WithLabelValues("refresh").Inc()
		return nil, fmt.Errorf("%w: refresh lookup: %v", ErrStoreUnavailable, err)
	}

	presented := token.HashToken(refreshToken)
	if subtle.ConstantTimeCompare(presented[:], rec.SecretHash[:]) != 1 {
		e.emitAudit(auditEventRefreshInvalid, rec.UserID, rec.SessionID, ip, false, "hash mismatch")
		return nil, ErrRefreshInvalid
	}

	if rec.Revoked {
		return nil, e.handleReplay(ctx, rec, ip)
	}
	if rec.Expired(time.Now()) {
		return nil, ErrRefreshExpired
	}

	live, err := e.sessions.Validate(ctx, rec.SessionID)
	if err != nil {
		e.metrics.StoreErrors.WithLabelValues("session").Inc()
		return nil, fmt.Errorf("%w: session check: %v", ErrStoreUnavailable, err)
	}
	if !live {
		e.emitAudit(auditEventRefreshInvalid, rec.UserID, rec.SessionID, ip, false, "session invalid")
		return nil, ErrSessionInvalid
	}

	revoked, err := e.refreshes.Revoke(ctx, rec.TokenID)
	if err != nil {
		e.metrics.StoreErrors.WithLabelValues("refresh").Inc()
		return nil, fmt.Errorf("%w: revoke rotated credential: %v", ErrStoreUnavailable, err)
	}
	if !revoked {
		// A concurrent rotation won the guarded update. For this
		// caller that is indistinguishable from replay.
		return nil, e.handleReplay(ctx, rec, ip)
	}

	pair, err := e.issuePair(ctx, rec.UserID, rec.SessionID)
	if err != nil {
		return nil, err
	}

	e.metrics.RefreshRotations.Inc()
	e.emitAudit(auditEventRefreshSuccess, rec.UserID, rec.SessionID, ip, true, "")
	return pair, nil
}

// handleReplay records a replayed refresh credential and, when
// configured, revokes everything the user holds. The caller always
// gets the same ErrRefreshInvalid a plain bad credential would get.
func (e *Engine) handleReplay(ctx context.Context, rec *token.RefreshRecord, ip string) error {
	e.metrics.RefreshReplays.Inc()
	e.logger.Warn("refresh credential replay detected",
		"user_id", rec.UserID,
		"session_id", rec.SessionID,
		"ip", ip,
	)
	e.emitAudit(auditEventRefreshReuse, rec.UserID, rec.SessionID, ip, false, "credential reused after rotation")

	if e.config.ReuseRevokesAll {
		if err := e.revokeEverything(ctx, rec.UserID); err != nil {
			e.logger.Error("revoking credentials after replay", "user_id", rec.UserID, "error", err)
		}
	}
	return ErrRefreshInvalid
}

// RevokeRefresh invalidates a single refresh credential without
// touching its session. Revoking one that is already revoked or
// unknown is not an error.
func (e *Engine) RevokeRefresh(ctx context.Context, refreshToken string) error {
	if e.closed.Load() {
		return ErrEngineClosed
	}

	claims, err := e.codec.VerifyRefresh(refreshToken)
	if err != nil {
		return err
	}
	if _, err := e.refreshes.Revoke(ctx, claims.ID); err != nil {
		e.metrics.StoreErrors.WithLabelValues("refresh").Inc()
		return fmt.Errorf("%w: revoke refresh: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// revokeEverything revokes all refresh credentials and terminates all
// sessions of a user. Both halves run even if one fails; when in doubt
// the engine over-revokes.
func (e *Engine) revokeEverything(ctx context.Context, userID string) error {
	var errs []error

	n, err := e.refreshes.RevokeAllForUser(ctx, userID)
	if err != nil {
		errs = append(errs, fmt.Errorf("revoke refresh credentials: %w", err))
	}

	res, err := e.sessions.TerminateAll(ctx, userID, "")
	if err != nil {
		errs = append(errs, fmt.Errorf("terminate sessions: %w", err))
	}
	e.metrics.SessionsTerminated.Add(float64(res.Terminated))

	e.logger.Info("revoked all user credentials",
		"user_id", userID,
		"refresh_revoked", n,
		"sessions_terminated", res.Terminated,
		"sessions_attempted", res.Attempted,
	)
	e.audit.Emit(audit.Event{
		Timestamp: time.Now(),
		Action:    auditEventSessionsTerminated,
		UserID:    userID,
		Success:   len(errs) == 0,
		Metadata: map[string]string{
			"refresh_revoked":     strconv.FormatInt(n, 10),
			"sessions_terminated": strconv.FormatInt(res.Terminated, 10),
			"sessions_attempted":  strconv.Itoa(res.Attempted),
		},
	})
	return errors.Join(errs...)
}
