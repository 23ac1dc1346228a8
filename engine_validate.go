package authplane

import (
	"context"
	"errors"
	"fmt"
)

// ValidateAccess verifies an access credential end to end: signature,
// expiry, issuer, the liveness of the referenced session, and the
// principal still being active. A valid signature alone is not enough
// because revocation happens out of band.
//
// Store outages surface as ErrStoreUnavailable, never as
// ErrSessionInvalid: the engine refuses to guess when it cannot check.
// The whole call is bounded by the configured verify budget.
func (e *Engine) ValidateAccess(ctx context.Context, accessToken string) (*Identity, error) {
	if e.closed.Load() {
		return nil, ErrEngineClosed
	}

	ctx, cancel := context.WithTimeout(ctx, e.config.VerifyBudget)
	defer cancel()

	claims, err := e.codec.VerifyAccess(accessToken)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			e.metrics.AccessValidations.WithLabelValues("expired").Inc()
		} else {
			e.metrics.AccessValidations.WithLabelValues("invalid").Inc()
		}
		return nil, err
	}

	live, err := e.sessions.Validate(ctx, claims.SessionID)
	if err != nil {
		e.metrics.AccessValidations.WithLabelValues("unavailable").Inc()
		e.metrics.StoreErrors.WithLabelValues("session").Inc()
		return nil, fmt.Errorf("%w: session check: %v", ErrStoreUnavailable, err)
	}
	if !live {
		e.metrics.AccessValidations.WithLabelValues("session_invalid").Inc()
		return nil, ErrSessionInvalid
	}

	principal, err := e.principals.FindByID(ctx, claims.Subject)
	if errors.Is(err, ErrPrincipalNotFound) {
		e.metrics.AccessValidations.WithLabelValues("session_invalid").Inc()
		return nil, ErrSessionInvalid
	}
	if err != nil {
		e.metrics.AccessValidations.WithLabelValues("unavailable").Inc()
		e.metrics.StoreErrors.WithLabelValues("principals").Inc()
		return nil, fmt.Errorf("%w: principal lookup: %v", ErrStoreUnavailable, err)
	}
	if !principal.Active {
		e.metrics.AccessValidations.WithLabelValues("session_invalid").Inc()
		return nil, ErrSessionInvalid
	}

	e.metrics.AccessValidations.WithLabelValues("valid").Inc()
	return &Identity{
		UserID:    principal.ID,
		Email:     principal.Email,
		Username:  principal.Username,
		SessionID: claims.SessionID,
	}, nil
}
