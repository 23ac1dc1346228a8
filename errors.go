package authplane

import (
	"errors"

	"github.com/kestrelsec/authplane/internal/guard"
	"github.com/kestrelsec/authplane/internal/rate"
	"github.com/kestrelsec/authplane/token"
)

// Credential verification outcomes. Expired and invalid are distinct so
// clients know whether refreshing can help; every other signature or
// claim defect collapses into the invalid sentinel.
var (
	ErrTokenExpired   = token.ErrTokenExpired
	ErrTokenInvalid   = token.ErrTokenInvalid
	ErrRefreshExpired = token.ErrRefreshExpired
	ErrRefreshInvalid = token.ErrRefreshInvalid
)

// Throttling outcomes.
var (
	ErrTooManyLoginAttempts = guard.ErrTooManyAttempts
	ErrRateLimited          = rate.ErrRateLimited
)

var (
	// ErrInvalidCredentials covers wrong password, unknown identifier,
	// and inactive principal alike. Callers must not be able to tell
	// which, or the error becomes an account-existence oracle.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrSessionInvalid reports a session that is definitively
	// terminated, expired, or unknown.
	ErrSessionInvalid = errors.New("session invalid")
	// ErrStoreUnavailable reports that a backing store could not answer.
	// It is never folded into ErrSessionInvalid: an outage is not a
	// judgement on the session.
	ErrStoreUnavailable = errors.New("backing store unavailable")
	// ErrEngineClosed reports use of an engine after Close.
	ErrEngineClosed = errors.New("engine closed")
)
