package authplane

import (
	"context"
	"errors"

	"github.com/kestrelsec/authplane/internal/audit"
)

// Principal is the externally-owned account this engine authenticates.
// The engine only reads it; a separate user-management service owns
// creation and mutation.
type Principal struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string
	Active       bool
}

// PrincipalDirectory looks principals up for login and validation.
// FindByIdentifier accepts an email or a username.
type PrincipalDirectory interface {
	FindByID(ctx context.Context, id string) (Principal, error)
	FindByIdentifier(ctx context.Context, identifier string) (Principal, error)
}

// ErrPrincipalNotFound is returned by PrincipalDirectory
// implementations. The engine translates it to ErrInvalidCredentials
// before it reaches a caller.
var ErrPrincipalNotFound = errors.New("principal not found")

// CredentialVerifier reports whether a plaintext secret matches a
// stored hash. Implementations must take comparable time for match and
// mismatch.
type CredentialVerifier interface {
	Compare(hash, plaintext string) (bool, error)
}

// TokenPair is the result of a login or a refresh rotation.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  int64
	RefreshToken     string
	RefreshExpiresAt int64
	SessionID        string
}

// Identity is the verified result of validating an access credential.
type Identity struct {
	UserID    string
	Email     string
	Username  string
	SessionID string
}

// Audit re-exports so integrators wiring sinks do not import internal
// packages.
type (
	AuditEvent = audit.Event
	AuditSink  = audit.Sink
)

// NewAuditJSONSink writes one JSON audit record per line to w.
var NewAuditJSONSink = audit.NewJSONWriterSink

// NewAuditChannelSink buffers audit records in a channel for pull-based
// consumers.
var NewAuditChannelSink = audit.NewChannelSink
