package token

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrRecordNotFound is returned by a RefreshStore when no record exists
	// for a token ID.
	ErrRecordNotFound = errors.New("refresh record not found")
	// ErrRefreshStoreUnavailable indicates the refresh record backend is
	// unreachable. It must never be collapsed into ErrRefreshInvalid.
	ErrRefreshStoreUnavailable = errors.New("refresh store unavailable")
)

// RefreshRecord is the persisted server-side half of a refresh token.
// Revoked and Expired are absorbing states: no operation ever reactivates
// a record.
type RefreshRecord struct {
	TokenID    string
	SecretHash [32]byte
	UserID     string
	SessionID  string
	ExpiresAt  time.Time
	Revoked    bool
}

// Expired reports whether the record's lifetime has passed at now.
func (r *RefreshRecord) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// RefreshStore persists refresh records. Implementations wrap backend
// failures in [ErrRefreshStoreUnavailable] and map missing rows to
// [ErrRecordNotFound].
type RefreshStore interface {
	Create(ctx context.Context, rec *RefreshRecord) error
	FindByTokenID(ctx context.Context, tokenID string) (*RefreshRecord, error)

	// Revoke marks the record revoked and reports whether this call made
	// the transition. A false return with nil error means the record was
	// already revoked or missing — a replay signal for the caller.
	Revoke(ctx context.Context, tokenID string) (bool, error)

	// RevokeAllForUser revokes every live record of a user and returns how
	// many records it revoked.
	RevokeAllForUser(ctx context.Context, userID string) (int64, error)
}
