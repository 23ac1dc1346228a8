package session

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned by a Store when no session exists for an ID.
	ErrNotFound = errors.New("session not found")
	// ErrStoreUnavailable indicates the persistent session backend is
	// unreachable or timed out. Distinct from an invalid session.
	ErrStoreUnavailable = errors.New("session store unavailable")
	// ErrCacheUnavailable indicates the cache tier is unreachable. The
	// manager treats this as degradation, not as failure.
	ErrCacheUnavailable = errors.New("session cache unavailable")
)

// Session is one authenticated device/browser instance. It is independent
// of any single credential: tokens reference sessions, not the reverse.
type Session struct {
	SessionID  string
	UserID     string
	DeviceInfo string
	IPAddress  string
	CreatedAt  time.Time
	ExpiresAt  time.Time
	Active     bool
}

// Live reports whether the session is active and unexpired at now.
func (s *Session) Live(now time.Time) bool {
	return s.Active && now.Before(s.ExpiresAt)
}

// Store is the persistent session backend. Implementations wrap backend
// failures (including timeouts) in [ErrStoreUnavailable] and map missing
// rows to [ErrNotFound].
type Store interface {
	Create(ctx context.Context, sess *Session) error
	FindByID(ctx context.Context, sessionID string) (*Session, error)
	MarkInactive(ctx context.Context, sessionID string) error

	// ActiveIDsForUser lists session IDs currently marked active for a user.
	ActiveIDsForUser(ctx context.Context, userID string) ([]string, error)

	// MarkAllInactiveForUser bulk-deactivates a user's sessions, optionally
	// sparing one, and returns how many rows it changed.
	MarkAllInactiveForUser(ctx context.Context, userID, exceptSessionID string) (int64, error)
}

// Cache is the fast-lookup tier. Implementations wrap backend failures in
// [ErrCacheUnavailable].
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
