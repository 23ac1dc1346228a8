package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Manager coordinates the persistent store and the cache tier.
//
// Safe for concurrent use. All mutable state lives in the backends.
type Manager struct {
	store  Store
	cache  Cache
	ttl    time.Duration
	logger *slog.Logger
}

// TerminateAllResult reports the outcome of a bulk termination. The two
// tiers are not updated transactionally; callers log the counts and accept
// that a failed cache delete leaves a stale entry until its TTL runs out —
// the store row is already inactive, so a cache miss path rejects it.
type TerminateAllResult struct {
	Attempted    int
	Terminated   int64
	CacheDeletes int
	CacheErrors  int
}

// NewManager creates a session manager with the given absolute session TTL.
func NewManager(store Store, cache Cache, ttl time.Duration, logger *slog.Logger) (*Manager, error) {
	if store == nil {
		return nil, errors.New("session store required")
	}
	if cache == nil {
		return nil, errors.New("session cache required")
	}
	if ttl <= 0 {
		return nil, errors.New("session TTL must be positive")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{store: store, cache: cache, ttl: ttl, logger: logger}, nil
}

// TTL returns the configured absolute session lifetime.
func (m *Manager) TTL() time.Duration { return m.ttl }

// Create persists a new session and mirrors it into the cache with the same
// TTL. A cache write failure is logged and tolerated: validation falls back
// to the store on a miss.
func (m *Manager) Create(ctx context.Context, userID, deviceInfo, ipAddress string) (*Session, error) {
	now := time.Now()
	sess := &Session{
		SessionID:  uuid.NewString(),
		UserID:     userID,
		DeviceInfo: deviceInfo,
		IPAddress:  ipAddress,
		CreatedAt:  now,
		ExpiresAt:  now.Add(m.ttl),
		Active:     true,
	}

	if err := m.store.Create(ctx, sess); err != nil {
		return nil, err
	}

	if err := m.cache.Set(ctx, sess.SessionID, sess.UserID, m.ttl); err != nil {
		m.logger.Warn("session cache write failed",
			"session_id", sess.SessionID, "error", err)
	}

	return sess, nil
}

// Validate reports whether a session is active and unexpired.
//
// Cache-aside: a cache hit answers without touching the store; on a miss
// the store is consulted and, when the session is live, the cache is
// repopulated for the remaining lifetime. A cache outage degrades to
// store-only reads; a store outage surfaces as [ErrStoreUnavailable].
func (m *Manager) Validate(ctx context.Context, sessionID string) (bool, error) {
	if sessionID == "" {
		return false, nil
	}

	hit, err := m.cache.Exists(ctx, sessionID)
	if err != nil {
		m.logger.Warn("session cache read failed, falling back to store",
			"session_id", sessionID, "error", err)
	} else if hit {
		return true, nil
	}

	sess, err := m.store.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	now := time.Now()
	if !sess.Live(now) {
		return false, nil
	}

	if remaining := sess.ExpiresAt.Sub(now); remaining > time.Second {
		if err := m.cache.Set(ctx, sessionID, sess.UserID, remaining); err != nil {
			m.logger.Warn("session cache repopulation failed",
				"session_id", sessionID, "error", err)
		}
	}

	return true, nil
}

// Terminate deactivates a single session in the store and evicts it from
// the cache. The store is authoritative; a cache delete failure is logged.
func (m *Manager) Terminate(ctx context.Context, sessionID string) error {
	if err := m.store.MarkInactive(ctx, sessionID); err != nil {
		return err
	}
	if err := m.cache.Del(ctx, sessionID); err != nil {
		m.logger.Warn("session cache delete failed",
			"session_id", sessionID, "error", err)
	}
	return nil
}

// TerminateAll deactivates every active session of a user, optionally
// sparing exceptSessionID, then evicts each from the cache. Best effort
// across tiers; the result carries attempted vs. succeeded counts so the
// caller can log partial completion. The error reflects the store phase
// only — by the time cache evictions run, no new access can be minted.
func (m *Manager) TerminateAll(ctx context.Context, userID, exceptSessionID string) (TerminateAllResult, error) {
	var res TerminateAllResult

	ids, err := m.store.ActiveIDsForUser(ctx, userID)
	if err != nil {
		return res, err
	}
	res.Attempted = len(ids)

	n, err := m.store.MarkAllInactiveForUser(ctx, userID, exceptSessionID)
	if err != nil {
		return res, err
	}
	res.Terminated = n

	for _, id := range ids {
		if id == exceptSessionID {
			continue
		}
		if err := m.cache.Del(ctx, id); err != nil {
			res.CacheErrors++
			continue
		}
		res.CacheDeletes++
	}

	m.logger.Info("terminated user sessions",
		"user_id", userID,
		"attempted", res.Attempted,
		"terminated", res.Terminated,
		"cache_deletes", res.CacheDeletes,
		"cache_errors", res.CacheErrors)

	return res, nil
}
