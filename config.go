package authplane

import (
	"errors"
	"fmt"
	"time"

	"github.com/kestrelsec/authplane/internal/guard"
	"github.com/kestrelsec/authplane/internal/rate"
	"github.com/kestrelsec/authplane/token"
)

// Config bundles the tuning knobs for one Engine. Secrets have no
// defaults; everything else does.
type Config struct {
	Token     token.Config
	Session   SessionConfig
	Guard     GuardConfig
	RateLimit RateLimitConfig
	Audit     AuditConfig

	// VerifyBudget caps the wall time of one ValidateAccess call,
	// including the session lookup. Remote verifiers size their
	// client timeout from it.
	VerifyBudget time.Duration

	// ReuseRevokesAll treats a replayed refresh credential as
	// evidence of theft and revokes every credential and session of
	// the user, not just the replayed one.
	ReuseRevokesAll bool
}

// SessionConfig controls session lifetime and cache key layout.
type SessionConfig struct {
	TTL         time.Duration
	CachePrefix string
}

// GuardConfig controls the login brute-force guard.
type GuardConfig struct {
	MaxAttempts int
	Window      time.Duration
}

// Quota is the budget for one rate limit scope.
type Quota = rate.Quota

// RateLimitConfig controls the request rate limiter. Scopes not listed
// in Quotas are rejected by AllowRequest.
type RateLimitConfig struct {
	Quotas          map[string]Quota
	MaxLocalEntries int
}

// AuditConfig controls the async audit pipeline.
type AuditConfig struct {
	BufferSize int
}

// Rate limit scope names the engine uses for its own flows. Callers
// may define additional scopes freely.
const (
	ScopeIP   = "ip"
	ScopeUser = "user"
)

// DefaultConfig returns a Config with production-leaning defaults.
// Token secrets and issuer must still be set by the caller.
func DefaultConfig() Config {
	return Config{
		Token: token.Config{
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 30 * 24 * time.Hour,
		},
		Session: SessionConfig{
			TTL:         30 * 24 * time.Hour,
			CachePrefix: "sc",
		},
		Guard: GuardConfig{
			MaxAttempts: 5,
			Window:      15 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			Quotas: map[string]rate.Quota{
				ScopeIP:   {Limit: 100, Window: time.Minute},
				ScopeUser: {Limit: 300, Window: time.Minute},
			},
			MaxLocalEntries: 10000,
		},
		Audit: AuditConfig{
			BufferSize: 256,
		},
		VerifyBudget:    2 * time.Second,
		ReuseRevokesAll: true,
	}
}

// Validate checks cross-field constraints that the component
// constructors cannot see.
func (c Config) Validate() error {
	if len(c.Token.AccessSecret) < token.MinSecretLen {
		return fmt.Errorf("config: access secret shorter than %d bytes", token.MinSecretLen)
	}
	if len(c.Token.RefreshSecret) < token.MinSecretLen {
		return fmt.Errorf("config: refresh secret shorter than %d bytes", token.MinSecretLen)
	}
	if string(c.Token.AccessSecret) == string(c.Token.RefreshSecret) {
		return errors.New("config: access and refresh secrets must differ")
	}
	if c.Token.Issuer == "" {
		return errors.New("config: issuer is required")
	}
	if c.Session.TTL <= 0 {
		return errors.New("config: session TTL must be positive")
	}
	if c.Session.TTL < c.Token.AccessTTL {
		return errors.New("config: session TTL shorter than access TTL makes every access credential outlive its session")
	}
	if c.Guard.MaxAttempts <= 0 || c.Guard.Window <= 0 {
		return errors.New("config: guard threshold and window must be positive")
	}
	if len(c.RateLimit.Quotas) == 0 {
		return errors.New("config: at least one rate limit scope is required")
	}
	if c.VerifyBudget <= 0 {
		return errors.New("config: verify budget must be positive")
	}
	return nil
}

func (c Config) guardConfig() guard.Config {
	return guard.Config{
		MaxAttempts: c.Guard.MaxAttempts,
		Window:      c.Guard.Window,
	}
}

func (c Config) rateConfig() rate.Config {
	return rate.Config{
		Quotas:          c.RateLimit.Quotas,
		MaxLocalEntries: c.RateLimit.MaxLocalEntries,
	}
}
