package authplane

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/kestrelsec/authplane/internal/audit"
	"github.com/kestrelsec/authplane/internal/guard"
	"github.com/kestrelsec/authplane/internal/metrics"
	"github.com/kestrelsec/authplane/internal/rate"
	"github.com/kestrelsec/authplane/session"
	"github.com/kestrelsec/authplane/token"
)

// Builder assembles an Engine. Configure it during initialization and
// call Build once; the resulting Engine is immutable.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	sessionStore session.Store
	refreshStore token.RefreshStore
	principals   PrincipalDirectory
	passwords    CredentialVerifier

	auditSink  AuditSink
	logger     *slog.Logger
	registerer prometheus.Registerer

	built bool
}

// New returns a Builder preloaded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis sets the client backing the session cache, the login
// guard, and the rate limiter.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithSessionStore sets the persistent session store.
func (b *Builder) WithSessionStore(store session.Store) *Builder {
	b.sessionStore = store
	return b
}

// WithRefreshStore sets the refresh credential record store.
func (b *Builder) WithRefreshStore(store token.RefreshStore) *Builder {
	b.refreshStore = store
	return b
}

// WithPrincipals sets the account lookup directory.
func (b *Builder) WithPrincipals(dir PrincipalDirectory) *Builder {
	b.principals = dir
	return b
}

// WithPasswordVerifier sets the credential pass/fail implementation.
func (b *Builder) WithPasswordVerifier(v CredentialVerifier) *Builder {
	b.passwords = v
	return b
}

// WithAuditSink sets the audit destination. Without one, events are
// dispatched to a no-op sink.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the structured logger. Defaults to slog.Default.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithRegisterer sets the Prometheus registerer for the engine's
// instruments. Without one, a private registry is used so engines do
// not collide in tests.
func (b *Builder) WithRegisterer(reg prometheus.Registerer) *Builder {
	b.registerer = reg
	return b
}

// Build validates the configuration and wiring and constructs the
// Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	if err := b.config.Validate(); err != nil {
		return nil, err
	}
	if b.redis == nil {
		return nil, errors.New("redis client is required")
	}
	if b.sessionStore == nil {
		return nil, errors.New("session store is required")
	}
	if b.refreshStore == nil {
		return nil, errors.New("refresh store is required")
	}
	if b.principals == nil {
		return nil, errors.New("principal directory is required")
	}
	if b.passwords == nil {
		return nil, errors.New("password verifier is required")
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	codec, err := token.NewCodec(b.config.Token)
	if err != nil {
		return nil, fmt.Errorf("build codec: %w", err)
	}

	cache := session.NewRedisCache(b.redis, b.config.Session.CachePrefix)
	sessions, err := session.NewManager(b.sessionStore, cache, b.config.Session.TTL, logger)
	if err != nil {
		return nil, fmt.Errorf("build session manager: %w", err)
	}

	loginGuard, err := guard.New(b.redis, b.config.guardConfig())
	if err != nil {
		return nil, fmt.Errorf("build login guard: %w", err)
	}

	limiter, err := rate.New(b.redis, b.config.rateConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("build rate limiter: %w", err)
	}

	reg := b.registerer
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	b.built = true

	return &Engine{
		config:     b.config,
		codec:      codec,
		sessions:   sessions,
		refreshes:  b.refreshStore,
		principals: b.principals,
		passwords:  b.passwords,
		guard:      loginGuard,
		limiter:    limiter,
		audit:      audit.NewDispatcher(b.auditSink, b.config.Audit.BufferSize),
		metrics:    metrics.New(reg),
		logger:     logger,
	}, nil
}
