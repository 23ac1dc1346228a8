package metrics

import "github.com/prometheus/client_golang/prometheus"

// Set holds the engine's Prometheus instruments.
type Set struct {
	Logins             *prometheus.CounterVec
	RefreshRotations   prometheus.Counter
	RefreshReplays     prometheus.Counter
	SessionsCreated    prometheus.Counter
	SessionsTerminated prometheus.Counter
	RateLimited        *prometheus.CounterVec
	DegradedEntries    prometheus.Counter
	StoreErrors        *prometheus.CounterVec
	AccessValidations  *prometheus.CounterVec
}

// New creates and registers the instrument set.
func New(reg prometheus.Registerer) *Set {
	m := &Set{
		Logins: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authplane_logins_total",
				Help: "Login attempts by outcome (success, invalid, locked, error)",
			},
			[]string{"outcome"},
		),
		RefreshRotations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "authplane_refresh_rotations_total",
				Help: "Refresh credentials successfully rotated",
			},
		),
		RefreshReplays: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "authplane_refresh_replays_total",
				Help: "Rotated or revoked refresh credentials presented again",
			},
		),
		SessionsCreated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "authplane_sessions_created_total",
				Help: "Sessions created by successful logins",
			},
		),
		SessionsTerminated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "authplane_sessions_terminated_total",
				Help: "Sessions terminated by logout, logout-all, or password change",
			},
		),
		RateLimited: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authplane_rate_limited_total",
				Help: "Requests rejected by the rate limiter, by scope",
			},
			[]string{"scope"},
		),
		DegradedEntries: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "authplane_rate_limiter_degraded_total",
				Help: "Times the rate limiter entered local fallback mode",
			},
		),
		StoreErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authplane_store_errors_total",
				Help: "Backend failures by store (session, refresh, cache, guard)",
			},
			[]string{"store"},
		),
		AccessValidations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authplane_access_validations_total",
				Help: "Access credential validations by outcome (valid, expired, invalid, session_invalid, unavailable)",
			},
			[]string{"outcome"},
		),
	}

	reg.MustRegister(
		m.Logins,
		m.RefreshRotations,
		m.RefreshReplays,
		m.SessionsCreated,
		m.SessionsTerminated,
		m.RateLimited,
		m.DegradedEntries,
		m.StoreErrors,
		m.AccessValidations,
	)

	return m
}
