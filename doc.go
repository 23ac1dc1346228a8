// Package authplane is the identity control plane for a set of
// cooperating microservices: signed access credentials, rotating
// refresh credentials with replay detection, PostgreSQL-backed
// sessions with a Redis cache, login brute-force guarding, and
// per-key request rate limiting with a degraded local fallback.
//
// The package is designed for concurrent server workloads: Engine
// methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Architecture boundaries
//
// authplane is the public surface. It exposes [Engine], [Builder],
// [Config], and value types ([TokenPair], [Identity],
// [RateLimitResult]). Counter mechanics, audit dispatch, and metric
// registration live under internal/. Storage implementations live in
// store/postgres and are injected through the small interfaces in
// session and token; the engine never names a concrete store.
//
// # Failure asymmetry
//
// The rate limiter fails open: its backend going down must not block
// requests. Identity verification fails closed: a store outage
// surfaces as [ErrStoreUnavailable], never as a session or credential
// judgement.
package authplane
