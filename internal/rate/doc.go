// Package rate enforces per-key request quotas over a fixed time window.
//
// Counters live in Redis so limits hold across instances. A Lua script
// makes the increment and window-expiry check race-free: the count and
// the remaining window TTL come back from a single atomic call.
//
// # Window semantics
//
// Fixed-window counters: one INCR per request, PEXPIRE on the first hit
// in the window. Fixed windows permit up to roughly double a quota
// across a window boundary; they were chosen over sliding windows
// because they cost one counter per key instead of a timestamp set.
//
// # Degraded mode
//
// The limiter fails open. When Redis is unreachable it falls back to a
// bounded process-local counter (explicitly inconsistent across
// instances) and logs a warning once per outage, not once per request.
// A backend error never blocks a request.
package rate
