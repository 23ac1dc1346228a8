// Package verifier implements the cross-service credential
// verification contract: a dependent service that does not hold the
// signing secret validates an access credential by calling the issuing
// service.
//
// [Handler] is mounted by the issuing service; [Client] is embedded by
// dependents. The wire contract distinguishes three outcomes: the
// credential is valid (200 with the principal's identity), the
// credential is rejected (401 with a machine-readable reason), or the
// verdict is unavailable (503, the issuing service could not check).
// Clients must not treat unavailability as rejection.
package verifier
