// Package session tracks authenticated sessions across two tiers: a
// persistent [Store] that owns the record, and a fast [Cache] that fronts
// the validation hot path.
//
// Creation writes through to both tiers. Validation is cache-aside: a cache
// hit answers immediately, a miss falls back to the store and repopulates
// the cache. Sessions carry an absolute TTL set at creation — activity
// never extends a session's life.
//
// A store outage is reported as [ErrStoreUnavailable], never as an invalid
// session. Collapsing the two would log out every active user for the
// duration of the outage.
package session
