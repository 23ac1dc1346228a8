// Package password implements the credential pass/fail contract with
// bcrypt.
//
// The engine only consumes Compare; Hash exists for the collaborating
// user-management service and for tests. Compare against a missing
// account goes through the same bcrypt work via a fixed dummy hash so
// lookup misses and password mismatches take comparable time.
//
// This package owns hashing and verification only. It never stores
// passwords and never logs plaintext.
package password
