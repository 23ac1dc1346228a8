// Package token signs and verifies the two credential kinds issued by the
// engine: short-lived access tokens and server-tracked refresh tokens.
//
// Both are HS256 JWTs. Access tokens are self-contained and never persisted;
// refresh tokens additionally map to a persisted [RefreshRecord] so the
// server can enforce single use and detect replay after rotation.
//
// Verification deliberately collapses every malformed-input and
// signature-mismatch case into a single invalid error. Callers must not be
// able to distinguish "garbage" from "forged" — only expiry is reported
// separately.
package token
