// Package middleware exposes HTTP adapters over the engine: a bearer
// credential guard and a rate limit gate.
//
// [Guard] reads the Authorization header, validates the credential
// end to end, and injects the resulting identity into the request
// context. A store outage produces 503, not 401: the guard refuses to
// call a credential invalid when it could not check.
//
// [RateLimit] counts the request against a scope quota and sets the
// X-RateLimit-* headers; rejections get 429 with Retry-After.
//
// This package translates HTTP semantics into Engine calls and makes
// no authentication decisions of its own.
package middleware
