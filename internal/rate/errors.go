package rate

import "errors"

var (
	// ErrRateLimited reports that a key exhausted its quota for the
	// current window.
	ErrRateLimited = errors.New("rate limited")
	// ErrUnknownScope reports an Allow call for a scope with no
	// configured quota.
	ErrUnknownScope = errors.New("unknown rate limit scope")
)
