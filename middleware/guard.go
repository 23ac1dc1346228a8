package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/kestrelsec/authplane"
)

type identityContextKey struct{}

// AccessValidator is the slice of the engine the guard needs.
type AccessValidator interface {
	ValidateAccess(ctx context.Context, accessToken string) (*authplane.Identity, error)
}

// IdentityFromContext returns the identity injected by [Guard].
func IdentityFromContext(ctx context.Context) (*authplane.Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(*authplane.Identity)
	return id, ok
}

// Guard rejects requests without a valid bearer credential. Rejections
// are 401; a backend outage is 503 because no verdict was reached.
func Guard(validator AccessValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			identity, err := validator.ValidateAccess(r.Context(), tok)
			if err != nil {
				if errors.Is(err, authplane.ErrStoreUnavailable) {
					http.Error(w, "service unavailable", http.StatusServiceUnavailable)
					return
				}
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), identityContextKey{}, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}

// ClientIP extracts the caller address, preferring X-Forwarded-For
// set by a trusted proxy.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i > 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
