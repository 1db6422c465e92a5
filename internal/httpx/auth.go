package httpx

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// RequireAuth is the boundary to the session system: callers present a
// bearer token and anything that does not match is rejected before the
// handler runs. Real user/session issuance lives outside this service.
func RequireAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				// no token configured: auth disabled (local dev)
				next.ServeHTTP(w, r)
				return
			}
			got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
