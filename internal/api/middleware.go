package api

import (
	"net/http"
	"strings"

	"github.com/solohub/braind/internal/logging"
)

// userID extracts the caller-supplied user id from the x-user-id header,
// falling back to a bearer Authorization header. This is identification,
// not authentication: the value is trusted as-is.
func userID(r *http.Request) string {
	if v := r.Header.Get("x-user-id"); v != "" {
		return v
	}
	auth := r.Header.Get("Authorization")
	return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
}

// requireUser rejects requests without a user id and stores it on the
// request context for correlation logging.
func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid := userID(r)
		if uid == "" {
			writeErrorMsg(w, http.StatusUnauthorized, "user id is required")
			return
		}
		next.ServeHTTP(w, r.WithContext(logging.WithUserID(r.Context(), uid)))
	})
}
