package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	apperrors "staybook/pkg/errors"
)

const InternalTokenHeader = "X-Internal-Token"

// InternalToken guards service-to-service lock routes. Only confirm and
// release endpoints require the shared token; catalog reads stay open.
func InternalToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isInternalPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			got := r.Header.Get(InternalTokenHeader)
			if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				apperrors.WriteError(w, apperrors.Forbidden("Invalid internal token"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isInternalPath(path string) bool {
	return strings.HasSuffix(path, "/confirm-availability") || strings.HasSuffix(path, "/release")
}
