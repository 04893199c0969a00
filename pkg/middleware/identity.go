package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	apperrors "staybook/pkg/errors"
)

const UserIDKey contextKey = "user_id"

// Identity authenticates requests with an HS256 bearer token and places the
// subject's user id on the request context.
func Identity(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				apperrors.WriteError(w, apperrors.Unauthorized("Missing authorization header"))
				return
			}

			tokenStr, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				apperrors.WriteError(w, apperrors.Unauthorized("Invalid authorization header"))
				return
			}

			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				apperrors.WriteError(w, apperrors.Unauthorized("Invalid or expired token"))
				return
			}

			userID, err := claims.GetSubject()
			if err != nil || userID == "" {
				apperrors.WriteError(w, apperrors.Unauthorized("Token has no subject"))
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext returns the authenticated user id, if any.
func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok && userID != ""
}
