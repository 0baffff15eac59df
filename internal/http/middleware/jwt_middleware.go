package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/vaxpoint/bookings/internal/http/response"
	"github.com/vaxpoint/bookings/pkg/auth"
	"github.com/vaxpoint/bookings/pkg/logger"
)

type contextKey string

const claimsKey contextKey = "claims"

// RequireAuth verifies the bearer token and, when requiredRole is
// non-empty, the caller's role. Admins pass every role gate.
func RequireAuth(jwtSecret, requiredRole string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				response.Unauthorized(w, "Missing or invalid authorization header")
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")
			claims, err := auth.Parse(token, jwtSecret)
			if err != nil {
				response.Unauthorized(w, "Invalid token")
				return
			}

			if requiredRole != "" && claims.Role != requiredRole && claims.Role != "admin" {
				response.Forbidden(w, "Insufficient permissions")
				return
			}

			ctx := context.WithValue(r.Context(), logger.UserPhoneKey, claims.Phone)
			ctx = context.WithValue(ctx, claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetClaims returns the verified claims attached by RequireAuth.
func GetClaims(r *http.Request) *auth.Claims {
	if claims, ok := r.Context().Value(claimsKey).(*auth.Claims); ok {
		return claims
	}
	return nil
}
