package middleware

import (
	"context"
	"net/http"
	"strings"

	jwtutil "github.com/crewsync/crewsync/pkg/jwt"
	"github.com/sirupsen/logrus"
)

type contextKey string

const userContextKey contextKey = "user"

// AuthMiddleware validates the Bearer token and stores the claims in the
// request context.
func AuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logrus.Warn("Missing Authorization header")
				http.Error(w, "Missing Authorization header", http.StatusUnauthorized)
				return
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				logrus.Warn("Malformed Authorization header")
				http.Error(w, "Malformed Authorization header", http.StatusUnauthorized)
				return
			}

			claims, err := jwtutil.ParseToken(tokenString, secret)
			if err != nil {
				logrus.WithError(err).Warn("Invalid token")
				http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserFromContext returns the claims of the authenticated user, or nil.
func GetUserFromContext(ctx context.Context) *jwtutil.Claims {
	claims, ok := ctx.Value(userContextKey).(*jwtutil.Claims)
	if !ok {
		return nil
	}
	return claims
}

// RequireRole rejects requests whose authenticated user lacks the role.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetUserFromContext(r.Context())
			if claims == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			if claims.Role != role {
				logrus.WithFields(logrus.Fields{
					"userID": claims.UserID,
					"role":   claims.Role,
				}).Warn("Role check failed")
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithTestUser injects claims into the request context for handler tests.
func WithTestUser(r *http.Request, claims *jwtutil.Claims) *http.Request {
	ctx := context.WithValue(r.Context(), userContextKey, claims)
	return r.WithContext(ctx)
}
