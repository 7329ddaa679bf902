package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"school-health-service/internal/httputil"
	"school-health-service/internal/user"
)

type contextKey string

const claimsKey contextKey = "auth_claims"

// Middleware validates the Authorization bearer token and puts the claims
// into the request context. Requests without a live session are rejected.
func Middleware(service *Service, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				logger.WarnContext(r.Context(), "missing bearer token", "path", r.URL.Path)
				httputil.RespondWithError(w, http.StatusUnauthorized, "missing token")
				return
			}

			claims, err := service.Validate(r.Context(), token)
			if err != nil {
				logger.WarnContext(r.Context(), "token rejected", "path", r.URL.Path)
				httputil.RespondWithError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimPrefix(header, "Bearer ")
	return token, token != ""
}

// WithClaims returns a context carrying the given claims, as Middleware
// would set them. Handlers under test use it instead of the full chain.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFromContext extracts the validated claims set by Middleware.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok
}

// GetUserID extracts the authenticated user id from context
func GetUserID(ctx context.Context) (int, bool) {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return 0, false
	}
	return claims.UserID, true
}

// GetRole extracts the authenticated role from context
func GetRole(ctx context.Context) (user.Role, bool) {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return "", false
	}
	return claims.Role, true
}
