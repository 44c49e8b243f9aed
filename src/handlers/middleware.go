// backend/src/handlers/middleware.go
package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/username/freightpay/backend/src/config"
	"github.com/username/freightpay/backend/src/logger"
	"github.com/username/freightpay/backend/src/security"
	"github.com/username/freightpay/backend/src/utils"
)

type contextKey string

const (
	subjectContextKey contextKey = "subject"
	roleContextKey    contextKey = "role"
)

// GetSubjectFromContext returns the authenticated caller's id and role
// as placed there by AuthMiddleware.
func GetSubjectFromContext(ctx context.Context) (string, string, bool) {
	subject, ok := ctx.Value(subjectContextKey).(string)
	if !ok {
		return "", "", false
	}
	role, _ := ctx.Value(roleContextKey).(string)
	return subject, role, true
}

// AuthMiddleware validates the bearer token and stashes the subject in
// the request context. AUTH_DISABLED skips it entirely for local
// development against the consoles.
func AuthMiddleware(auth *security.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if config.Cfg != nil && config.Cfg.AuthDisabled {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.L.Debug("AuthMiddleware: Authorization header missing", "path", r.URL.Path)
				utils.SendJSONError(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			tokenString := ""
			if strings.HasPrefix(authHeader, "Bearer ") {
				tokenString = strings.TrimPrefix(authHeader, "Bearer ")
			} else {
				tokenString = authHeader
			}

			if tokenString == "" {
				logger.L.Debug("AuthMiddleware: Token string empty", "path", r.URL.Path)
				utils.SendJSONError(w, "Malformed token", http.StatusUnauthorized)
				return
			}

			subject, role, err := auth.ValidateToken(tokenString)
			if err != nil {
				logger.L.Warn("AuthMiddleware: Token validation failed", "path", r.URL.Path, "error", err)
				utils.SendJSONError(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), subjectContextKey, subject)
			ctx = context.WithValue(ctx, roleContextKey, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
