package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"gorm.io/gorm"
)

// Middleware creates an HTTP middleware that extracts and injects authentication context.
// This middleware:
// 1. Extracts the Authorization header
// 2. Verifies the bearer token to get the user ID
// 3. Loads the user from the database
// 4. Injects the auth context into the request
//
// If any step fails (missing token, invalid token, user not found),
// the request proceeds without auth context. Handlers should check for context availability.
//
// This design allows:
// - Public endpoints (no auth required)
// - Protected endpoints (wrapped in RequireAuth/RequireAdmin)
// - Optional auth endpoints (use context if available)
func Middleware(authService *AuthService, tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")

			// If no Authorization header, continue without auth context
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := tokens.ParseHeader(authHeader)
			if err != nil {
				slog.Warn("failed to verify bearer token",
					"error", err,
					"auth_header_length", len(authHeader),
				)
				next.ServeHTTP(w, r)
				return
			}

			user, err := authService.GetUser(r.Context(), userID)
			if err != nil {
				if !errors.Is(err, gorm.ErrRecordNotFound) {
					slog.Warn("failed to load user for token",
						"user_id", userID,
						"error", err,
					)
				}
				next.ServeHTTP(w, r)
				return
			}

			authCtx := &AuthContext{User: user}
			ctx := context.WithValue(r.Context(), AuthContextKey, authCtx)
			r = r.WithContext(ctx)

			slog.Debug("auth context injected", "user_id", user.ID, "role", user.Role)

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth returns a middleware that requires authentication.
// If no auth context is found, returns 401 Unauthorized.
func RequireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx := GetAuthContext(r.Context())
			if authCtx == nil {
				slog.Warn("authentication required but not provided",
					"method", r.Method,
					"path", r.URL.Path,
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"authentication required"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin returns a middleware that requires an authenticated admin user.
// The role is always taken from the DB-loaded user, never from the request.
func RequireAdmin() func(http.Handler) http.Handler {
	requireAuth := RequireAuth()

	return func(next http.Handler) http.Handler {
		return requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx := GetAuthContext(r.Context())
			if !authCtx.IsAdmin() {
				slog.Warn("admin access denied",
					"user_id", authCtx.ID,
					"method", r.Method,
					"path", r.URL.Path,
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"admin access required"}`))
				return
			}

			next.ServeHTTP(w, r)
		}))
	}
}
