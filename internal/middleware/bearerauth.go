// Package middleware provides HTTP middlewares for authentication and logging.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/atinyakov/TaskTracker/internal/apperr"
)

type ctxKey string

const (
	userKey  ctxKey = "user"
	tokenKey ctxKey = "token"
)

// TokenValidator resolves a bearer token to the id of the user it belongs to.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (string, error)
}

// BearerAuth is a middleware that requires an "Authorization: Bearer <token>"
// header naming a live session.
//
// On success the user ID and the raw token are stored in the request context,
// so handlers can scope their work to the caller and logout can revoke the
// exact token that was presented.
func BearerAuth(v TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "Please authenticate.")
				return
			}

			userID, err := v.Validate(r.Context(), token)
			if err != nil {
				status := apperr.HTTPStatus(err)
				if status == http.StatusUnauthorized {
					writeError(w, status, "Please authenticate.")
				} else {
					writeError(w, http.StatusInternalServerError, "internal error")
				}
				return
			}

			ctx := context.WithValue(r.Context(), userKey, userID)
			ctx = context.WithValue(ctx, tokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// GetUserIDFromContext extracts the authenticated user ID from the request
// context. Returns an empty string if not found.
func GetUserIDFromContext(ctx context.Context) string {
	val := ctx.Value(userKey)
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}

// GetTokenFromContext returns the bearer token the request was authenticated with.
func GetTokenFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(tokenKey).(string); ok {
		return s
	}
	return ""
}
