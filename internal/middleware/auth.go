// Package middleware provides HTTP middlewares for authentication, logging
// and rate limiting.
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/atinyakov/taskmanager/internal/models"
	"go.uber.org/zap"
)

type ctxKey string

const (
	userKey  ctxKey = "user"
	tokenKey ctxKey = "token"
)

// Verifier resolves a bearer token to the user it belongs to.
type Verifier interface {
	Verify(ctx context.Context, raw string) (*models.User, string, error)
}

// BearerAuth rejects requests without a valid, unrevoked bearer token.
//
// On success the resolved user and the raw token are stored in the request
// context and can be read back with UserFromContext and TokenFromContext.
func BearerAuth(v Verifier, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Vary", "Authorization")

			raw, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				unauthorized(w)
				return
			}

			u, token, err := v.Verify(r.Context(), raw)
			if errors.Is(err, models.ErrUnauthorized) {
				unauthorized(w)
				return
			}
			if err != nil {
				log.Error("failed to verify session", zap.Error(err))
				writeJSONError(w, http.StatusInternalServerError, "internal server error")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u, token)))
		})
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func unauthorized(w http.ResponseWriter) {
	writeJSONError(w, http.StatusUnauthorized, "Please authenticate.")
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// UserFromContext returns the authenticated user, or nil outside BearerAuth.
func UserFromContext(ctx context.Context) *models.User {
	u, _ := ctx.Value(userKey).(*models.User)
	return u
}

// TokenFromContext returns the bearer token the request authenticated with.
func TokenFromContext(ctx context.Context) string {
	s, _ := ctx.Value(tokenKey).(string)
	return s
}

// WithUser stores u and token in ctx the same way BearerAuth does.
func WithUser(ctx context.Context, u *models.User, token string) context.Context {
	ctx = context.WithValue(ctx, userKey, u)
	return context.WithValue(ctx, tokenKey, token)
}
