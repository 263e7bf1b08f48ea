package middleware

import (
	"context"
	"errors"
	"net/http"

	"chatgrid/internal/domain"
	"chatgrid/internal/token"
)

type contextKey string

const claimsKey contextKey = "claims"

// SessionCookieName is the cookie carrying the session JWT
const SessionCookieName = "session"

// UserLookup confirms that a user id refers to an existing account
type UserLookup interface {
	GetUserByID(ctx context.Context, userID int64) (*domain.User, error)
}

// UserAuth validates the session JWT and confirms the subject still exists.
// On success the claims are attached to the request context.
func UserAuth(tokens *token.Manager, users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil {
				http.Error(w, `{"error":"invalid credentials"}`, http.StatusUnauthorized)
				return
			}

			claims, err := tokens.Decode(cookie.Value)
			if err != nil {
				http.Error(w, `{"error":"invalid credentials"}`, http.StatusUnauthorized)
				return
			}

			if _, err := users.GetUserByID(r.Context(), claims.Sub); err != nil {
				if errors.Is(err, domain.ErrUserNotFound) {
					http.Error(w, `{"error":"invalid credentials"}`, http.StatusUnauthorized)
				} else {
					http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
				}
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetClaims returns the session claims attached by UserAuth
func GetClaims(ctx context.Context) (*token.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*token.Claims)
	return claims, ok
}

// WithClaims attaches claims to a context, used by tests
func WithClaims(ctx context.Context, claims *token.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}
