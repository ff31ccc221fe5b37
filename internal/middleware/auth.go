package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

const (
	// UserIDHeader carries the authenticated user's ID, set by the edge
	// gateway after it has verified the session. This service trusts it.
	UserIDHeader = "X-User-ID"

	// UserIDContextKey is the context key for the authenticated user ID.
	UserIDContextKey contextKey = "user_id"
)

// RequireUser rejects requests without a valid X-User-ID header and stores
// the parsed ID in the request context.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(UserIDHeader)
		if raw == "" {
			respondUnauthorized(w, r)
			return
		}

		userID, err := uuid.Parse(raw)
		if err != nil {
			respondUnauthorized(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), UserIDContextKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserID retrieves the authenticated user ID from the context.
// Returns uuid.Nil when the request was not authenticated.
func GetUserID(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(UserIDContextKey).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}
