// Package middleware carries request-scoped identity helpers.
//
// Authentication itself is handled upstream (a gateway terminates the
// session and forwards the caller's user id); this package only moves
// that identity into the request context for handlers to consume.
package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/fairsplit/fairsplit/pkg/response"
)

// contextKey is unexported so other packages cannot collide with it.
type contextKey string

const userIDKey contextKey = "user_id"

// userIDHeader is the header the upstream gateway sets after
// authenticating the caller.
const userIDHeader = "X-User-ID"

// RequireUser extracts the caller's user id from the forwarded header
// and rejects requests that lack a well-formed one.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(userIDHeader)
		if userID == "" {
			response.Unauthorized(w, "missing "+userIDHeader+" header")
			return
		}
		if _, err := uuid.Parse(userID); err != nil {
			response.Unauthorized(w, "malformed user id")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserID returns the authenticated user id from the context.
func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey).(string)
	return userID, ok && userID != ""
}

// WithUserID returns a context carrying the given user id. Intended for
// tests and internal calls that bypass the HTTP layer.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}
