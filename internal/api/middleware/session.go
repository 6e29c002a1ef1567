package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"

	"msgboard/internal/app/session"
	"msgboard/internal/common"
	"msgboard/internal/common/security"
	"msgboard/internal/domain/model"
)

const SessionCookieName = "session_id"

type contextKey string

const (
	currentUserCtxKey contextKey = "currentUser"
	sessionIDCtxKey   contextKey = "sessionID"
)

// WithSession resolves the session cookie into an immutable identity
// snapshot on the request context. Requests without a valid session stay
// anonymous; a session-store failure is logged and treated the same way.
func WithSession(sessions session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := sessions.Get(r.Context(), cookie.Value)
			if err != nil {
				if !errors.Is(err, common.ErrNotFound) {
					log.Printf("session lookup failed: %v", err)
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), currentUserCtxKey, user)
			ctx = context.WithValue(ctx, sessionIDCtxKey, cookie.Value)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser gates routes that need an authenticated session. Anonymous
// requests get a generic redirect home, never a dereference fault.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetCurrentUserFromContext(r.Context()); !ok {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// VerifyCSRF checks the _csrf form field against the request's session.
func VerifyCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := GetSessionIDFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
		if err := security.VerifyCSRFToken(r.FormValue("_csrf"), sessionID); err != nil {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Helper to get the current user from context
func GetCurrentUserFromContext(ctx context.Context) (*model.CurrentUser, bool) {
	user, ok := ctx.Value(currentUserCtxKey).(*model.CurrentUser)
	return user, ok
}

// Helper to get the session ID from context
func GetSessionIDFromContext(ctx context.Context) (string, bool) {
	sessionID, ok := ctx.Value(sessionIDCtxKey).(string)
	return sessionID, ok
}
