package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type contextKey string

// SessionCookieName carries the anonymous cart session id.
const SessionCookieName = "cart_session"

const sessionIDKey contextKey = "session_id"

const sessionMaxAge = 30 * 24 * 60 * 60 // seconds, matches the cart TTL

// SessionMiddleware assigns every visitor a stable anonymous session id used
// to key their cart.
func SessionMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var sessionID string
			if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
				sessionID = cookie.Value
			} else {
				sessionID = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookieName,
					Value:    sessionID,
					Path:     "/",
					MaxAge:   sessionMaxAge,
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := context.WithValue(r.Context(), sessionIDKey, sessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSessionID extracts the session id set by SessionMiddleware.
func GetSessionID(ctx context.Context) (string, bool) {
	sessionID, ok := ctx.Value(sessionIDKey).(string)
	return sessionID, ok && sessionID != ""
}
