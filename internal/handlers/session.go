package handlers

import (
	"net/http"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/lechic-cafe/api/internal/platform/httpx"
	"github.com/lechic-cafe/api/internal/platform/requestctx"
)

const (
	// SessionHeader carries an explicit cart session id from API clients.
	SessionHeader = "X-Cart-Session"
	// SessionCookie persists the cart session for browser clients.
	SessionCookie = "cart_session"

	maxSessionIDLength = 64
	sessionMaxAge      = 30 * 24 * 60 * 60
)

// CartSessionMiddleware resolves the cart session id for the request: the
// header wins, then the cookie, then a freshly minted id which is also set as
// a cookie so the browser keeps the same cart across visits.
func CartSessionMiddleware(mint func() string) func(http.Handler) http.Handler {
	if mint == nil {
		mint = func() string { return ulid.Make().String() }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := strings.TrimSpace(r.Header.Get(SessionHeader))
			if session == "" {
				if cookie, err := r.Cookie(SessionCookie); err == nil {
					session = strings.TrimSpace(cookie.Value)
				}
			}
			if !validSessionID(session) {
				session = ""
			}
			if session == "" {
				session = mint()
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookie,
					Value:    session,
					Path:     "/",
					MaxAge:   sessionMaxAge,
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}
			ctx := requestctx.WithCartSession(r.Context(), session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// validSessionID rejects ids that could not have been minted here or by a
// well-behaved client. Keeps storage keys and log fields bounded.
func validSessionID(id string) bool {
	if id == "" || len(id) > maxSessionIDLength {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return false
		}
	}
	return true
}

func cartSessionFromRequest(r *http.Request) (string, bool) {
	return requestctx.CartSession(r.Context())
}

func writeMissingSession(w http.ResponseWriter, r *http.Request) {
	httpx.WriteError(r.Context(), w, httpx.NewError("session_required", "cart session could not be resolved", http.StatusBadRequest))
}
