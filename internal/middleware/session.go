package middleware

import (
	"errors"
	"log"
	"net/http"

	"github.com/vcubone/library-boot/internal/apperr"
	"github.com/vcubone/library-boot/internal/auth"
	"github.com/vcubone/library-boot/internal/services/iam"
)

// SessionLoader attaches the principal of the session cookie to the request.
// An unknown or expired session continues anonymously and the cookie is
// cleared, so the policy decides whether the page needs a fresh login.
func SessionLoader(sessions *iam.SessionAuthenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			result, err := sessions.Authenticate(ctx, iam.NewAuthRequest(r))
			switch {
			case errors.Is(err, iam.ErrSessionNotFound), errors.Is(err, iam.ErrSessionExpired):
				ClearSessionCookie(w, sessions.CookieName())
				next.ServeHTTP(w, r)
				return
			case err != nil:
				log.Printf("session lookup failed: %v", err)
				apperr.Write(w, err)
				return
			case result == nil:
				next.ServeHTTP(w, r)
				return
			}

			ctx = auth.WithPrincipal(ctx, result.Principal)
			ctx = auth.WithSession(ctx, result.SessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SetSessionCookie writes the session handle cookie.
func SetSessionCookie(w http.ResponseWriter, name, token string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session handle cookie in the browser.
func ClearSessionCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
