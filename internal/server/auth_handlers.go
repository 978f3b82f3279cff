package server

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/vcubone/library-boot/internal/apperr"
	"github.com/vcubone/library-boot/internal/auth"
	"github.com/vcubone/library-boot/internal/config"
	"github.com/vcubone/library-boot/internal/middleware"
	"github.com/vcubone/library-boot/internal/services/iam"
	"github.com/vcubone/library-boot/internal/services/people"
	"github.com/vcubone/library-boot/internal/telemetry"
)

// credentialChecker is the slice of the IdentityResolver the login handlers need.
type credentialChecker interface {
	Authenticate(ctx context.Context, username, password string) (auth.Principal, error)
}

// HandleAPIRegister creates an account and answers with a bearer token for it.
func HandleAPIRegister(svc *people.Service, codec *auth.TokenCodec) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registrationRequest
		if err := decodeJSON(r, &req); err != nil {
			apperr.Write(w, err)
			return
		}

		person, err := svc.Register(r.Context(), people.RegisterInput(req))
		if err != nil {
			apperr.Write(w, err)
			return
		}

		token, err := codec.Issue(person.Username)
		if err != nil {
			apperr.Write(w, apperr.Internal(err))
			return
		}
		writeJSON(w, http.StatusOK, tokenResponse{Token: token})
	}
}

// HandleAPILogin exchanges a username and password for a bearer token.
func HandleAPILogin(resolver credentialChecker, codec *auth.TokenCodec, metrics *telemetry.AuthMetrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		var req credentialsRequest
		if err := decodeJSON(r, &req); err != nil {
			apperr.Write(w, err)
			return
		}

		p, err := resolver.Authenticate(r.Context(), req.Username, req.Password)
		metrics.RecordAuth(r.Context(), "api_login", err == nil, elapsedMs(start))
		if err != nil {
			apperr.Write(w, err)
			return
		}

		id, _ := p.Identity()
		token, err := codec.Issue(id.Username)
		if err != nil {
			apperr.Write(w, apperr.Internal(err))
			return
		}
		writeJSON(w, http.StatusOK, tokenResponse{Token: token})
	}
}

// HandleFormLogin processes the login form of the web surface. A successful
// login registers a session, evicting the oldest ones past the per-identity
// cap, and redirects to the success page. Failures redirect to the failure page.
func HandleFormLogin(resolver credentialChecker, registry *iam.SessionRegistry, web config.WebConfig, cookieName string, secure bool, authMetrics *telemetry.AuthMetrics, sessionMetrics *telemetry.SessionMetrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		if err := r.ParseForm(); err != nil {
			http.Redirect(w, r, web.LoginFailure, http.StatusFound)
			return
		}

		username := r.PostFormValue("username")
		p, err := resolver.Authenticate(r.Context(), username, r.PostFormValue("password"))
		authMetrics.RecordAuth(r.Context(), "form", err == nil, elapsedMs(start))
		if err != nil {
			if apperr.KindOf(err) == apperr.KindInternal {
				log.Printf("form login for %q failed: %v", username, err)
			}
			http.Redirect(w, r, web.LoginFailure, http.StatusFound)
			return
		}

		token, _, evicted, err := registry.Register(p)
		if err != nil {
			log.Printf("register session for %q: %v", username, err)
			apperr.Write(w, apperr.Internal(err))
			return
		}
		if len(evicted) > 0 {
			log.Printf("evicted %d session(s) of %s past the concurrent session cap", len(evicted), p)
			sessionMetrics.RecordEvicted(r.Context(), len(evicted))
		}

		middleware.SetSessionCookie(w, cookieName, token, secure)
		http.Redirect(w, r, web.LoginSuccess, http.StatusFound)
	}
}

// HandleLogout removes the current session, if any, and redirects home.
func HandleLogout(registry *iam.SessionRegistry, cookieName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sessionID, ok := auth.SessionFrom(r.Context()); ok {
			registry.Remove(sessionID)
		}
		middleware.ClearSessionCookie(w, cookieName)
		http.Redirect(w, r, "/", http.StatusFound)
	}
}

// HandleFormRegister creates an account from the registration form and
// redirects to the login page.
func HandleFormRegister(svc *people.Service, loginPage string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, err := registrationForm(r)
		if err != nil {
			apperr.Write(w, err)
			return
		}
		if _, err := svc.Register(r.Context(), in); err != nil {
			apperr.Write(w, err)
			return
		}
		http.Redirect(w, r, loginPage, http.StatusFound)
	}
}

// registrationForm reads a registration from a urlencoded form, or from a
// JSON body when the request carries one.
func registrationForm(r *http.Request) (people.RegisterInput, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req registrationRequest
		if err := decodeJSON(r, &req); err != nil {
			return people.RegisterInput{}, err
		}
		return people.RegisterInput(req), nil
	}

	if err := r.ParseForm(); err != nil {
		return people.RegisterInput{}, apperr.Wrap(apperr.KindValidation, "malformed form", err)
	}
	year, err := formInt(r, "yearOfBirth")
	if err != nil {
		return people.RegisterInput{}, err
	}
	return people.RegisterInput{
		Username:    r.PostFormValue("username"),
		Password:    r.PostFormValue("password"),
		FullName:    r.PostFormValue("fullName"),
		YearOfBirth: year,
	}, nil
}

func elapsedMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}
