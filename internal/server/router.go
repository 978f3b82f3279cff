package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/vcubone/library-boot/internal/auth"
	"github.com/vcubone/library-boot/internal/auth/policy"
	"github.com/vcubone/library-boot/internal/config"
	"github.com/vcubone/library-boot/internal/middleware"
	"github.com/vcubone/library-boot/internal/services/books"
	"github.com/vcubone/library-boot/internal/services/iam"
	"github.com/vcubone/library-boot/internal/services/people"
	"github.com/vcubone/library-boot/internal/telemetry"
)

// RouterOptions controls the construction of the library HTTP router.
// People, Books, Resolver, Codec and Registry are required; the rest fall
// back to defaults.
type RouterOptions struct {
	People   *people.Service
	Books    *books.Service
	Resolver *iam.IdentityResolver
	Codec    *auth.TokenCodec
	Registry *iam.SessionRegistry
	// Versions is the optional identity version cache read by the
	// consistency filter.
	Versions *iam.VersionCache

	Web           config.WebConfig
	CookieName    string
	SecureCookies bool

	AuthMetrics    *telemetry.AuthMetrics
	ServerMetrics  *telemetry.ServerMetrics
	SessionMetrics *telemetry.SessionMetrics

	CORSOptions   *cors.Options
	Middleware    []func(http.Handler) http.Handler
	HealthHandler http.HandlerFunc
}

// DefaultCORSOptions returns the CORS policy of the API surface.
func DefaultCORSOptions() cors.Options {
	return cors.Options{
		AllowedOrigins: []string{
			"http://localhost:5173",
			"http://127.0.0.1:5173",
			"http://localhost:8080",
		},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         300,
	}
}

func defaultHealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// NewRouter assembles the two surfaces on one chi.Router: the stateless
// bearer-token API under /api and the stateful session surface everywhere else.
func NewRouter(opts RouterOptions) chi.Router {
	r := chi.NewRouter()

	// Baseline middleware shared across entrypoints.
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestMetrics(opts.ServerMetrics))

	for _, mw := range opts.Middleware {
		if mw != nil {
			r.Use(mw)
		}
	}

	web := withWebDefaults(opts.Web)
	cookieName := opts.CookieName
	if cookieName == "" {
		cookieName = "LIBRARYSESSION"
	}

	healthHandler := opts.HealthHandler
	if healthHandler == nil {
		healthHandler = defaultHealthHandler
	}
	r.Get("/health", healthHandler)

	bookHandlers := NewBookHandlers(opts.Books)
	peopleHandlers := NewPeopleHandlers(opts.People)
	accountHandlers := NewAccountHandlers(opts.People)

	corsCfg := DefaultCORSOptions()
	if opts.CORSOptions != nil {
		corsCfg = *opts.CORSOptions
	}

	r.Route(policy.APIPrefix, func(r chi.Router) {
		r.Use(cors.Handler(corsCfg))
		r.Use(middleware.BearerAuth(iam.NewBearerAuthenticator(opts.Resolver, opts.AuthMetrics)))
		r.Use(middleware.AuthorizeAPI(policy.APIChain()))

		r.Get("/", handleAPIIndex)
		r.Get("/error", handleError)
		r.Post("/auth/register", HandleAPIRegister(opts.People, opts.Codec))
		r.Post("/auth/login", HandleAPILogin(opts.Resolver, opts.Codec, opts.AuthMetrics))

		bookHandlers.Mount(r)
		peopleHandlers.Mount(r)
		accountHandlers.Mount(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionLoader(iam.NewSessionAuthenticator(opts.Registry, cookieName)))
		r.Use(middleware.SessionConsistency(opts.Resolver, opts.Registry, opts.Versions, opts.SessionMetrics))
		r.Use(middleware.AuthorizeWeb(policy.WebChain(policy.WebPaths{
			LoginPage:       web.LoginPage,
			LoginProcessing: web.LoginProcessing,
			Logout:          web.Logout,
		}), web.LoginPage))

		r.Get("/", handleHome)
		r.Get("/error", handleError)
		r.Get("/admin", handleAdminHome)
		r.Get(web.LoginPage, handleLoginPage(web.LoginProcessing))
		r.Post("/auth/register", HandleFormRegister(opts.People, web.LoginPage))
		r.Post(web.LoginProcessing, HandleFormLogin(opts.Resolver, opts.Registry, web, cookieName, opts.SecureCookies, opts.AuthMetrics, opts.SessionMetrics))

		logout := HandleLogout(opts.Registry, cookieName)
		r.Get(web.Logout, logout)
		r.Post(web.Logout, logout)

		bookHandlers.Mount(r)
		peopleHandlers.Mount(r)
		accountHandlers.Mount(r)
	})

	return r
}

// withWebDefaults fills unset form-login paths; the login page path is
// used as a route, so query strings are not allowed there.
func withWebDefaults(web config.WebConfig) config.WebConfig {
	if web.LoginPage == "" {
		web.LoginPage = "/auth/login"
	}
	if web.LoginProcessing == "" {
		web.LoginProcessing = "/process_login"
	}
	if web.LoginSuccess == "" {
		web.LoginSuccess = "/"
	}
	if web.LoginFailure == "" {
		web.LoginFailure = web.LoginPage + "?error"
	}
	if web.Logout == "" {
		web.Logout = "/logout"
	}
	return web
}

// NewH2CHandler wraps the router with an h2c server to provide HTTP/2 over
// cleartext.
func NewH2CHandler(opts RouterOptions) http.Handler {
	return h2c.NewHandler(NewRouter(opts), &http2.Server{})
}
