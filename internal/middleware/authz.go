package middleware

import (
	"log"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vcubone/library-boot/internal/apperr"
	"github.com/vcubone/library-boot/internal/auth"
	"github.com/vcubone/library-boot/internal/auth/policy"
	"github.com/vcubone/library-boot/internal/telemetry"
)

const (
	msgFullAuthentication = "Full authentication is required to access this resource"
	msgAccessDenied       = "Access is denied"
)

// AuthorizeAPI enforces chain on the stateless surface: unauthenticated
// requests get 401 and forbidden ones 403, both as JSON payloads.
func AuthorizeAPI(chain *policy.Chain) func(http.Handler) http.Handler {
	return authorize(chain, func(w http.ResponseWriter, r *http.Request) {
		apperr.WriteStatus(w, http.StatusUnauthorized, msgFullAuthentication)
	})
}

// AuthorizeWeb enforces chain on the stateful surface: unauthenticated
// requests are redirected to loginPage, forbidden ones get a 403 payload.
func AuthorizeWeb(chain *policy.Chain, loginPage string) func(http.Handler) http.Handler {
	return authorize(chain, func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, loginPage, http.StatusFound)
	})
}

func authorize(chain *policy.Chain, unauthenticated http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := auth.PrincipalFrom(r.Context())
			decision, rule := chain.EvaluateRequest(r.Method, r.URL.Path, p)
			trace.SpanFromContext(r.Context()).SetAttributes(
				attribute.String(telemetry.AttrPolicyChain, chain.Name),
				attribute.String(telemetry.AttrPolicyDecision, decision.String()),
			)

			switch decision {
			case policy.Allow:
				next.ServeHTTP(w, r)
			case policy.Unauthenticated:
				unauthenticated(w, r)
			default:
				log.Printf("%s chain denied %s %s for %s (rule %s)", chain.Name, r.Method, r.URL.Path, p, rule.Pattern)
				apperr.WriteStatus(w, http.StatusForbidden, msgAccessDenied)
			}
		})
	}
}
