package middleware

import (
	"log"
	"net/http"

	"github.com/vcubone/library-boot/internal/apperr"
	"github.com/vcubone/library-boot/internal/auth"
	"github.com/vcubone/library-boot/internal/services/iam"
)

// BearerAuth is the pre-authentication step of the stateless surface.
//
// Flow:
//  1. If an earlier step already authenticated the request, pass through
//  2. Run the authenticator against the Authorization header
//  3. (nil, nil): no bearer credentials, continue anonymously
//  4. (nil, err): answer with the error payload and stop
//  5. (result, nil): store the principal and continue
//
// Authorization of anonymous requests is left to the Authorize middleware.
func BearerAuth(authenticator iam.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if auth.PrincipalFrom(ctx).IsAuthenticated() {
				next.ServeHTTP(w, r)
				return
			}

			result, err := authenticator.Authenticate(ctx, iam.NewAuthRequest(r))
			if err != nil {
				log.Printf("bearer authentication failed for %s %s: %v", r.Method, r.URL.Path, err)
				apperr.Write(w, err)
				return
			}
			if result == nil {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(ctx, result.Principal)))
		})
	}
}
