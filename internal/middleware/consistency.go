package middleware

import (
	"context"
	"log"
	"net/http"

	"github.com/vcubone/library-boot/internal/apperr"
	"github.com/vcubone/library-boot/internal/auth"
	"github.com/vcubone/library-boot/internal/services/iam"
	"github.com/vcubone/library-boot/internal/telemetry"
)

// SessionConsistency keeps session principals in step with the credential
// store. It runs after SessionLoader. When the stored version of the
// session identity is newer than the one the session carries, the identity
// is reloaded with its roles and swapped into both the session and the
// request. A session whose identity no longer exists is expired and the
// request continues anonymously.
//
// versions may be nil, in which case every check reads the store.
func SessionConsistency(resolver *iam.IdentityResolver, registry *iam.SessionRegistry, versions *iam.VersionCache, metrics *telemetry.SessionMetrics) func(http.Handler) http.Handler {
	current := resolver.CurrentVersion
	if versions != nil {
		current = versions.Current
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			sessionID, hasSession := auth.SessionFrom(ctx)
			identity, ok := auth.PrincipalFrom(ctx).Identity()
			if !hasSession || !ok {
				next.ServeHTTP(w, r)
				return
			}

			version, err := current(ctx, identity.ID)
			if err != nil {
				if apperr.IsNotFound(err) {
					next.ServeHTTP(w, r.WithContext(dropSession(ctx, registry, sessionID, identity)))
					return
				}
				apperr.Write(w, err)
				return
			}
			if identity.Version >= version {
				next.ServeHTTP(w, r)
				return
			}

			fresh, err := resolver.LoadWithRoles(ctx, identity.ID)
			if err != nil {
				if apperr.IsNotFound(err) {
					next.ServeHTTP(w, r.WithContext(dropSession(ctx, registry, sessionID, identity)))
					return
				}
				apperr.Write(w, err)
				return
			}

			p := auth.Authenticated(fresh)
			registry.ReplacePrincipal(sessionID, p)
			metrics.RecordRefreshed(ctx)

			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(ctx, p)))
		})
	}
}

func dropSession(ctx context.Context, registry *iam.SessionRegistry, sessionID string, identity auth.Identity) context.Context {
	registry.Expire(sessionID)
	log.Printf("identity %d (%s) vanished; expired session %s", identity.ID, identity.Username, sessionID)
	return auth.WithPrincipal(ctx, auth.Anonymous())
}
