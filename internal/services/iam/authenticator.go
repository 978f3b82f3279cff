package iam

import (
	"context"
	"net/http"
	"time"

	"github.com/vcubone/library-boot/internal/auth"
	"github.com/vcubone/library-boot/internal/telemetry"
)

// Authenticator extracts and validates credentials from a request.
//
// Return values:
//   - (result, nil): Authentication successful
//   - (nil, nil): Credentials not present (not an error, continue anonymously)
//   - (nil, error): Authentication failed
type Authenticator interface {
	Authenticate(ctx context.Context, req AuthRequest) (*AuthResult, error)
}

// AuthRequest wraps the request data authenticators read.
type AuthRequest struct {
	Headers http.Header
	Cookies []*http.Cookie
}

// NewAuthRequest captures the headers and cookies of r.
func NewAuthRequest(r *http.Request) AuthRequest {
	return AuthRequest{Headers: r.Header, Cookies: r.Cookies()}
}

// AuthResult is a successful authentication.
type AuthResult struct {
	Principal auth.Principal
	// SessionID is set by session-based authenticators.
	SessionID string
}

// BearerAuthenticator authenticates the Authorization header through the
// IdentityResolver.
type BearerAuthenticator struct {
	resolver *IdentityResolver
	metrics  *telemetry.AuthMetrics
}

// NewBearerAuthenticator creates a bearer authenticator. metrics may be nil.
func NewBearerAuthenticator(resolver *IdentityResolver, metrics *telemetry.AuthMetrics) *BearerAuthenticator {
	return &BearerAuthenticator{resolver: resolver, metrics: metrics}
}

// Authenticate implements Authenticator.
func (a *BearerAuthenticator) Authenticate(ctx context.Context, req AuthRequest) (*AuthResult, error) {
	start := time.Now()
	p, ok, err := a.resolver.ResolveFromToken(ctx, req.Headers.Get("Authorization"))
	if err == nil && !ok {
		return nil, nil
	}

	a.metrics.RecordAuth(ctx, "jwt", err == nil, float64(time.Since(start).Microseconds())/1000)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Principal: p}, nil
}

// SessionAuthenticator authenticates the session cookie against the registry.
type SessionAuthenticator struct {
	registry   *SessionRegistry
	cookieName string
}

// NewSessionAuthenticator creates a session authenticator reading cookieName.
func NewSessionAuthenticator(registry *SessionRegistry, cookieName string) *SessionAuthenticator {
	return &SessionAuthenticator{registry: registry, cookieName: cookieName}
}

// CookieName returns the name of the session cookie.
func (a *SessionAuthenticator) CookieName() string {
	return a.cookieName
}

// Authenticate implements Authenticator. Unknown and expired sessions
// return ErrSessionNotFound and ErrSessionExpired.
func (a *SessionAuthenticator) Authenticate(_ context.Context, req AuthRequest) (*AuthResult, error) {
	var token string
	for _, c := range req.Cookies {
		if c.Name == a.cookieName {
			token = c.Value
			break
		}
	}
	if token == "" {
		return nil, nil
	}

	s, err := a.registry.Lookup(token)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Principal: s.Principal, SessionID: s.ID}, nil
}
