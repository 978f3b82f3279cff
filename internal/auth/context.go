package auth

import "context"

type principalContextKey struct{}

// WithPrincipal stores the principal on the context for downstream consumers.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFrom retrieves the principal from the context, Anonymous when absent.
func PrincipalFrom(ctx context.Context) Principal {
	p, _ := ctx.Value(principalContextKey{}).(Principal)
	return p
}

type sessionContextKey struct{}

// WithSession stores the current web session id on the context.
func WithSession(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sessionID)
}

// SessionFrom retrieves the current web session id.
func SessionFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionContextKey{}).(string)
	return id, ok && id != ""
}
