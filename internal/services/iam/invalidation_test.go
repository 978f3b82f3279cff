package iam

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvalidationService(t *testing.T) {
	reg := NewSessionRegistry(SessionRegistryConfig{MaxPerIdentity: 2})
	svc := NewInvalidationService(reg, nil)
	ctx := context.Background()

	a1, _, _, err := reg.Register(principalFor(1, "alice", 1))
	require.NoError(t, err)
	a2, _, _, err := reg.Register(principalFor(1, "alice", 1))
	require.NoError(t, err)
	b1, _, _, err := reg.Register(principalFor(2, "bob", 1))
	require.NoError(t, err)

	assert.Equal(t, 2, svc.InvalidateSessionsFor(ctx, 1))
	assert.Equal(t, 0, svc.InvalidateSessionsFor(ctx, 1))
	assert.Equal(t, 0, svc.InvalidateSessionsFor(ctx, 42))

	for _, tok := range []string{a1, a2} {
		_, err := reg.Lookup(tok)
		assert.ErrorIs(t, err, ErrSessionExpired)
	}

	assert.Equal(t, 1, svc.InvalidateSessionsForUsername(ctx, "bob"))
	_, err = reg.Lookup(b1)
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, 0, svc.InvalidateSessionsForUsername(ctx, "nobody"))
}
