package iam

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vcubone/library-boot/internal/apperr"
	"github.com/vcubone/library-boot/internal/auth"
	"github.com/vcubone/library-boot/internal/db/models"
)

func newTestResolver(t *testing.T) (*IdentityResolver, *mockPersonRepository, *auth.TokenCodec, *plainHasher) {
	t.Helper()
	codec, err := auth.NewTokenCodec([]byte("test-secret"))
	require.NoError(t, err)
	repo := newMockPersonRepository()
	hasher := &plainHasher{}
	return NewIdentityResolver(repo, codec, hasher), repo, codec, hasher
}

func TestResolveFromToken_NoAttempt(t *testing.T) {
	resolver, _, _, _ := newTestResolver(t)
	ctx := context.Background()

	for _, header := range []string{"", "Basic dXNlcjpwYXNz", "bearer abc", "Token abc"} {
		p, ok, err := resolver.ResolveFromToken(ctx, header)
		require.NoError(t, err, header)
		assert.False(t, ok, header)
		assert.False(t, p.IsAuthenticated(), header)
	}
}

func TestResolveFromToken_Failures(t *testing.T) {
	resolver, repo, codec, _ := newTestResolver(t)
	ctx := context.Background()

	repo.add("noroles", "plain:x", 1)
	ghost, err := codec.Issue("ghost")
	require.NoError(t, err)
	noRoles, err := codec.Issue("noroles")
	require.NoError(t, err)

	tests := []struct {
		name    string
		header  string
		kind    apperr.Kind
		message string
	}{
		{"blank token", "Bearer ", apperr.KindValidation, "Invalid jwt token in Bearer Header"},
		{"whitespace token", "Bearer    ", apperr.KindValidation, "Invalid jwt token in Bearer Header"},
		{"garbage token", "Bearer abc.def.ghi", apperr.KindValidation, "Invalid jwt token"},
		{"unknown user", "Bearer " + ghost, apperr.KindAuthentication, "Invalid jwt token"},
		{"no roles", "Bearer " + noRoles, apperr.KindAuthentication, "Invalid jwt token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok, err := resolver.ResolveFromToken(ctx, tt.header)
			require.Error(t, err)
			assert.False(t, ok)
			assert.False(t, p.IsAuthenticated())

			appErr, isApp := apperr.As(err)
			require.True(t, isApp)
			assert.Equal(t, tt.kind, appErr.Kind)
			assert.Equal(t, tt.message, appErr.Message)
		})
	}
}

func TestResolveFromToken_StoreFailureIsInternal(t *testing.T) {
	resolver, repo, codec, _ := newTestResolver(t)
	repo.failAll = errors.New("connection refused")

	token, err := codec.Issue("alice")
	require.NoError(t, err)

	_, _, err = resolver.ResolveFromToken(context.Background(), "Bearer "+token)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
}

func TestResolveFromToken_Success(t *testing.T) {
	resolver, repo, codec, _ := newTestResolver(t)
	alice := repo.add("alice", "plain:pw", 3, models.RoleUser, models.RoleAdmin)

	token, err := codec.Issue("alice")
	require.NoError(t, err)

	p, ok, err := resolver.ResolveFromToken(context.Background(), "Bearer "+token)
	require.NoError(t, err)
	require.True(t, ok)

	id, _ := p.Identity()
	assert.Equal(t, alice.ID, id.ID)
	assert.Equal(t, "alice", id.Username)
	assert.Equal(t, 3, id.Version)
	assert.Equal(t, []string{models.RoleAdmin, models.RoleUser}, id.Roles)

	fromSession, ok := resolver.ResolveFromSession(p)
	assert.True(t, ok)
	assert.Equal(t, id, fromSession)
}

func TestLoadWithRolesAndByUsername(t *testing.T) {
	resolver, repo, _, _ := newTestResolver(t)
	ctx := context.Background()
	alice := repo.add("alice", "plain:pw", 1, models.RoleUser)

	id, err := resolver.LoadWithRoles(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", id.Username)

	_, err = resolver.LoadWithRoles(ctx, 404)
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
	assert.Equal(t, "not_found: There is no person with id = 404", err.Error())

	id, err = resolver.LoadByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, id.ID)

	_, err = resolver.LoadByUsername(ctx, "bob")
	require.Error(t, err)
	appErr, _ := apperr.As(err)
	assert.Equal(t, "There is no person with username = bob", appErr.Message)

	v, err := resolver.CurrentVersion(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	_, err = resolver.CurrentVersion(ctx, 404)
	assert.True(t, apperr.IsNotFound(err))
}

func TestAuthenticate(t *testing.T) {
	resolver, repo, _, hasher := newTestResolver(t)
	ctx := context.Background()
	repo.add("alice", "plain:pw", 1, models.RoleUser)
	repo.add("norole", "plain:pw", 1)

	p, err := resolver.Authenticate(ctx, "alice", "pw")
	require.NoError(t, err)
	assert.True(t, p.HasRole(models.RoleUser))

	for _, tc := range []struct{ user, pass string }{
		{"alice", "wrong"},
		{"ghost", "pw"},
		{"norole", "pw"},
	} {
		before := hasher.comparisons
		_, err := resolver.Authenticate(ctx, tc.user, tc.pass)
		require.Error(t, err)
		appErr, ok := apperr.As(err)
		require.True(t, ok)
		assert.Equal(t, apperr.KindAuthentication, appErr.Kind)
		assert.Equal(t, "Bad credentials", appErr.Message)
		// A hash comparison runs even for unknown usernames.
		assert.Equal(t, before+1, hasher.comparisons, tc.user)
	}
}

func TestLoginThenTokenRoundTrip(t *testing.T) {
	resolver, repo, codec, _ := newTestResolver(t)
	ctx := context.Background()
	repo.add("alice", "plain:pw", 1, models.RoleUser)

	p, err := resolver.Authenticate(ctx, "alice", "pw")
	require.NoError(t, err)
	id, _ := p.Identity()

	token, err := codec.Issue(id.Username)
	require.NoError(t, err)
	username, err := codec.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", username)

	expired, err := auth.NewTokenCodec([]byte("test-secret"), auth.WithClock(func() time.Time {
		return time.Now().Add(2 * auth.TokenTTL)
	}))
	require.NoError(t, err)
	_, err = expired.Verify(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}
