package iam

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vcubone/library-boot/internal/apperr"
	"github.com/vcubone/library-boot/internal/db/models"
)

func TestBearerAuthenticator(t *testing.T) {
	resolver, repo, codec, _ := newTestResolver(t)
	repo.add("alice", "plain:pw", 1, models.RoleUser)
	a := NewBearerAuthenticator(resolver, nil)
	ctx := context.Background()

	// No header: no credentials.
	res, err := a.Authenticate(ctx, AuthRequest{Headers: http.Header{}})
	require.NoError(t, err)
	assert.Nil(t, res)

	token, err := codec.Issue("alice")
	require.NoError(t, err)
	h := http.Header{}
	h.Set("Authorization", "Bearer "+token)
	res, err = a.Authenticate(ctx, AuthRequest{Headers: h})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.True(t, res.Principal.HasRole(models.RoleUser))
	assert.Empty(t, res.SessionID)

	h.Set("Authorization", "Bearer nope")
	res, err = a.Authenticate(ctx, AuthRequest{Headers: h})
	assert.Nil(t, res)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestSessionAuthenticator(t *testing.T) {
	reg := NewSessionRegistry(SessionRegistryConfig{MaxPerIdentity: 2})
	a := NewSessionAuthenticator(reg, "LIBRARYSESSION")
	ctx := context.Background()
	assert.Equal(t, "LIBRARYSESSION", a.CookieName())

	res, err := a.Authenticate(ctx, AuthRequest{})
	require.NoError(t, err)
	assert.Nil(t, res)

	token, s, _, err := reg.Register(principalFor(1, "alice", 1))
	require.NoError(t, err)

	req := AuthRequest{Cookies: []*http.Cookie{
		{Name: "other", Value: "x"},
		{Name: "LIBRARYSESSION", Value: token},
	}}
	res, err = a.Authenticate(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, s.ID, res.SessionID)
	assert.Equal(t, "alice", res.Principal.String())

	reg.ExpireByID(1)
	res, err = a.Authenticate(ctx, req)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrSessionExpired)

	res, err = a.Authenticate(ctx, AuthRequest{Cookies: []*http.Cookie{{Name: "LIBRARYSESSION", Value: "bogus"}}})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
