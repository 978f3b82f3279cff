package iam

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"

	"github.com/vcubone/library-boot/internal/apperr"
	"github.com/vcubone/library-boot/internal/auth"
	"github.com/vcubone/library-boot/internal/db/models"
	"github.com/vcubone/library-boot/internal/repository"
	"github.com/vcubone/library-boot/internal/telemetry"
)

// BearerPrefix is the required prefix of the Authorization header value.
const BearerPrefix = "Bearer "

const (
	msgBlankBearer    = "Invalid jwt token in Bearer Header"
	msgInvalidToken   = "Invalid jwt token"
	msgBadCredentials = "Bad credentials"
)

// IdentityResolver turns credentials into fully loaded identities.
type IdentityResolver struct {
	people repository.PersonRepository
	codec  *auth.TokenCodec
	hasher auth.Hasher

	dummyOnce sync.Once
	dummyHash string
}

// NewIdentityResolver creates a resolver backed by the person store.
func NewIdentityResolver(people repository.PersonRepository, codec *auth.TokenCodec, hasher auth.Hasher) *IdentityResolver {
	return &IdentityResolver{
		people: people,
		codec:  codec,
		hasher: hasher,
	}
}

// ResolveFromToken authenticates a raw Authorization header value.
//
// Returns:
//   - (Anonymous, false, nil) when the header is absent or lacks the "Bearer " prefix
//   - (Anonymous, false, Validation) for a blank token or a token that fails verification
//   - (Anonymous, false, Authentication) when the username is unknown or has no roles
//   - (Authenticated, true, nil) on success
func (r *IdentityResolver) ResolveFromToken(ctx context.Context, header string) (auth.Principal, bool, error) {
	if header == "" || !strings.HasPrefix(header, BearerPrefix) {
		return auth.Anonymous(), false, nil
	}

	token := strings.TrimSpace(header[len(BearerPrefix):])
	if token == "" {
		return auth.Anonymous(), false, apperr.Validation(msgBlankBearer)
	}

	username, err := r.codec.Verify(token)
	if err != nil {
		return auth.Anonymous(), false, apperr.Wrap(apperr.KindValidation, msgInvalidToken, err)
	}

	person, err := r.people.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return auth.Anonymous(), false, apperr.Wrap(apperr.KindAuthentication, msgInvalidToken, err)
		}
		return auth.Anonymous(), false, fmt.Errorf("load identity for token: %w", err)
	}
	if len(person.Roles) == 0 {
		return auth.Anonymous(), false, apperr.Authentication(msgInvalidToken)
	}

	return auth.Authenticated(auth.IdentityFromPerson(person)), true, nil
}

// ResolveFromSession is the trusted read of a session-attached principal.
func (r *IdentityResolver) ResolveFromSession(p auth.Principal) (auth.Identity, bool) {
	return p.Identity()
}

// LoadWithRoles loads the identity by id with its role set.
func (r *IdentityResolver) LoadWithRoles(ctx context.Context, id int64) (auth.Identity, error) {
	person, err := r.people.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return auth.Identity{}, apperr.NotFound(fmt.Sprintf("There is no person with id = %d", id))
		}
		return auth.Identity{}, fmt.Errorf("load identity %d: %w", id, err)
	}
	return auth.IdentityFromPerson(person), nil
}

// LoadByUsername loads the identity by username with its role set.
func (r *IdentityResolver) LoadByUsername(ctx context.Context, username string) (auth.Identity, error) {
	person, err := r.people.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return auth.Identity{}, apperr.NotFound(fmt.Sprintf("There is no person with username = %s", username))
		}
		return auth.Identity{}, fmt.Errorf("load identity %q: %w", username, err)
	}
	return auth.IdentityFromPerson(person), nil
}

// CurrentVersion returns the stored version of the identity.
func (r *IdentityResolver) CurrentVersion(ctx context.Context, id int64) (int, error) {
	v, err := r.people.CurrentVersion(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, apperr.NotFound(fmt.Sprintf("There is no person with id = %d", id))
		}
		return 0, fmt.Errorf("read version %d: %w", id, err)
	}
	return v, nil
}

// Authenticate checks a username and password pair. Unknown usernames,
// identities without roles and wrong passwords all fail with the same
// Authentication error, and a bcrypt comparison runs in every case.
func (r *IdentityResolver) Authenticate(ctx context.Context, username, password string) (auth.Principal, error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.TracerIAM, "iam.Authenticate",
		attribute.String(telemetry.AttrIdentityUsername, username),
	)
	defer span.End()

	person, err := r.people.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			telemetry.RecordError(span, err)
			return auth.Anonymous(), fmt.Errorf("load identity %q: %w", username, err)
		}
		_ = r.hasher.Compare(r.dummy(), password)
		return auth.Anonymous(), apperr.Authentication(msgBadCredentials)
	}

	if err := r.hasher.Compare(person.PasswordHash, password); err != nil {
		return auth.Anonymous(), apperr.Authentication(msgBadCredentials)
	}
	if len(person.Roles) == 0 {
		return auth.Anonymous(), apperr.Authentication(msgBadCredentials)
	}

	id := auth.IdentityFromPerson(person)
	span.SetAttributes(attribute.Int64(telemetry.AttrIdentityID, id.ID))
	return auth.Authenticated(id), nil
}

func (r *IdentityResolver) dummy() string {
	r.dummyOnce.Do(func() {
		h, err := r.hasher.Hash("library-boot-dummy-password")
		if err == nil {
			r.dummyHash = h
		}
	})
	return r.dummyHash
}

// PersonToPrincipal snapshots a person as an authenticated principal;
// used right after registration.
func PersonToPrincipal(p *models.Person) auth.Principal {
	return auth.Authenticated(auth.IdentityFromPerson(p))
}
