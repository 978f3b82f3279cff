package people

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/vcubone/library-boot/internal/apperr"
	"github.com/vcubone/library-boot/internal/auth"
	"github.com/vcubone/library-boot/internal/db/models"
	"github.com/vcubone/library-boot/internal/repository"
	"github.com/vcubone/library-boot/internal/services/iam"
	"github.com/vcubone/library-boot/internal/services/validation"
	"github.com/vcubone/library-boot/internal/telemetry"
)

// RegisterInput carries the fields of a new account.
type RegisterInput struct {
	Username    string
	Password    string
	FullName    string
	YearOfBirth int
}

// UpdateInput carries the editable profile fields. Username is immutable.
type UpdateInput struct {
	FullName    string
	YearOfBirth int
}

// Service manages people: registration, profile and credential updates,
// role mutation and deletion.
type Service struct {
	people repository.PersonRepository
	roles  repository.RoleRepository
	books  repository.BookRepository
	hasher auth.Hasher

	sessions *iam.InvalidationService
	versions *iam.VersionCache
	now      func() time.Time
}

// NewService constructs a new Service instance.
func NewService(people repository.PersonRepository, roles repository.RoleRepository, hasher auth.Hasher) *Service {
	return &Service{people: people, roles: roles, hasher: hasher, now: time.Now}
}

// WithBookRepository adds the book repository used to list held books (optional dependency).
func (s *Service) WithBookRepository(books repository.BookRepository) *Service {
	s.books = books
	return s
}

// WithInvalidation sets the service that expires sessions after password
// changes and deletes (optional dependency).
func (s *Service) WithInvalidation(sessions *iam.InvalidationService) *Service {
	s.sessions = sessions
	return s
}

// WithVersionCache sets the cache dropped after every version-affecting mutation.
func (s *Service) WithVersionCache(versions *iam.VersionCache) *Service {
	s.versions = versions
	return s
}

// WithClock overrides the clock used for the expired flag of held books.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Register validates and stores a new account with the ROLE_USER role.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.Person, error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.TracerPeople, "people.Register",
		attribute.String(telemetry.AttrIdentityUsername, in.Username),
	)
	defer span.End()

	v := validation.New().Username(in.Username).Password(in.Password).Profile(in.FullName, in.YearOfBirth)
	if err := v.Err(); err != nil {
		return nil, err
	}

	taken, err := s.people.ExistsByUsername(ctx, in.Username)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("check username: %w", err)
	}
	if taken {
		v.Reject("username", validation.MsgUsernameTaken)
		return nil, v.Err()
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	person := &models.Person{
		Username:     in.Username,
		PasswordHash: hash,
		FullName:     in.FullName,
		YearOfBirth:  in.YearOfBirth,
		Version:      1,
	}
	if err := s.people.Create(ctx, person, []string{models.RoleUser}); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("create person: %w", err)
	}
	person.Roles = []models.Role{{Name: models.RoleUser}}

	span.SetAttributes(attribute.Int64(telemetry.AttrIdentityID, person.ID))
	return person, nil
}

// List returns every person with roles.
func (s *Service) List(ctx context.Context) ([]models.Person, error) {
	people, err := s.people.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list people: %w", err)
	}
	return people, nil
}

// Get returns the person with roles and, when a book repository is set,
// the books they hold.
func (s *Service) Get(ctx context.Context, id int64) (*models.Person, error) {
	person, err := s.byID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.books != nil {
		books, err := s.Books(ctx, id)
		if err != nil {
			return nil, err
		}
		person.Books = books
	}
	return person, nil
}

// GetByUsername returns the person with roles.
func (s *Service) GetByUsername(ctx context.Context, username string) (*models.Person, error) {
	person, err := s.people.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound(fmt.Sprintf("There is no person with username = %s", username))
		}
		return nil, fmt.Errorf("get person %q: %w", username, err)
	}
	return person, nil
}

// Books returns the books held by the person with the expired flag computed.
func (s *Service) Books(ctx context.Context, id int64) ([]models.Book, error) {
	if s.books == nil {
		return nil, nil
	}
	books, err := s.books.ListByOwner(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list books of person %d: %w", id, err)
	}
	models.MarkAllExpired(books, s.now())
	return books, nil
}

// Update writes the profile fields of the person with id.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) error {
	if err := validation.New().Profile(in.FullName, in.YearOfBirth).Err(); err != nil {
		return err
	}
	person, err := s.byID(ctx, id)
	if err != nil {
		return err
	}
	return s.updateProfile(ctx, person, in)
}

// UpdateByUsername writes the profile fields of the person with username.
func (s *Service) UpdateByUsername(ctx context.Context, username string, in UpdateInput) error {
	if err := validation.New().Profile(in.FullName, in.YearOfBirth).Err(); err != nil {
		return err
	}
	person, err := s.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	return s.updateProfile(ctx, person, in)
}

func (s *Service) updateProfile(ctx context.Context, person *models.Person, in UpdateInput) error {
	person.FullName = in.FullName
	person.YearOfBirth = in.YearOfBirth
	if err := s.people.UpdateProfile(ctx, person); err != nil {
		return s.storeErr(err, person.ID)
	}
	return nil
}

// ChangePassword stores a new password for the person with id and expires
// all of their sessions before returning.
func (s *Service) ChangePassword(ctx context.Context, id int64, password string) error {
	ctx, span := telemetry.StartSpan(ctx, telemetry.TracerPeople, "people.ChangePassword",
		attribute.Int64(telemetry.AttrIdentityID, id),
	)
	defer span.End()

	if err := s.setPassword(ctx, id, password); err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	s.versions.Invalidate(id)
	if s.sessions != nil {
		s.sessions.InvalidateSessionsFor(ctx, id)
	}
	return nil
}

// ChangePasswordByUsername is ChangePassword addressed by username; the
// sessions are expired by username.
func (s *Service) ChangePasswordByUsername(ctx context.Context, username, password string) error {
	ctx, span := telemetry.StartSpan(ctx, telemetry.TracerPeople, "people.ChangePasswordByUsername",
		attribute.String(telemetry.AttrIdentityUsername, username),
	)
	defer span.End()

	person, err := s.GetByUsername(ctx, username)
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	if err := s.setPassword(ctx, person.ID, password); err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	s.versions.Invalidate(person.ID)
	if s.sessions != nil {
		s.sessions.InvalidateSessionsForUsername(ctx, username)
	}
	return nil
}

func (s *Service) setPassword(ctx context.Context, id int64, password string) error {
	if err := validation.New().Password(password).Err(); err != nil {
		return err
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}
	if err := s.people.SetPasswordHash(ctx, id, hash); err != nil {
		return s.storeErr(err, id)
	}
	return nil
}

// AddRole grants roleName to the person. The version is incremented even
// when the role was already held.
func (s *Service) AddRole(ctx context.Context, id int64, roleName string) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.TracerPeople, "people.AddRole",
		attribute.Int64(telemetry.AttrIdentityID, id),
		attribute.String(telemetry.AttrIdentityRole, roleName),
	)
	defer span.End()

	role, err := s.role(ctx, roleName)
	if err != nil {
		telemetry.RecordError(span, err)
		return 0, err
	}
	version, err := s.people.AddRole(ctx, id, role.ID)
	if err != nil {
		telemetry.RecordError(span, err)
		return 0, s.storeErr(err, id)
	}
	s.versions.Invalidate(id)

	span.SetAttributes(attribute.Int(telemetry.AttrIdentityVersion, version))
	return version, nil
}

// RemoveRole revokes roleName from the person. ROLE_USER cannot be removed
// and is silently kept, and an unknown role name is a no-op. The version is incremented only when a role was
// actually removed.
func (s *Service) RemoveRole(ctx context.Context, id int64, roleName string) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.TracerPeople, "people.RemoveRole",
		attribute.Int64(telemetry.AttrIdentityID, id),
		attribute.String(telemetry.AttrIdentityRole, roleName),
	)
	defer span.End()

	if roleName == models.RoleUser {
		return s.currentVersion(ctx, id)
	}

	role, err := s.roles.GetByName(ctx, roleName)
	if errors.Is(err, repository.ErrNotFound) {
		// nobody can hold a role that does not exist
		return s.currentVersion(ctx, id)
	}
	if err != nil {
		telemetry.RecordError(span, err)
		return 0, fmt.Errorf("get role %q: %w", roleName, err)
	}
	removed, version, err := s.people.RemoveRole(ctx, id, role.ID)
	if err != nil {
		telemetry.RecordError(span, err)
		return 0, s.storeErr(err, id)
	}
	if removed {
		s.versions.Invalidate(id)
	}

	span.SetAttributes(attribute.Int(telemetry.AttrIdentityVersion, version))
	return version, nil
}

// Roles lists the assignable roles.
func (s *Service) Roles(ctx context.Context) ([]models.Role, error) {
	roles, err := s.roles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return roles, nil
}

// Delete removes the person, releasing their books, and expires their
// sessions. Deleting a missing person is a no-op.
func (s *Service) Delete(ctx context.Context, id int64) error {
	ctx, span := telemetry.StartSpan(ctx, telemetry.TracerPeople, "people.Delete",
		attribute.Int64(telemetry.AttrIdentityID, id),
	)
	defer span.End()

	if _, err := s.people.Delete(ctx, id); err != nil {
		telemetry.RecordError(span, err)
		return fmt.Errorf("delete person %d: %w", id, err)
	}
	s.versions.Invalidate(id)
	if s.sessions != nil {
		s.sessions.InvalidateSessionsFor(ctx, id)
	}
	return nil
}

func (s *Service) byID(ctx context.Context, id int64) (*models.Person, error) {
	person, err := s.people.GetByID(ctx, id)
	if err != nil {
		return nil, s.storeErr(err, id)
	}
	return person, nil
}

func (s *Service) currentVersion(ctx context.Context, id int64) (int, error) {
	version, err := s.people.CurrentVersion(ctx, id)
	if err != nil {
		return 0, s.storeErr(err, id)
	}
	return version, nil
}

func (s *Service) role(ctx context.Context, name string) (*models.Role, error) {
	role, err := s.roles.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound(fmt.Sprintf("There is no role with name = %s", name))
		}
		return nil, fmt.Errorf("get role %q: %w", name, err)
	}
	return role, nil
}

func (s *Service) storeErr(err error, id int64) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(fmt.Sprintf("There is no person with id = %d", id))
	}
	return fmt.Errorf("person %d: %w", id, err)
}
