package repository

import (
	"context"
	"errors"
	"time"

	"github.com/vcubone/library-boot/internal/db/models"
)

// ErrNotFound is wrapped by every lookup that matches no row.
var ErrNotFound = errors.New("not found")

// PersonRepository is the Credential Store: people with their role sets and versions.
type PersonRepository interface {
	// Create inserts the person and links roleNames in one transaction.
	Create(ctx context.Context, person *models.Person, roleNames []string) error
	GetByID(ctx context.Context, id int64) (*models.Person, error)
	GetByUsername(ctx context.Context, username string) (*models.Person, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	List(ctx context.Context) ([]models.Person, error)
	// UpdateProfile writes full name and year of birth.
	UpdateProfile(ctx context.Context, person *models.Person) error
	SetPasswordHash(ctx context.Context, id int64, passwordHash string) error
	// AddRole links the role and increments the version atomically,
	// returning the new version.
	AddRole(ctx context.Context, personID int64, roleID int64) (int, error)
	// RemoveRole unlinks the role; the version is incremented only when a
	// link was removed. It returns whether a link was removed and the
	// resulting version.
	RemoveRole(ctx context.Context, personID int64, roleID int64) (bool, int, error)
	CurrentVersion(ctx context.Context, id int64) (int, error)
	// Delete removes the person; held books are released by the schema.
	Delete(ctx context.Context, id int64) (bool, error)
}

// RoleRepository exposes the seeded reference roles.
type RoleRepository interface {
	GetByName(ctx context.Context, name string) (*models.Role, error)
	List(ctx context.Context) ([]models.Role, error)
}

// BookListOptions controls ordering and paging of List.
// Paging applies only when both Page and ItemsPerPage are set; Page is 0-based.
type BookListOptions struct {
	SortByYear   bool
	Page         *int
	ItemsPerPage *int
}

// BookRepository exposes persistence operations for catalog entries.
type BookRepository interface {
	Create(ctx context.Context, book *models.Book) error
	// GetByID loads the book together with its owner, if any.
	GetByID(ctx context.Context, id int64) (*models.Book, error)
	List(ctx context.Context, opts BookListOptions) ([]models.Book, error)
	SearchByTitle(ctx context.Context, fragment string) ([]models.Book, error)
	ListByOwner(ctx context.Context, personID int64) ([]models.Book, error)
	Update(ctx context.Context, book *models.Book) error
	// SetOwner assigns or clears (personID == nil) the holder of a book.
	SetOwner(ctx context.Context, bookID int64, personID *int64, takenAt *time.Time) error
	Delete(ctx context.Context, id int64) error
}
