// Package books implements the catalog: listing, search, editing and the
// borrow/release lifecycle of a book.
package books

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/vcubone/library-boot/internal/apperr"
	"github.com/vcubone/library-boot/internal/auth"
	"github.com/vcubone/library-boot/internal/db/models"
	"github.com/vcubone/library-boot/internal/repository"
	"github.com/vcubone/library-boot/internal/services/validation"
	"github.com/vcubone/library-boot/internal/telemetry"
)

const msgGiveAway = "Only admins can give books to other persons"

// ListOptions controls ordering and paging. Paging applies only when both
// Page (0-based) and ItemsPerPage are set.
type ListOptions struct {
	SortByYear   bool
	Page         *int
	ItemsPerPage *int
}

// Input carries the editable catalog fields of a book.
type Input struct {
	Title       string
	Author      string
	ReleaseYear int
}

// PersonLookup resolves the person a book is handed to.
type PersonLookup interface {
	GetByID(ctx context.Context, id int64) (*models.Person, error)
}

// Service orchestrates the catalog.
type Service struct {
	books  repository.BookRepository
	people PersonLookup
	now    func() time.Time
}

// NewService constructs a new Service instance.
func NewService(books repository.BookRepository, people PersonLookup) *Service {
	return &Service{books: books, people: people, now: time.Now}
}

// WithClock overrides the clock used for take times and the expired flag.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// List returns the catalog.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]models.Book, error) {
	books, err := s.books.List(ctx, repository.BookListOptions{
		SortByYear:   opts.SortByYear,
		Page:         opts.Page,
		ItemsPerPage: opts.ItemsPerPage,
	})
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	models.MarkAllExpired(books, s.now())
	return books, nil
}

// Search returns the books whose title contains query. An empty query
// matches nothing.
func (s *Service) Search(ctx context.Context, query string) ([]models.Book, error) {
	if strings.TrimSpace(query) == "" {
		return []models.Book{}, nil
	}
	books, err := s.books.SearchByTitle(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search books: %w", err)
	}
	return books, nil
}

// Get returns the book with its owner loaded and the expired flag computed.
func (s *Service) Get(ctx context.Context, id int64) (*models.Book, error) {
	book, err := s.books.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, id)
	}
	book.MarkExpired(s.now())
	return book, nil
}

// GetFor is Get with the owner hidden from callers that are neither
// admins nor the owner. A hidden owner is returned as an empty Person.
func (s *Service) GetFor(ctx context.Context, id int64, caller auth.Principal) (*models.Book, error) {
	book, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if book.Owner != nil && !canSeeOwner(book, caller) {
		book.Owner = &models.Person{}
	}
	return book, nil
}

func canSeeOwner(book *models.Book, caller auth.Principal) bool {
	id, ok := caller.Identity()
	if !ok {
		return false
	}
	return id.HasRole(models.RoleAdmin) || (book.PersonID != nil && *book.PersonID == id.ID)
}

// Create validates and stores a new book.
func (s *Service) Create(ctx context.Context, in Input) (*models.Book, error) {
	if err := validation.New().Book(in.Title, in.Author, in.ReleaseYear).Err(); err != nil {
		return nil, err
	}
	book := &models.Book{Title: in.Title, Author: in.Author, ReleaseYear: in.ReleaseYear}
	if err := s.books.Create(ctx, book); err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}
	return book, nil
}

// Update writes the catalog fields of the book with id.
func (s *Service) Update(ctx context.Context, id int64, in Input) error {
	if err := validation.New().Book(in.Title, in.Author, in.ReleaseYear).Err(); err != nil {
		return err
	}
	book := &models.Book{ID: id, Title: in.Title, Author: in.Author, ReleaseYear: in.ReleaseYear}
	if err := s.books.Update(ctx, book); err != nil {
		return notFound(err, id)
	}
	return nil
}

// Delete removes the book. Deleting a missing book is a no-op.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.books.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete book %d: %w", id, err)
	}
	return nil
}

// AddOwner hands an unowned book to ownerID, or to the caller when ownerID
// is nil. Only admins may hand a book to someone else. An owned book is
// left untouched.
func (s *Service) AddOwner(ctx context.Context, bookID int64, caller auth.Identity, ownerID *int64) error {
	ctx, span := telemetry.StartSpan(ctx, telemetry.TracerBooks, "books.AddOwner",
		attribute.Int64(telemetry.AttrBookID, bookID),
		attribute.Int64(telemetry.AttrIdentityID, caller.ID),
	)
	defer span.End()

	book, err := s.books.GetByID(ctx, bookID)
	if err != nil {
		err = notFound(err, bookID)
		telemetry.RecordError(span, err)
		return err
	}
	if book.PersonID != nil {
		telemetry.AddEvent(span, "book.already_owned")
		return nil
	}

	personID := caller.ID
	if ownerID != nil {
		if !caller.HasRole(models.RoleAdmin) && *ownerID != caller.ID {
			err := apperr.Forbidden(msgGiveAway)
			telemetry.RecordError(span, err)
			return err
		}
		personID = *ownerID
	}

	if _, err := s.people.GetByID(ctx, personID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			err = apperr.NotFound(fmt.Sprintf("There is no person with id = %d", personID))
		}
		telemetry.RecordError(span, err)
		return err
	}

	taken := s.now()
	if err := s.books.SetOwner(ctx, bookID, &personID, &taken); err != nil {
		err = notFound(err, bookID)
		telemetry.RecordError(span, err)
		return err
	}
	span.SetAttributes(attribute.Int64(telemetry.AttrBookOwnerID, personID))
	return nil
}

// Release returns the book to the shelf. Only admins and the current
// owner may release it; other callers are ignored.
func (s *Service) Release(ctx context.Context, bookID int64, caller auth.Identity) error {
	ctx, span := telemetry.StartSpan(ctx, telemetry.TracerBooks, "books.Release",
		attribute.Int64(telemetry.AttrBookID, bookID),
		attribute.Int64(telemetry.AttrIdentityID, caller.ID),
	)
	defer span.End()

	book, err := s.books.GetByID(ctx, bookID)
	if err != nil {
		err = notFound(err, bookID)
		telemetry.RecordError(span, err)
		return err
	}
	if book.PersonID == nil {
		return nil
	}
	if !caller.HasRole(models.RoleAdmin) && *book.PersonID != caller.ID {
		telemetry.AddEvent(span, "book.release_ignored")
		return nil
	}
	if err := s.books.SetOwner(ctx, bookID, nil, nil); err != nil {
		err = notFound(err, bookID)
		telemetry.RecordError(span, err)
		return err
	}
	return nil
}

func notFound(err error, id int64) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(fmt.Sprintf("There is no book with id = %d", id))
	}
	return fmt.Errorf("book %d: %w", id, err)
}
