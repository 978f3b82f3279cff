package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"github.com/vcubone/library-boot/internal/db/models"
)

// BunBookRepository implements BookRepository using Bun ORM
type BunBookRepository struct {
	db *bun.DB
}

// NewBunBookRepository creates a new Bun-based book repository
func NewBunBookRepository(db *bun.DB) *BunBookRepository {
	return &BunBookRepository{db: db}
}

// Create inserts a new book
func (r *BunBookRepository) Create(ctx context.Context, book *models.Book) error {
	now := time.Now()
	book.CreatedAt = now
	book.UpdatedAt = now
	if _, err := r.db.NewInsert().Model(book).Exec(ctx); err != nil {
		return fmt.Errorf("create book: %w", err)
	}
	return nil
}

// GetByID retrieves a book and its owner
func (r *BunBookRepository) GetByID(ctx context.Context, id int64) (*models.Book, error) {
	book := new(models.Book)
	err := r.db.NewSelect().
		Model(book).
		Relation("Owner").
		Where("b.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("book %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get book by ID: %w", err)
	}
	if book.PersonID == nil {
		book.Owner = nil
	}
	return book, nil
}

// List retrieves books, optionally ordered by release year and paged
func (r *BunBookRepository) List(ctx context.Context, opts BookListOptions) ([]models.Book, error) {
	var books []models.Book
	q := r.db.NewSelect().Model(&books)

	if opts.SortByYear {
		q = q.Order("b.release_year ASC", "b.id ASC")
	} else {
		q = q.Order("b.id ASC")
	}

	if opts.Page != nil && opts.ItemsPerPage != nil {
		q = q.Limit(*opts.ItemsPerPage).Offset(*opts.Page * *opts.ItemsPerPage)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return books, nil
}

// likeEscaper makes LIKE wildcards in user input match literally.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// SearchByTitle retrieves books whose title contains fragment
func (r *BunBookRepository) SearchByTitle(ctx context.Context, fragment string) ([]models.Book, error) {
	var books []models.Book
	err := r.db.NewSelect().
		Model(&books).
		Where("b.title LIKE ? ESCAPE '!'", "%"+likeEscaper.Replace(fragment)+"%").
		Order("b.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("search books: %w", err)
	}
	return books, nil
}

// ListByOwner retrieves books held by a person
func (r *BunBookRepository) ListByOwner(ctx context.Context, personID int64) ([]models.Book, error) {
	var books []models.Book
	err := r.db.NewSelect().
		Model(&books).
		Where("b.person_id = ?", personID).
		Order("b.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list books by owner: %w", err)
	}
	return books, nil
}

// Update writes title, author and release year
func (r *BunBookRepository) Update(ctx context.Context, book *models.Book) error {
	book.UpdatedAt = time.Now()
	result, err := r.db.NewUpdate().
		Model(book).
		Column("title", "author", "release_year", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update book: %w", err)
	}
	return requireAffected(result, "book", book.ID)
}

// SetOwner assigns or clears the holder of a book
func (r *BunBookRepository) SetOwner(ctx context.Context, bookID int64, personID *int64, takenAt *time.Time) error {
	result, err := r.db.NewUpdate().
		Model((*models.Book)(nil)).
		Set("person_id = ?", personID).
		Set("take_time = ?", takenAt).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", bookID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("set book owner: %w", err)
	}
	return requireAffected(result, "book", bookID)
}

// Delete removes a book; deleting a missing book is not an error
func (r *BunBookRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.NewDelete().
		Model((*models.Book)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	return nil
}
