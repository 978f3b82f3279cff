package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/vcubone/library-boot/internal/db/bunx"
	"github.com/vcubone/library-boot/internal/db/models"
)

// BunPersonRepository implements PersonRepository using Bun ORM
type BunPersonRepository struct {
	db *bun.DB
}

// NewBunPersonRepository creates a new Bun-based person repository
func NewBunPersonRepository(db *bun.DB) *BunPersonRepository {
	return &BunPersonRepository{db: db}
}

// Create inserts a new person and links the named roles
func (r *BunPersonRepository) Create(ctx context.Context, person *models.Person, roleNames []string) error {
	now := time.Now()
	person.CreatedAt = now
	person.UpdatedAt = now
	if person.Version == 0 {
		person.Version = 1
	}

	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(person).Exec(ctx); err != nil {
			return fmt.Errorf("create person: %w", err)
		}

		if len(roleNames) == 0 {
			return nil
		}

		var roles []models.Role
		err := tx.NewSelect().
			Model(&roles).
			Where("name IN (?)", bun.In(roleNames)).
			Scan(ctx)
		if err != nil {
			return fmt.Errorf("load roles: %w", err)
		}
		if len(roles) != len(roleNames) {
			return fmt.Errorf("role in %v: %w", roleNames, ErrNotFound)
		}

		links := make([]models.PersonRole, 0, len(roles))
		for _, role := range roles {
			links = append(links, models.PersonRole{PersonID: person.ID, RoleID: role.ID})
		}
		if _, err := tx.NewInsert().Model(&links).Exec(ctx); err != nil {
			return fmt.Errorf("link roles: %w", err)
		}
		person.Roles = roles
		return nil
	})
}

// GetByID retrieves a person with roles by ID
func (r *BunPersonRepository) GetByID(ctx context.Context, id int64) (*models.Person, error) {
	person := new(models.Person)
	err := r.db.NewSelect().
		Model(person).
		Relation("Roles").
		Where("p.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("person %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get person by ID: %w", err)
	}
	return person, nil
}

// GetByUsername retrieves a person with roles by username
func (r *BunPersonRepository) GetByUsername(ctx context.Context, username string) (*models.Person, error) {
	person := new(models.Person)
	err := r.db.NewSelect().
		Model(person).
		Relation("Roles").
		Where("p.username = ?", username).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("person %q: %w", username, ErrNotFound)
		}
		return nil, fmt.Errorf("get person by username: %w", err)
	}
	return person, nil
}

// ExistsByUsername reports whether the username is taken
func (r *BunPersonRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	exists, err := r.db.NewSelect().
		Model((*models.Person)(nil)).
		Where("username = ?", username).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return exists, nil
}

// List retrieves all people with their roles
func (r *BunPersonRepository) List(ctx context.Context) ([]models.Person, error) {
	var people []models.Person
	err := r.db.NewSelect().
		Model(&people).
		Relation("Roles").
		Order("p.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list people: %w", err)
	}
	return people, nil
}

// UpdateProfile updates the mutable profile fields of a person
func (r *BunPersonRepository) UpdateProfile(ctx context.Context, person *models.Person) error {
	person.UpdatedAt = time.Now()
	result, err := r.db.NewUpdate().
		Model(person).
		Column("full_name", "year_of_birth", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update person: %w", err)
	}
	return requireAffected(result, "person", person.ID)
}

// SetPasswordHash updates the stored bcrypt hash for a person
func (r *BunPersonRepository) SetPasswordHash(ctx context.Context, id int64, passwordHash string) error {
	result, err := r.db.NewUpdate().
		Model((*models.Person)(nil)).
		Set("password_hash = ?", passwordHash).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("set password hash: %w", err)
	}
	return requireAffected(result, "person", id)
}

// AddRole links a role and bumps the version in the same transaction
func (r *BunPersonRepository) AddRole(ctx context.Context, personID int64, roleID int64) (int, error) {
	var version int
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockPerson(ctx, tx, personID); err != nil {
			return err
		}

		link := &models.PersonRole{PersonID: personID, RoleID: roleID}
		if _, err := tx.NewInsert().Model(link).On("CONFLICT DO NOTHING").Exec(ctx); err != nil {
			return fmt.Errorf("link role: %w", err)
		}

		v, err := bumpVersion(ctx, tx, personID)
		if err != nil {
			return err
		}
		version = v
		return nil
	})
	if err != nil {
		return 0, err
	}
	return version, nil
}

// RemoveRole unlinks a role and bumps the version only if a link was removed
func (r *BunPersonRepository) RemoveRole(ctx context.Context, personID int64, roleID int64) (bool, int, error) {
	var (
		removed bool
		version int
	)
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockPerson(ctx, tx, personID); err != nil {
			return err
		}

		result, err := tx.NewDelete().
			Model((*models.PersonRole)(nil)).
			Where("person_id = ?", personID).
			Where("role_id = ?", roleID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("unlink role: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}

		if n == 0 {
			version, err = readVersion(ctx, tx, personID)
			return err
		}

		removed = true
		version, err = bumpVersion(ctx, tx, personID)
		return err
	})
	if err != nil {
		return false, 0, err
	}
	return removed, version, nil
}

// CurrentVersion returns the stored version of a person
func (r *BunPersonRepository) CurrentVersion(ctx context.Context, id int64) (int, error) {
	return readVersion(ctx, r.db, id)
}

// Delete removes a person; role links cascade and held books are released
func (r *BunPersonRepository) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.NewDelete().
		Model((*models.Person)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("delete person: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}
	return n > 0, nil
}

// lockPerson verifies the person exists and, on PostgreSQL, takes a row
// lock so concurrent role mutations serialise on the version counter.
func lockPerson(ctx context.Context, tx bun.Tx, id int64) error {
	q := tx.NewSelect().
		Model((*models.Person)(nil)).
		Column("id").
		Where("id = ?", id)
	if bunx.IsPostgres(tx) {
		q = q.For("UPDATE")
	}
	var found int64
	if err := q.Scan(ctx, &found); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("person %d: %w", id, ErrNotFound)
		}
		return fmt.Errorf("lock person: %w", err)
	}
	return nil
}

func bumpVersion(ctx context.Context, tx bun.Tx, id int64) (int, error) {
	_, err := tx.NewUpdate().
		Model((*models.Person)(nil)).
		Set("version = version + 1").
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("increment version: %w", err)
	}
	return readVersion(ctx, tx, id)
}

func readVersion(ctx context.Context, db bun.IDB, id int64) (int, error) {
	var version int
	err := db.NewSelect().
		Model((*models.Person)(nil)).
		Column("version").
		Where("id = ?", id).
		Scan(ctx, &version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("person %d: %w", id, ErrNotFound)
		}
		return 0, fmt.Errorf("read version: %w", err)
	}
	return version, nil
}

func requireAffected(result sql.Result, entity string, id int64) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s %d: %w", entity, id, ErrNotFound)
	}
	return nil
}
