package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/vcubone/library-boot/internal/db/bunx"
	"github.com/vcubone/library-boot/internal/db/models"
)

func init() {
	Migrations.MustRegister(up_20260301090000, down_20260301090000)
}

// up_20260301090000 creates the people, roles, person_roles and books tables
func up_20260301090000(ctx context.Context, db *bun.DB) error {
	fmt.Print(" [up] creating people table...")
	_, err := db.NewCreateTable().
		Model((*models.Person)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create people table: %w", err)
	}
	fmt.Println(" OK")

	fmt.Print(" [up] creating roles table...")
	_, err = db.NewCreateTable().
		Model((*models.Role)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create roles table: %w", err)
	}
	fmt.Println(" OK")

	fmt.Print(" [up] creating person_roles table...")
	_, err = db.NewCreateTable().
		Model((*models.PersonRole)(nil)).
		IfNotExists().
		ForeignKey(`("person_id") REFERENCES "people" ("id") ON DELETE CASCADE`).
		ForeignKey(`("role_id") REFERENCES "roles" ("id") ON DELETE CASCADE`).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create person_roles table: %w", err)
	}
	fmt.Println(" OK")

	fmt.Print(" [up] creating books table...")
	_, err = db.NewCreateTable().
		Model((*models.Book)(nil)).
		IfNotExists().
		ForeignKey(`("person_id") REFERENCES "people" ("id") ON DELETE SET NULL`).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create books table: %w", err)
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_books_person_id ON books(person_id)`,
		`CREATE INDEX IF NOT EXISTS idx_books_release_year ON books(release_year)`,
		`CREATE INDEX IF NOT EXISTS idx_person_roles_role_id ON person_roles(role_id)`,
	}
	for _, stmt := range indexes {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	fmt.Println(" OK")

	return nil
}

func down_20260301090000(ctx context.Context, db *bun.DB) error {
	tables := []string{"books", "person_roles", "roles", "people"}

	for _, table := range tables {
		fmt.Printf(" [down] dropping %s table...", table)
		stmt := fmt.Sprintf("DROP TABLE IF EXISTS %s", table)
		if bunx.IsPostgres(db) {
			stmt += " CASCADE"
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to drop %s table: %w", table, err)
		}
		fmt.Println(" OK")
	}

	return nil
}
