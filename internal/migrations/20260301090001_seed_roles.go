package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/vcubone/library-boot/internal/db/models"
)

func init() {
	Migrations.MustRegister(up_20260301090001, down_20260301090001)
}

// up_20260301090001 seeds the reference roles every account is built from
func up_20260301090001(ctx context.Context, db *bun.DB) error {
	fmt.Print(" [up] seeding default roles...")

	for _, name := range []string{models.RoleUser, models.RoleAdmin} {
		role := models.Role{Name: name}
		_, err := db.NewInsert().
			Model(&role).
			On("CONFLICT (name) DO NOTHING"). // Idempotent
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to seed role %s: %w", name, err)
		}
	}
	fmt.Println(" OK")

	return nil
}

func down_20260301090001(ctx context.Context, db *bun.DB) error {
	fmt.Print(" [down] removing default roles...")
	_, err := db.NewDelete().
		Model((*models.Role)(nil)).
		Where("name IN (?)", bun.In([]string{models.RoleUser, models.RoleAdmin})).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to remove default roles: %w", err)
	}
	fmt.Println(" OK")
	return nil
}
