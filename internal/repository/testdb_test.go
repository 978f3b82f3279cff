package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/vcubone/library-boot/internal/db/bunx"
	"github.com/vcubone/library-boot/internal/db/models"
	"github.com/vcubone/library-boot/internal/migrations"
)

// setupTestDB opens a migrated in-memory SQLite database
func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	db, err := bunx.NewDB(":memory:", bunx.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = bunx.Close(db) })

	_, err = migrations.Apply(context.Background(), db)
	require.NoError(t, err)
	return db
}

func createPerson(t *testing.T, repo *BunPersonRepository, username string, roles ...string) *models.Person {
	t.Helper()

	p := &models.Person{
		Username:     username,
		PasswordHash: "$2a$10$hash",
		FullName:     "Test " + username,
		YearOfBirth:  1990,
		Version:      1,
	}
	require.NoError(t, repo.Create(context.Background(), p, roles))
	return p
}
