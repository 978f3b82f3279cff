package migrations

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vcubone/library-boot/internal/db/bunx"
	"github.com/vcubone/library-boot/internal/db/models"
)

func TestApply_SQLite(t *testing.T) {
	ctx := context.Background()
	db, err := bunx.NewDB(":memory:", bunx.Options{})
	require.NoError(t, err)
	defer bunx.Close(db)

	assert.False(t, bunx.IsPostgres(db))

	group, err := Apply(ctx, db)
	require.NoError(t, err)
	assert.NotZero(t, group.ID)

	var roles []models.Role
	require.NoError(t, db.NewSelect().Model(&roles).Order("name ASC").Scan(ctx))
	require.Len(t, roles, 2)
	assert.Equal(t, models.RoleAdmin, roles[0].Name)
	assert.Equal(t, models.RoleUser, roles[1].Name)

	// A second run has nothing left to apply.
	group, err = Apply(ctx, db)
	require.NoError(t, err)
	assert.Zero(t, group.ID)
}
