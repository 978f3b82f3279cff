package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vcubone/library-boot/internal/db/models"
)

func seedBooks(t *testing.T, repo *BunBookRepository) []*models.Book {
	t.Helper()

	books := []*models.Book{
		{Title: "The Hobbit", Author: "Tolkien", ReleaseYear: 1937},
		{Title: "Dune", Author: "Herbert", ReleaseYear: 1965},
		{Title: "The Silmarillion", Author: "Tolkien", ReleaseYear: 1977},
		{Title: "Emma", Author: "Austen", ReleaseYear: 1815},
	}
	for _, b := range books {
		require.NoError(t, repo.Create(context.Background(), b))
	}
	return books
}

func titles(books []models.Book) []string {
	out := make([]string, 0, len(books))
	for _, b := range books {
		out = append(out, b.Title)
	}
	return out
}

func TestBunBookRepository_ListOrderingAndPaging(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBunBookRepository(db)
	ctx := context.Background()
	seedBooks(t, repo)

	all, err := repo.List(ctx, BookListOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"The Hobbit", "Dune", "The Silmarillion", "Emma"}, titles(all))

	sorted, err := repo.List(ctx, BookListOptions{SortByYear: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"Emma", "The Hobbit", "Dune", "The Silmarillion"}, titles(sorted))

	page, size := 1, 2
	paged, err := repo.List(ctx, BookListOptions{SortByYear: true, Page: &page, ItemsPerPage: &size})
	require.NoError(t, err)
	assert.Equal(t, []string{"Dune", "The Silmarillion"}, titles(paged))

	// Paging needs both values.
	onlyPage, err := repo.List(ctx, BookListOptions{Page: &page})
	require.NoError(t, err)
	assert.Len(t, onlyPage, 4)
}

func TestBunBookRepository_SearchByTitle(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBunBookRepository(db)
	ctx := context.Background()
	seedBooks(t, repo)

	found, err := repo.SearchByTitle(ctx, "The")
	require.NoError(t, err)
	assert.Equal(t, []string{"The Hobbit", "The Silmarillion"}, titles(found))

	found, err = repo.SearchByTitle(ctx, "mar")
	require.NoError(t, err)
	assert.Equal(t, []string{"The Silmarillion"}, titles(found))

	found, err = repo.SearchByTitle(ctx, "Zzz")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestBunBookRepository_SearchByTitle_LiteralWildcards(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBunBookRepository(db)
	ctx := context.Background()

	for _, title := range []string{"50% Off", "500 Recipes", "snake_case", "snakeXcase", "Wow!"} {
		require.NoError(t, repo.Create(ctx, &models.Book{Title: title, Author: "Anon", ReleaseYear: 2000}))
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"50%", []string{"50% Off"}},
		{"e_c", []string{"snake_case"}},
		{"!", []string{"Wow!"}},
		{"%", []string{"50% Off"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			found, err := repo.SearchByTitle(ctx, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, titles(found))
		})
	}
}

func TestBunBookRepository_OwnershipLifecycle(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBunBookRepository(db)
	people := NewBunPersonRepository(db)
	ctx := context.Background()

	books := seedBooks(t, repo)
	alice := createPerson(t, people, "alice", models.RoleUser)

	taken := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, repo.SetOwner(ctx, books[1].ID, &alice.ID, &taken))

	loaded, err := repo.GetByID(ctx, books[1].ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.Owner)
	assert.Equal(t, "alice", loaded.Owner.Username)
	require.NotNil(t, loaded.TakeTime)
	assert.True(t, taken.Equal(*loaded.TakeTime))

	held, err := repo.ListByOwner(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Dune"}, titles(held))

	require.NoError(t, repo.SetOwner(ctx, books[1].ID, nil, nil))
	loaded, err = repo.GetByID(ctx, books[1].ID)
	require.NoError(t, err)
	assert.Nil(t, loaded.PersonID)
	assert.Nil(t, loaded.Owner)
	assert.Nil(t, loaded.TakeTime)

	err = repo.SetOwner(ctx, 9999, &alice.ID, &taken)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBunBookRepository_UpdateAndDelete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBunBookRepository(db)
	ctx := context.Background()
	books := seedBooks(t, repo)

	b := books[0]
	b.Title = "The Hobbit, or There and Back Again"
	b.ReleaseYear = 1938
	require.NoError(t, repo.Update(ctx, b))

	loaded, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "The Hobbit, or There and Back Again", loaded.Title)
	assert.Equal(t, 1938, loaded.ReleaseYear)

	require.NoError(t, repo.Delete(ctx, b.ID))
	_, err = repo.GetByID(ctx, b.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting again is not an error.
	require.NoError(t, repo.Delete(ctx, b.ID))

	missing := &models.Book{ID: 9999, Title: "x", Author: "y"}
	assert.ErrorIs(t, repo.Update(ctx, missing), ErrNotFound)
}

func TestBunRoleRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBunRoleRepository(db)
	ctx := context.Background()

	roles, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, roles, 2)

	role, err := repo.GetByName(ctx, models.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, role.Name)

	_, err = repo.GetByName(ctx, "ROLE_NONE")
	assert.ErrorIs(t, err, ErrNotFound)
}
