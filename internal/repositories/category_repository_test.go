package repository_test

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	repository "github.com/aaravmahajanofficial/storefront/internal/repositories"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryRepository(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := repository.NewCategoryRepo(db)
	ctx := context.Background()
	now := time.Now()

	t.Run("Create", func(t *testing.T) {
		category := &models.Category{ID: uuid.New(), Name: "Shoes", Slug: "shoes"}
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO categories`)).
			WithArgs(category.ID, "Shoes", "shoes", "", "").
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

		require.NoError(t, repo.CreateCategory(ctx, category))
		assert.Equal(t, now, category.UpdatedAt)
	})

	t.Run("Update Missing", func(t *testing.T) {
		category := &models.Category{ID: uuid.New(), Name: "Boots"}
		mock.ExpectQuery(regexp.QuoteMeta(`UPDATE categories SET name = $1`)).WillReturnError(sql.ErrNoRows)

		assert.ErrorIs(t, repo.UpdateCategory(ctx, category), repository.ErrNotFound)
	})

	t.Run("List", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`FROM categories ORDER BY name`)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "slug", "description", "image", "created_at", "updated_at"}).
				AddRow(uuid.New().String(), "Bags", "bags", "", "", now, now).
				AddRow(uuid.New().String(), "Shoes", "shoes", "", "", now, now))

		categories, err := repo.ListCategories(ctx)

		require.NoError(t, err)
		require.Len(t, categories, 2)
		assert.Equal(t, "bags", categories[0].Slug)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
