package books

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/openshelf/openshelf/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, func()) {
	dbPath := "./test_books_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.Book{})
	require.NoError(t, err)

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return repo, cleanup
}

func seedBook(t *testing.T, repo *Repository, slug, title, category, language string, featured bool) *entities.Book {
	book := &entities.Book{
		Slug:       slug,
		Title:      title,
		Author:     "Author",
		Category:   category,
		Language:   language,
		IsFeatured: featured,
		PageCount:  200,
	}
	require.NoError(t, repo.Create(book))
	return book
}

func TestRepository_GetBySlug(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	seedBook(t, repo, "dune", "Dune", "Fiction", "English", false)

	book, err := repo.GetBySlug("dune")
	require.NoError(t, err)
	assert.Equal(t, "Dune", book.Title)

	_, err = repo.GetBySlug("missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepository_List_CategoryFilter(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	seedBook(t, repo, "dune", "Dune", "Fiction", "English", false)
	seedBook(t, repo, "sapiens", "Sapiens", "History", "English", false)

	books, total, err := repo.List(ListFilters{Category: "History"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, books, 1)
	assert.Equal(t, "Sapiens", books[0].Title)
}

func TestRepository_List_FeaturedFilter(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	seedBook(t, repo, "dune", "Dune", "Fiction", "English", true)
	seedBook(t, repo, "sapiens", "Sapiens", "History", "English", false)

	featured := true
	books, total, err := repo.List(ListFilters{IsFeatured: &featured})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, books, 1)
	assert.Equal(t, "Dune", books[0].Title)
}

func TestRepository_List_Search(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	seedBook(t, repo, "dune", "Dune", "Fiction", "English", false)
	seedBook(t, repo, "sapiens", "Sapiens", "History", "English", false)

	books, total, err := repo.List(ListFilters{Search: "dUnE"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, books, 1)
	assert.Equal(t, "Dune", books[0].Title)
}

func TestRepository_List_Pagination(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	seedBook(t, repo, "a", "A", "Fiction", "English", false)
	seedBook(t, repo, "b", "B", "Fiction", "English", false)
	seedBook(t, repo, "c", "C", "Fiction", "English", false)

	books, total, err := repo.List(ListFilters{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, books, 2)

	books, _, err = repo.List(ListFilters{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, books, 1)
}

func TestRepository_UpdateAndDelete(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	book := seedBook(t, repo, "dune", "Dune", "Fiction", "English", false)

	book.Title = "Dune (Revised)"
	require.NoError(t, repo.Update(book))

	got, err := repo.GetByID(book.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dune (Revised)", got.Title)

	require.NoError(t, repo.Delete(book.ID))
	_, err = repo.GetByID(book.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
