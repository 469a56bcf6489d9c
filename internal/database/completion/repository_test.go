package completion

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

func setupTestDB(t *testing.T) (*gorm.DB, *Repository, func()) {
	dbPath := "./test_completion_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.User{}, &entities.Book{}, &entities.UserBook{})
	require.NoError(t, err)

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return db, repo, cleanup
}

func createTestUser(t *testing.T, db *gorm.DB) *entities.User {
	user := &entities.User{Email: "reader@example.com", Name: "Reader"}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestBook(t *testing.T, db *gorm.DB, slug string) *entities.Book {
	book := &entities.Book{Slug: slug, Title: "Book " + slug, Author: "Author"}
	require.NoError(t, db.Create(book).Error)
	return book
}

func booksRead(t *testing.T, db *gorm.DB, userID uint) int {
	var user entities.User
	require.NoError(t, db.First(&user, userID).Error)
	return user.BooksRead
}

func TestRepository_MarkCompleted_InsertsAndIncrements(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	user := createTestUser(t, db)
	book := createTestBook(t, db, "finished")

	inserted, err := repo.MarkCompleted(user.ID, book.ID)
	require.NoError(t, err)
	assert.True(t, inserted)

	exists, err := repo.Exists(user.ID, book.ID)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, 1, booksRead(t, db, user.ID))
}

func TestRepository_MarkCompleted_Idempotent(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	user := createTestUser(t, db)
	book := createTestBook(t, db, "finished")

	inserted, err := repo.MarkCompleted(user.ID, book.ID)
	require.NoError(t, err)
	assert.True(t, inserted)

	// Replayed completion trigger: no second insert, no second increment.
	inserted, err = repo.MarkCompleted(user.ID, book.ID)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, 1, booksRead(t, db, user.ID))

	var count int64
	require.NoError(t, db.Model(&entities.UserBook{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRepository_MarkCompleted_DistinctBooks(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	user := createTestUser(t, db)
	first := createTestBook(t, db, "first")
	second := createTestBook(t, db, "second")

	_, err := repo.MarkCompleted(user.ID, first.ID)
	require.NoError(t, err)
	_, err = repo.MarkCompleted(user.ID, second.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, booksRead(t, db, user.ID))
}

func TestRepository_Exists_False(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()

	exists, err := repo.Exists(1, 999)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRepository_ListForUser(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	user := createTestUser(t, db)
	book := createTestBook(t, db, "finished")

	_, err := repo.MarkCompleted(user.ID, book.ID)
	require.NoError(t, err)

	records, err := repo.ListForUser(user.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, book.Title, records[0].Book.Title)
}
