package progress

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/openshelf/openshelf/internal/entities"
)

func setupTestDB(t *testing.T) (*gorm.DB, *Repository, func()) {
	dbPath := "./test_progress_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&entities.User{},
		&entities.Book{},
		&entities.ReadingProgress{},
	)
	require.NoError(t, err)

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return db, repo, cleanup
}

func createTestBook(t *testing.T, db *gorm.DB, slug string) *entities.Book {
	book := &entities.Book{
		Slug:      slug,
		Title:     "Test Book " + slug,
		Author:    "Test Author",
		PageCount: 100,
	}
	err := db.Create(book).Error
	require.NoError(t, err)
	return book
}

func TestRepository_CreateAndGet(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	book := createTestBook(t, db, "first")

	record := &entities.ReadingProgress{
		UserID:          1,
		BookID:          book.ID,
		CurrentPage:     10,
		TotalPages:      100,
		ProgressPercent: 10,
		LastReadAt:      time.Now(),
	}
	require.NoError(t, repo.Create(record))

	got, err := repo.GetForBook(1, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.CurrentPage)
	assert.Equal(t, 100, got.TotalPages)
	assert.False(t, got.IsCompleted)
	assert.Nil(t, got.CompletedAt)
}

func TestRepository_GetForBook_NotFound(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.GetForBook(1, 999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepository_GetForBookWithBook(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	book := createTestBook(t, db, "preloaded")
	require.NoError(t, repo.Create(&entities.ReadingProgress{
		UserID:     1,
		BookID:     book.ID,
		TotalPages: 100,
		LastReadAt: time.Now(),
	}))

	got, err := repo.GetForBookWithBook(1, book.ID)
	require.NoError(t, err)
	assert.Equal(t, book.Title, got.Book.Title)
}

func TestRepository_ListForUser_OrderedByLastRead(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	older := createTestBook(t, db, "older")
	newer := createTestBook(t, db, "newer")

	require.NoError(t, repo.Create(&entities.ReadingProgress{
		UserID: 1, BookID: older.ID, TotalPages: 100,
		LastReadAt: time.Now().Add(-2 * time.Hour),
	}))
	require.NoError(t, repo.Create(&entities.ReadingProgress{
		UserID: 1, BookID: newer.ID, TotalPages: 100,
		LastReadAt: time.Now(),
	}))

	records, err := repo.ListForUser(1)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, newer.ID, records[0].BookID)
	assert.Equal(t, older.ID, records[1].BookID)
}

func TestRepository_ListInProgress_ExcludesCompletedAndAboveThreshold(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	reading := createTestBook(t, db, "reading")
	almost := createTestBook(t, db, "almost-done")
	done := createTestBook(t, db, "done")

	require.NoError(t, repo.Create(&entities.ReadingProgress{
		UserID: 1, BookID: reading.ID, TotalPages: 100,
		CurrentPage: 30, ProgressPercent: 30, LastReadAt: time.Now(),
	}))
	// Above the threshold but not flagged completed; still excluded.
	require.NoError(t, repo.Create(&entities.ReadingProgress{
		UserID: 1, BookID: almost.ID, TotalPages: 100,
		CurrentPage: 95, ProgressPercent: 95, LastReadAt: time.Now(),
	}))
	require.NoError(t, repo.Create(&entities.ReadingProgress{
		UserID: 1, BookID: done.ID, TotalPages: 100,
		CurrentPage: 100, ProgressPercent: 100, IsCompleted: true, LastReadAt: time.Now(),
	}))

	records, err := repo.ListInProgress(1, 90, 5)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, reading.ID, records[0].BookID)
}

func TestRepository_ListInProgress_Limit(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	for i := 0; i < 4; i++ {
		book := createTestBook(t, db, "book-"+string(rune('a'+i)))
		require.NoError(t, repo.Create(&entities.ReadingProgress{
			UserID: 1, BookID: book.ID, TotalPages: 100,
			CurrentPage: 10, ProgressPercent: 10, LastReadAt: time.Now(),
		}))
	}

	records, err := repo.ListInProgress(1, 90, 2)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}
