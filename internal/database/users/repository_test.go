package users

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
	dbPath := "./test_users_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.User{})
	require.NoError(t, err)

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return repo, cleanup
}

func TestRepository_CreateGeneratesToken(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	user, err := repo.Create("reader@example.com", "Reader", "hash")
	require.NoError(t, err)
	assert.NotEmpty(t, user.Token)
	assert.Len(t, user.Token, 64)
	assert.Equal(t, 0, user.BooksRead)
}

func TestRepository_Create_DuplicateEmailRejected(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.Create("reader@example.com", "Reader", "hash")
	require.NoError(t, err)

	_, err = repo.Create("reader@example.com", "Other", "hash")
	assert.Error(t, err)
}

func TestRepository_GetByEmailAndToken(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	created, err := repo.Create("reader@example.com", "Reader", "hash")
	require.NoError(t, err)

	byEmail, err := repo.GetByEmail("reader@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	byToken, err := repo.GetByToken(created.Token)
	require.NoError(t, err)
	assert.Equal(t, created.ID, byToken.ID)

	_, err = repo.GetByToken("bogus")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepository_ListIDs(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	first, err := repo.Create("a@example.com", "A", "hash")
	require.NoError(t, err)
	second, err := repo.Create("b@example.com", "B", "hash")
	require.NoError(t, err)

	ids, err := repo.ListIDs()
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{first.ID, second.ID}, ids)
}
