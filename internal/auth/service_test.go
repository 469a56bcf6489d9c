package auth

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/openshelf/openshelf/internal/config"
	"github.com/openshelf/openshelf/internal/database/users"
	"github.com/openshelf/openshelf/internal/entities"
)

func setupTestService(t *testing.T) (*Service, func()) {
	dbPath := "./test_auth_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&entities.User{}))

	svc := NewService(users.NewRepository(db), config.Auth{
		Mode:       config.AuthModeLocal,
		BcryptCost: bcrypt.MinCost,
	})

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return svc, cleanup
}

func TestRegister(t *testing.T) {
	svc, cleanup := setupTestService(t)
	defer cleanup()

	user, err := svc.Register("reader@example.com", "Reader", "a-long-password")
	require.NoError(t, err)

	assert.Equal(t, "reader@example.com", user.Email)
	assert.NotEqual(t, "a-long-password", user.PasswordHash)
	assert.Len(t, user.Token, 64)
}

func TestRegister_Validation(t *testing.T) {
	svc, cleanup := setupTestService(t)
	defer cleanup()

	_, err := svc.Register("", "Reader", "a-long-password")
	assert.ErrorIs(t, err, ErrEmailRequired)

	_, err = svc.Register("reader@example.com", "Reader", "")
	assert.ErrorIs(t, err, ErrPasswordRequired)

	_, err = svc.Register("not-an-email", "Reader", "a-long-password")
	assert.ErrorIs(t, err, ErrEmailInvalid)

	_, err = svc.Register("reader@example.com", "Reader", "short")
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, cleanup := setupTestService(t)
	defer cleanup()

	_, err := svc.Register("reader@example.com", "Reader", "a-long-password")
	require.NoError(t, err)

	_, err = svc.Register("reader@example.com", "Other", "another-password")
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestAuthenticate(t *testing.T) {
	svc, cleanup := setupTestService(t)
	defer cleanup()

	created, err := svc.Register("reader@example.com", "Reader", "a-long-password")
	require.NoError(t, err)

	user, err := svc.Authenticate("reader@example.com", "a-long-password")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)

	_, err = svc.Authenticate("reader@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidPassword)

	_, err = svc.Authenticate("nobody@example.com", "a-long-password")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestValidateToken(t *testing.T) {
	svc, cleanup := setupTestService(t)
	defer cleanup()

	created, err := svc.Register("reader@example.com", "Reader", "a-long-password")
	require.NoError(t, err)

	user, err := svc.ValidateToken(created.Token)
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)

	_, err = svc.ValidateToken("")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.ValidateToken("deadbeef")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
