// Package completion provides database operations for finished-book records.
//
// A UserBook row is inserted at most once per (user, book) pair; the insert
// is what increments the user's BooksRead counter, so the counter moves by
// exactly 1 per completed book. The existence check makes MarkCompleted
// idempotent against replayed or concurrent completion triggers.
package completion

import (
	"errors"

	"gorm.io/gorm"

	"github.com/openshelf/openshelf/internal/entities"
)

// Repository handles all book completion database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new completion repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Exists reports whether a completion record exists for a (user, book) pair.
func (r *Repository) Exists(userID, bookID uint) (bool, error) {
	var record entities.UserBook
	err := r.db.Where("user_id = ? AND book_id = ?", userID, bookID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// MarkCompleted records a finished book and bumps the user's BooksRead
// counter. A no-op when the pair is already recorded. Returns true when the
// record was inserted by this call.
func (r *Repository) MarkCompleted(userID, bookID uint) (bool, error) {
	exists, err := r.Exists(userID, bookID)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	record := &entities.UserBook{UserID: userID, BookID: bookID}
	if err := r.db.Create(record).Error; err != nil {
		return false, err
	}

	err = r.db.Model(&entities.User{}).
		Where("id = ?", userID).
		UpdateColumn("books_read", gorm.Expr("books_read + 1")).Error
	if err != nil {
		return false, err
	}

	return true, nil
}

// ListForUser returns all finished-book records for a user with books
// preloaded.
func (r *Repository) ListForUser(userID uint) ([]entities.UserBook, error) {
	var records []entities.UserBook
	err := r.db.Preload("Book").Where("user_id = ?", userID).Find(&records).Error
	return records, err
}
