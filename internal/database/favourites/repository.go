// Package favourites provides database operations for favourite book
// management.
//
// This package implements the FavouritesStore interface defined in
// internal/http/favourites.go.
//
// # Usage
//
//	repo := favourites.NewRepository(db)
//	favs, total, err := repo.ListForUser(userID, "", 20, 0)
package favourites

import (
	"errors"

	"gorm.io/gorm"

	"github.com/openshelf/openshelf/internal/entities"
)

// Repository handles all favourites database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new favourites repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Add marks a book as a favourite for the user.
func (r *Repository) Add(userID, bookID uint) error {
	return r.db.Create(&entities.Favourite{UserID: userID, BookID: bookID}).Error
}

// Remove deletes the favourite record for a (user, book) pair.
func (r *Repository) Remove(userID, bookID uint) error {
	return r.db.Where("user_id = ? AND book_id = ?", userID, bookID).
		Delete(&entities.Favourite{}).Error
}

// IsFavourite reports whether a book is in the user's favourites.
func (r *Repository) IsFavourite(userID, bookID uint) (bool, error) {
	var fav entities.Favourite
	err := r.db.Where("user_id = ? AND book_id = ?", userID, bookID).First(&fav).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Toggle adds the favourite when absent and removes it when present.
// Returns true when the book ended up favourited.
func (r *Repository) Toggle(userID, bookID uint) (bool, error) {
	isFavourite, err := r.IsFavourite(userID, bookID)
	if err != nil {
		return false, err
	}
	if isFavourite {
		return false, r.Remove(userID, bookID)
	}
	return true, r.Add(userID, bookID)
}

// ListForUser returns a user's favourites with books preloaded, newest
// first, optionally filtered by the book's category.
func (r *Repository) ListForUser(userID uint, category string, limit, offset int) ([]entities.Favourite, int64, error) {
	var favourites []entities.Favourite
	var total int64

	query := r.db.Model(&entities.Favourite{}).Where("user_id = ?", userID)
	if category != "" {
		query = query.Joins("JOIN books ON books.id = favourites.book_id").
			Where("books.category = ?", category)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = r.db.Preload("Book").
		Where("user_id = ?", userID).
		Order("favourites.created_at DESC")
	if category != "" {
		query = query.Joins("JOIN books ON books.id = favourites.book_id").
			Where("books.category = ?", category)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	err := query.Find(&favourites).Error
	return favourites, total, err
}

// Count returns the number of favourites a user has.
func (r *Repository) Count(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entities.Favourite{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
