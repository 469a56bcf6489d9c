// Package progress provides database operations for reading progress records.
//
// One ReadingProgress row exists per (user, book) pair, enforced by a unique
// index. The reading service is the sole writer of the derived fields
// (ProgressPercent, IsCompleted, CompletedAt); this package only persists
// what it is given.
//
// # Usage
//
//	repo := progress.NewRepository(db)
//	record, err := repo.GetForBook(userID, bookID)
package progress

import (
	"gorm.io/gorm"

	"github.com/openshelf/openshelf/internal/entities"
)

// Repository handles all reading progress database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new progress repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetForBook retrieves the progress record for a (user, book) pair.
// Returns gorm.ErrRecordNotFound if the user never opened the book.
func (r *Repository) GetForBook(userID, bookID uint) (*entities.ReadingProgress, error) {
	var record entities.ReadingProgress
	err := r.db.Where("user_id = ? AND book_id = ?", userID, bookID).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// GetForBookWithBook retrieves a progress record with its book preloaded.
func (r *Repository) GetForBookWithBook(userID, bookID uint) (*entities.ReadingProgress, error) {
	var record entities.ReadingProgress
	err := r.db.Preload("Book").
		Where("user_id = ? AND book_id = ?", userID, bookID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Create inserts a new progress record.
func (r *Repository) Create(record *entities.ReadingProgress) error {
	return r.db.Create(record).Error
}

// Update persists all fields of an existing progress record.
func (r *Repository) Update(record *entities.ReadingProgress) error {
	return r.db.Save(record).Error
}

// ListForUser returns all progress records for a user, most recently read
// first, with books preloaded.
func (r *Repository) ListForUser(userID uint) ([]entities.ReadingProgress, error) {
	var records []entities.ReadingProgress
	err := r.db.Preload("Book").
		Where("user_id = ?", userID).
		Order("last_read_at DESC").
		Find(&records).Error
	return records, err
}

// ListInProgress returns records for books the user has started but not
// finished (below the given percent threshold), most recently read first.
func (r *Repository) ListInProgress(userID uint, threshold float64, limit int) ([]entities.ReadingProgress, error) {
	var records []entities.ReadingProgress
	query := r.db.Preload("Book").
		Where("user_id = ? AND is_completed = ? AND progress_percent < ?", userID, false, threshold).
		Order("last_read_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&records).Error
	return records, err
}
