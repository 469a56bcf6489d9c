// Package streaks provides database operations for the per-day reading
// activity ledger.
//
// One ReadingStreak row exists per (user, calendar day at local midnight),
// enforced by a unique index. Writes are additive only: PagesRead never
// decreases. Retention pruning deletes rows strictly older than the cutoff,
// so it can never touch today's row.
package streaks

import (
	"time"

	"gorm.io/gorm"

	"github.com/openshelf/openshelf/internal/entities"
)

// Repository handles all streak ledger database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new streaks repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetDay retrieves the streak row for a user on a specific day.
// The day must already be normalized to midnight.
// Returns gorm.ErrRecordNotFound if the user has no activity that day.
func (r *Repository) GetDay(userID uint, day time.Time) (*entities.ReadingStreak, error) {
	var streak entities.ReadingStreak
	err := r.db.Where("user_id = ? AND date = ?", userID, day).First(&streak).Error
	if err != nil {
		return nil, err
	}
	return &streak, nil
}

// Create inserts a new streak row.
func (r *Repository) Create(streak *entities.ReadingStreak) error {
	return r.db.Create(streak).Error
}

// AddPages increments the page count of an existing streak row.
// Callers must never pass a negative count.
func (r *Repository) AddPages(id uint, pages int) error {
	return r.db.Model(&entities.ReadingStreak{}).
		Where("id = ?", id).
		UpdateColumn("pages_read", gorm.Expr("pages_read + ?", pages)).Error
}

// TotalPages returns the sum of pages read across all of a user's streak
// rows, not just the active streak window.
func (r *Repository) TotalPages(userID uint) (int, error) {
	var total int64
	err := r.db.Model(&entities.ReadingStreak{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(pages_read), 0)").
		Scan(&total).Error
	return int(total), err
}

// Range returns a user's streak rows with dates in [from, to], ascending.
func (r *Repository) Range(userID uint, from, to time.Time) ([]entities.ReadingStreak, error) {
	var rows []entities.ReadingStreak
	err := r.db.Where("user_id = ? AND date >= ? AND date <= ?", userID, from, to).
		Order("date ASC").
		Find(&rows).Error
	return rows, err
}

// DeleteOlderThan removes a user's streak rows with dates strictly before the
// cutoff and returns the number deleted. Safe to run repeatedly.
func (r *Repository) DeleteOlderThan(userID uint, cutoff time.Time) (int64, error) {
	result := r.db.Where("user_id = ? AND date < ?", userID, cutoff).
		Delete(&entities.ReadingStreak{})
	return result.RowsAffected, result.Error
}

// ListAll returns every streak row ordered by user and date. Used by the
// fix-streaks repair command to detect duplicate (user, day) rows.
func (r *Repository) ListAll() ([]entities.ReadingStreak, error) {
	var rows []entities.ReadingStreak
	err := r.db.Order("user_id ASC, date ASC, created_at ASC").Find(&rows).Error
	return rows, err
}

// Delete removes a single streak row by ID.
func (r *Repository) Delete(id uint) error {
	return r.db.Delete(&entities.ReadingStreak{}, id).Error
}
