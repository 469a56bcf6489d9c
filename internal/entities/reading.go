package entities

import "time"

// ReadingProgress tracks how far a user has read into a book.
// One row per (user, book), enforced by a unique index.
//
// ProgressPercent is always derived from CurrentPage/TotalPages and never set
// independently. IsCompleted is monotonic: once true it is never reverted by
// a progress update. CompletedAt is set at the first transition into the
// completed state and preserved on every later write.
type ReadingProgress struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	UserID          uint       `gorm:"index;uniqueIndex:idx_progress_user_book" json:"user_id"`
	BookID          uint       `gorm:"uniqueIndex:idx_progress_user_book" json:"book_id"`
	Book            Book       `gorm:"foreignKey:BookID" json:"book,omitempty"`
	CurrentPage     int        `json:"current_page"`
	TotalPages      int        `json:"total_pages"`
	ProgressPercent float64    `json:"progress_percent"`
	IsCompleted     bool       `gorm:"default:false" json:"is_completed"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	LastReadAt      time.Time  `gorm:"index" json:"last_read_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// ReadingStreak records reading activity for one user on one calendar day.
// Date is always normalized to local midnight; one row per (user, day).
// PagesRead only ever grows.
type ReadingStreak struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;uniqueIndex:idx_streak_user_date" json:"user_id"`
	Date      time.Time `gorm:"uniqueIndex:idx_streak_user_date" json:"date"`
	PagesRead int       `gorm:"default:0" json:"pages_read"`
	CreatedAt time.Time `json:"created_at"`
}

// UserBook marks a book as finished by a user, independent of the progress
// row. Inserted at most once per (user, book); the insert is what increments
// the user's BooksRead counter.
type UserBook struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;uniqueIndex:idx_user_book_pair" json:"user_id"`
	BookID    uint      `gorm:"uniqueIndex:idx_user_book_pair" json:"book_id"`
	Book      Book      `gorm:"foreignKey:BookID" json:"book,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (UserBook) TableName() string {
	return "user_books"
}
