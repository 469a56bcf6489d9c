package entities

import (
	"time"

	"gorm.io/gorm"
)

// User is a registered reader. BooksRead is a denormalized counter that is
// incremented exactly once per completed book (see database/completion).
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Email        string         `gorm:"uniqueIndex;size:255" json:"email"`
	Name         string         `gorm:"size:100" json:"name"`
	PasswordHash string         `gorm:"size:100" json:"-"`
	Token        string         `gorm:"uniqueIndex;size:64" json:"-"` // API token, hidden from JSON
	BooksRead    int            `gorm:"default:0" json:"books_read"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}
