package entities

import (
	"time"

	"gorm.io/gorm"
)

// Book is a catalog entry for a digital book.
type Book struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Slug        string         `gorm:"uniqueIndex;size:256" json:"slug"`
	Title       string         `gorm:"index;size:512" json:"title"`
	Author      string         `gorm:"index;size:256" json:"author"`
	Description string         `gorm:"type:text" json:"description,omitempty"`
	Category    string         `gorm:"index;size:100" json:"category"`
	CoverImage  string         `gorm:"size:2048" json:"cover_image,omitempty"`
	PDFURL      string         `gorm:"size:2048" json:"pdf_url,omitempty"`
	FileSize    int64          `json:"file_size,omitempty"`
	PageCount   int            `json:"page_count,omitempty"`
	Language    string         `gorm:"size:50;default:'English'" json:"language"`
	IsFeatured  bool           `gorm:"default:false" json:"is_featured"`
	PublishedAt *time.Time     `json:"published_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// Favourite marks a book as a favourite of a user. Unique per (user, book).
type Favourite struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;uniqueIndex:idx_favourite_user_book" json:"user_id"`
	BookID    uint      `gorm:"uniqueIndex:idx_favourite_user_book" json:"book_id"`
	Book      Book      `gorm:"foreignKey:BookID" json:"book,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
