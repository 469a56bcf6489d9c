// Package books provides database operations for the book catalog.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	book, err := repo.GetBySlug("war-and-peace")
package books

import (
	"gorm.io/gorm"

	"github.com/openshelf/openshelf/internal/entities"
)

// ListFilters narrows down catalog listings. Zero values mean "no filter".
type ListFilters struct {
	Category   string
	Language   string
	IsFeatured *bool
	Search     string
	Limit      int
	Offset     int
}

// Repository handles all book catalog database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new catalog entry.
func (r *Repository) Create(book *entities.Book) error {
	return r.db.Create(book).Error
}

// Update persists all fields of an existing catalog entry.
func (r *Repository) Update(book *entities.Book) error {
	return r.db.Save(book).Error
}

// Delete soft-deletes a catalog entry.
func (r *Repository) Delete(id uint) error {
	return r.db.Delete(&entities.Book{}, id).Error
}

// GetByID retrieves a book by ID.
func (r *Repository) GetByID(id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.First(&book, id).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// GetBySlug retrieves a book by its URL slug.
func (r *Repository) GetBySlug(slug string) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Where("slug = ?", slug).First(&book).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// List returns catalog entries matching the filters plus the total count
// before pagination, newest first.
func (r *Repository) List(filters ListFilters) ([]entities.Book, int64, error) {
	var books []entities.Book
	var total int64

	query := r.db.Model(&entities.Book{})
	query = applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyFilters(r.db, filters).Order("created_at DESC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	err := query.Find(&books).Error
	return books, total, err
}

func applyFilters(query *gorm.DB, filters ListFilters) *gorm.DB {
	if filters.Category != "" {
		query = query.Where("category = ?", filters.Category)
	}
	if filters.Language != "" {
		query = query.Where("language = ?", filters.Language)
	}
	if filters.IsFeatured != nil {
		query = query.Where("is_featured = ?", *filters.IsFeatured)
	}
	if filters.Search != "" {
		pattern := "%" + filters.Search + "%"
		query = query.Where(
			"LOWER(title) LIKE LOWER(?) OR LOWER(author) LIKE LOWER(?) OR LOWER(description) LIKE LOWER(?)",
			pattern, pattern, pattern,
		)
	}
	return query
}
