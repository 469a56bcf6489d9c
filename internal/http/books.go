package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/openshelf/openshelf/internal/database/books"
	"github.com/openshelf/openshelf/internal/entities"
	"github.com/openshelf/openshelf/internal/reading"
	"github.com/openshelf/openshelf/internal/utils"
)

// BookStore defines the catalog operations the controller needs.
type BookStore interface {
	Create(book *entities.Book) error
	Update(book *entities.Book) error
	Delete(id uint) error
	GetByID(id uint) (*entities.Book, error)
	GetBySlug(slug string) (*entities.Book, error)
	List(filters books.ListFilters) ([]entities.Book, int64, error)
}

// BookCompleter is the slug-based completion entry point.
type BookCompleter interface {
	MarkBookRead(userID uint, slug string, page int) (*reading.ProgressResult, error)
}

type BooksController struct {
	store     BookStore
	completer BookCompleter
}

func NewBooksController(store BookStore, completer BookCompleter) *BooksController {
	return &BooksController{
		store:     store,
		completer: completer,
	}
}

// RegisterRoutes wires the catalog endpoints under /api/books. Everything
// below /api/books shares the :id segment because the router rejects mixed
// static and wildcard siblings; GetBook accepts a slug in the same position.
func (bc *BooksController) RegisterRoutes(router gin.IRouter) {
	group := router.Group("/api/books")
	group.GET("", bc.ListBooks)
	group.POST("", bc.CreateBook)
	group.GET("/:id", bc.GetBook)
	group.PUT("/:id", bc.UpdateBook)
	group.DELETE("/:id", bc.DeleteBook)
	group.POST("/:id/progress", bc.UpdateProgressBySlug)
}

// ListBooks returns a filtered page of the catalog.
// GET /api/books
func (bc *BooksController) ListBooks(c *gin.Context) {
	limit, offset := parsePagination(c, 20, 100)

	filters := books.ListFilters{
		Category: c.Query("category"),
		Language: c.Query("language"),
		Search:   c.Query("search"),
		Limit:    limit,
		Offset:   offset,
	}
	if featuredStr := c.Query("featured"); featuredStr != "" {
		featured, err := strconv.ParseBool(featuredStr)
		if err != nil {
			respondBadRequest(c, "invalid featured")
			return
		}
		filters.IsFeatured = &featured
	}

	result, total, err := bc.store.List(filters)
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}

	c.JSON(http.StatusOK, PaginatedResponse{
		Data:    result,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: int64(offset+len(result)) < total,
	})
}

type bookRequest struct {
	Slug        string     `json:"slug"`
	Title       string     `json:"title" binding:"required"`
	Author      string     `json:"author"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	CoverImage  string     `json:"cover_image"`
	PDFURL      string     `json:"pdf_url"`
	FileSize    int64      `json:"file_size"`
	PageCount   int        `json:"page_count"`
	Language    string     `json:"language"`
	IsFeatured  bool       `json:"is_featured"`
	PublishedAt *time.Time `json:"published_at"`
}

// CreateBook adds a book to the catalog.
// POST /api/books
func (bc *BooksController) CreateBook(c *gin.Context) {
	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "title is required")
		return
	}
	if req.Slug == "" {
		req.Slug = utils.Slugify(req.Title)
	}

	book := &entities.Book{
		Slug:        req.Slug,
		Title:       req.Title,
		Author:      req.Author,
		Description: req.Description,
		Category:    req.Category,
		CoverImage:  req.CoverImage,
		PDFURL:      req.PDFURL,
		FileSize:    req.FileSize,
		PageCount:   req.PageCount,
		Language:    req.Language,
		IsFeatured:  req.IsFeatured,
		PublishedAt: req.PublishedAt,
	}
	if err := bc.store.Create(book); err != nil {
		respondInternalError(c, err, "create book")
		return
	}

	respondCreated(c, book)
}

// GetBook returns one book. A numeric parameter is treated as an ID, any
// other value as a slug.
// GET /api/books/:id
func (bc *BooksController) GetBook(c *gin.Context) {
	param := c.Param("id")

	var book *entities.Book
	var err error
	if id, parseErr := strconv.ParseUint(param, 10, 32); parseErr == nil {
		book, err = bc.store.GetByID(uint(id))
	} else {
		book, err = bc.store.GetBySlug(param)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondNotFound(c, "book")
		return
	}
	if err != nil {
		respondInternalError(c, err, "get book")
		return
	}

	c.JSON(http.StatusOK, book)
}

// UpdateBook replaces the mutable fields of a book.
// PUT /api/books/:id
func (bc *BooksController) UpdateBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := bc.store.GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondNotFound(c, "book")
		return
	}
	if err != nil {
		respondInternalError(c, err, "get book")
		return
	}

	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "title is required")
		return
	}
	if req.Slug == "" {
		req.Slug = book.Slug
	}

	book.Slug = req.Slug
	book.Title = req.Title
	book.Author = req.Author
	book.Description = req.Description
	book.Category = req.Category
	book.CoverImage = req.CoverImage
	book.PDFURL = req.PDFURL
	book.FileSize = req.FileSize
	book.PageCount = req.PageCount
	book.Language = req.Language
	book.IsFeatured = req.IsFeatured
	book.PublishedAt = req.PublishedAt

	if err := bc.store.Update(book); err != nil {
		respondInternalError(c, err, "update book")
		return
	}

	c.JSON(http.StatusOK, book)
}

// DeleteBook soft-deletes a book.
// DELETE /api/books/:id
func (bc *BooksController) DeleteBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if _, err := bc.store.GetByID(id); errors.Is(err, gorm.ErrRecordNotFound) {
		respondNotFound(c, "book")
		return
	}

	if err := bc.store.Delete(id); err != nil {
		respondInternalError(c, err, "delete book")
		return
	}

	respondSuccess(c, "book deleted")
}

type slugProgressRequest struct {
	Page int `json:"page"`
}

// UpdateProgressBySlug marks a book as read by slug, regardless of how far
// the reader got. Kept separate from the page-based progress endpoint; the
// two have different completion rules.
// POST /api/books/:id/progress (the parameter is the slug)
func (bc *BooksController) UpdateProgressBySlug(c *gin.Context) {
	var req slugProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	result, err := bc.completer.MarkBookRead(GetUserID(c), c.Param("id"), req.Page)
	if err != nil {
		switch {
		case errors.Is(err, reading.ErrBookNotFound):
			respondNotFound(c, "book")
		case reading.IsValidationError(err):
			respondBadRequest(c, err.Error())
		default:
			respondInternalError(c, err, "mark book read")
		}
		return
	}

	c.JSON(http.StatusOK, result)
}
