package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/openshelf/openshelf/internal/entities"
)

// FavouritesStore defines database operations for favourites management.
type FavouritesStore interface {
	Add(userID, bookID uint) error
	Remove(userID, bookID uint) error
	IsFavourite(userID, bookID uint) (bool, error)
	Toggle(userID, bookID uint) (bool, error)
	ListForUser(userID uint, category string, limit, offset int) ([]entities.Favourite, int64, error)
	Count(userID uint) (int64, error)
}

type FavouritesController struct {
	store FavouritesStore
}

func NewFavouritesController(store FavouritesStore) *FavouritesController {
	return &FavouritesController{store: store}
}

// RegisterRoutes wires the favourites endpoints.
func (fc *FavouritesController) RegisterRoutes(router gin.IRouter) {
	router.POST("/api/books/:id/favourite", fc.AddFavourite)
	router.DELETE("/api/books/:id/favourite", fc.RemoveFavourite)
	router.GET("/api/books/:id/favourite", fc.GetFavourite)
	router.POST("/api/books/:id/favourite/toggle", fc.ToggleFavourite)
	router.GET("/api/favourites", fc.ListFavourites)
}

// AddFavourite marks a book as favourite.
// POST /api/books/:id/favourite
func (fc *FavouritesController) AddFavourite(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	err := fc.store.Add(GetUserID(c), id)
	if err != nil {
		// A repeat add hits the unique index; treat it as already done
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed") {
			respondSuccess(c, "favourite added")
			return
		}
		respondInternalError(c, err, "add favourite")
		return
	}

	respondSuccess(c, "favourite added")
}

// RemoveFavourite removes a book from favourites.
// DELETE /api/books/:id/favourite
func (fc *FavouritesController) RemoveFavourite(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := fc.store.Remove(GetUserID(c), id); err != nil {
		respondInternalError(c, err, "remove favourite")
		return
	}

	respondSuccess(c, "favourite removed")
}

// ToggleFavourite flips the favourite state of a book.
// POST /api/books/:id/favourite/toggle
func (fc *FavouritesController) ToggleFavourite(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	isFavourite, err := fc.store.Toggle(GetUserID(c), id)
	if err != nil {
		respondInternalError(c, err, "toggle favourite")
		return
	}

	c.JSON(http.StatusOK, gin.H{"is_favourite": isFavourite})
}

// GetFavourite reports whether a book is favourited.
// GET /api/books/:id/favourite
func (fc *FavouritesController) GetFavourite(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	isFavourite, err := fc.store.IsFavourite(GetUserID(c), id)
	if err != nil {
		respondInternalError(c, err, "get favourite")
		return
	}

	c.JSON(http.StatusOK, gin.H{"is_favourite": isFavourite})
}

// ListFavourites returns the user's favourite books with pagination.
// GET /api/favourites
func (fc *FavouritesController) ListFavourites(c *gin.Context) {
	limit, offset := parsePagination(c, 50, 100)

	favourites, total, err := fc.store.ListForUser(GetUserID(c), c.Query("category"), limit, offset)
	if err != nil {
		respondInternalError(c, err, "list favourites")
		return
	}

	c.JSON(http.StatusOK, PaginatedResponse{
		Data:    favourites,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: int64(offset+len(favourites)) < total,
	})
}
