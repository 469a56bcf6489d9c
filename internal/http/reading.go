package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/openshelf/openshelf/internal/entities"
	"github.com/openshelf/openshelf/internal/reading"
)

// ReadingStore defines the reading engine operations the controller needs.
type ReadingStore interface {
	RecordProgress(userID, bookID uint, currentPage, totalPages int) (*reading.ProgressResult, error)
	GetProgress(userID, bookID uint) *entities.ReadingProgress
	ListProgress(userID uint) []entities.ReadingProgress
	ListContinueReading(userID uint, limit int) []reading.ContinueReadingItem
	ListCompleted(userID uint) []reading.CompletedBook
	CurrentStreak(userID uint) reading.StreakSummary
	Heatmap(userID uint, year int) []reading.HeatmapEntry
	TrackOpen(userID, bookID uint) error
	PruneOldStreaks(userID uint, retentionDays int) (int64, error)
	CheckStreakBroken(userID uint) (bool, error)
}

type ReadingController struct {
	store ReadingStore
}

func NewReadingController(store ReadingStore) *ReadingController {
	return &ReadingController{store: store}
}

// RegisterRoutes wires the reading endpoints under /api/reading.
func (rc *ReadingController) RegisterRoutes(router gin.IRouter) {
	group := router.Group("/api/reading")
	group.PUT("/progress", rc.UpdateProgress)
	group.GET("/progress", rc.ListProgress)
	group.GET("/progress/:bookId", rc.GetProgress)
	group.GET("/continue", rc.ContinueReading)
	group.GET("/completed", rc.CompletedBooks)
	group.GET("/streak", rc.Streak)
	group.GET("/heatmap/:year", rc.Heatmap)
	group.POST("/track-open", rc.TrackOpen)
	group.DELETE("/streak/old", rc.PruneStreaks)
	group.POST("/streak/reset", rc.StreakReset)
}

type updateProgressRequest struct {
	BookID      uint `json:"book_id" binding:"required"`
	CurrentPage int  `json:"current_page"`
	TotalPages  int  `json:"total_pages" binding:"required"`
}

// UpdateProgress applies one reading event.
// PUT /api/reading/progress
func (rc *ReadingController) UpdateProgress(c *gin.Context) {
	var req updateProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "book_id and total_pages are required")
		return
	}

	result, err := rc.store.RecordProgress(GetUserID(c), req.BookID, req.CurrentPage, req.TotalPages)
	if err != nil {
		if reading.IsValidationError(err) {
			respondBadRequest(c, err.Error())
			return
		}
		respondInternalError(c, err, "update reading progress")
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetProgress returns the progress for one book, or null when the book was
// never opened.
// GET /api/reading/progress/:bookId
func (rc *ReadingController) GetProgress(c *gin.Context) {
	bookID, ok := parseIDParam(c, "bookId")
	if !ok {
		return
	}

	progress := rc.store.GetProgress(GetUserID(c), bookID)
	c.JSON(http.StatusOK, gin.H{"progress": progress})
}

// ListProgress returns all progress records for the user.
// GET /api/reading/progress
func (rc *ReadingController) ListProgress(c *gin.Context) {
	records := rc.store.ListProgress(GetUserID(c))
	c.JSON(http.StatusOK, gin.H{"progress": records, "count": len(records)})
}

// ContinueReading returns started-but-unfinished books, most recent first.
// GET /api/reading/continue
func (rc *ReadingController) ContinueReading(c *gin.Context) {
	limit, _ := parsePagination(c, 10, 50)
	items := rc.store.ListContinueReading(GetUserID(c), limit)
	c.JSON(http.StatusOK, gin.H{"books": items, "count": len(items)})
}

// CompletedBooks returns the user's finished books.
// GET /api/reading/completed
func (rc *ReadingController) CompletedBooks(c *gin.Context) {
	books := rc.store.ListCompleted(GetUserID(c))
	c.JSON(http.StatusOK, gin.H{"books": books, "count": len(books)})
}

// Streak returns the current streak summary.
// GET /api/reading/streak
func (rc *ReadingController) Streak(c *gin.Context) {
	c.JSON(http.StatusOK, rc.store.CurrentStreak(GetUserID(c)))
}

// Heatmap returns the active reading days for one calendar year.
// GET /api/reading/heatmap/:year
func (rc *ReadingController) Heatmap(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil || year < 1970 || year > 9999 {
		respondBadRequest(c, "invalid year")
		return
	}

	entries := rc.store.Heatmap(GetUserID(c), year)
	c.JSON(http.StatusOK, gin.H{"heatmap": entries, "year": year})
}

type trackOpenRequest struct {
	BookID uint `json:"book_id" binding:"required"`
}

// TrackOpen registers a book open so the day counts toward the streak even
// without a progress event.
// POST /api/reading/track-open
func (rc *ReadingController) TrackOpen(c *gin.Context) {
	var req trackOpenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "book_id is required")
		return
	}

	if err := rc.store.TrackOpen(GetUserID(c), req.BookID); err != nil {
		if reading.IsValidationError(err) {
			respondBadRequest(c, err.Error())
			return
		}
		respondInternalError(c, err, "track book open")
		return
	}

	respondSuccess(c, "book open tracked")
}

// PruneStreaks deletes streak rows older than the retention window.
// DELETE /api/reading/streak/old?days=N
func (rc *ReadingController) PruneStreaks(c *gin.Context) {
	days := 0
	if daysStr := c.Query("days"); daysStr != "" {
		d, err := strconv.Atoi(daysStr)
		if err != nil || d < 0 {
			respondBadRequest(c, "invalid days")
			return
		}
		days = d
	}

	deleted, err := rc.store.PruneOldStreaks(GetUserID(c), days)
	if err != nil {
		respondInternalError(c, err, "prune old streaks")
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

// StreakReset reports whether the streak broke yesterday. The route name is
// historical; no state is modified.
// POST /api/reading/streak/reset
func (rc *ReadingController) StreakReset(c *gin.Context) {
	broken, err := rc.store.CheckStreakBroken(GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "check streak")
		return
	}

	c.JSON(http.StatusOK, gin.H{"broken": broken})
}
