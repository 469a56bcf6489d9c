package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/openshelf/internal/auth"
	"github.com/openshelf/openshelf/internal/database"
	"github.com/openshelf/openshelf/internal/database/books"
	"github.com/openshelf/openshelf/internal/entities"
	"github.com/openshelf/openshelf/internal/reading"
)

func setupBooksTest(t *testing.T) (*database.Database, *gin.Engine, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dbPath := "./test_books_api_" + strings.ReplaceAll(t.Name(), "/", "_") + ".db"
	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(auth.ContextKeyUserID, uint(1))
		c.Next()
	})
	repo := books.NewRepository(db.DB)
	svc := reading.NewService(db.DB, 0)
	NewBooksController(repo, svc).RegisterRoutes(router)

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}
	return db, router, cleanup
}

func TestBooksAPI_CreateAndGet(t *testing.T) {
	_, router, cleanup := setupBooksTest(t)
	defer cleanup()

	w := httptest.NewRecorder()
	body := strings.NewReader(`{"slug": "dune", "title": "Dune", "author": "Frank Herbert", "page_count": 412}`)
	req, _ := http.NewRequest("POST", "/api/books", body)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	// Fetch by numeric ID
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/api/books/1", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var book entities.Book
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &book))
	assert.Equal(t, "Dune", book.Title)

	// Fetch by slug through the same route
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/api/books/dune", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &book))
	assert.Equal(t, uint(1), book.ID)
}

func TestBooksAPI_CreateValidation(t *testing.T) {
	_, router, cleanup := setupBooksTest(t)
	defer cleanup()

	w := httptest.NewRecorder()
	body := strings.NewReader(`{"author": "No Title"}`)
	req, _ := http.NewRequest("POST", "/api/books", body)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBooksAPI_CreateGeneratesSlug(t *testing.T) {
	_, router, cleanup := setupBooksTest(t)
	defer cleanup()

	w := httptest.NewRecorder()
	body := strings.NewReader(`{"title": "The Left Hand of Darkness"}`)
	req, _ := http.NewRequest("POST", "/api/books", body)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var book entities.Book
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &book))
	assert.Equal(t, "the-left-hand-of-darkness", book.Slug)
}

func TestBooksAPI_List(t *testing.T) {
	db, router, cleanup := setupBooksTest(t)
	defer cleanup()

	fixtures := []entities.Book{
		{Slug: "dune", Title: "Dune", Author: "Frank Herbert", Category: "fiction", IsFeatured: true},
		{Slug: "sapiens", Title: "Sapiens", Author: "Yuval Noah Harari", Category: "history"},
	}
	for i := range fixtures {
		require.NoError(t, db.DB.Create(&fixtures[i]).Error)
	}

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/books?category=fiction", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var page PaginatedResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, int64(1), page.Total)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/api/books?featured=bogus", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBooksAPI_NotFound(t *testing.T) {
	_, router, cleanup := setupBooksTest(t)
	defer cleanup()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/books/99", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("DELETE", "/api/books/99", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBooksAPI_Delete(t *testing.T) {
	db, router, cleanup := setupBooksTest(t)
	defer cleanup()

	book := &entities.Book{Slug: "dune", Title: "Dune"}
	require.NoError(t, db.DB.Create(book).Error)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("DELETE", "/api/books/1", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/api/books/1", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBooksAPI_ProgressBySlug(t *testing.T) {
	db, router, cleanup := setupBooksTest(t)
	defer cleanup()

	user := &entities.User{Email: "reader@example.com", Name: "Reader"}
	require.NoError(t, db.DB.Create(user).Error)
	book := &entities.Book{Slug: "dune", Title: "Dune", PageCount: 400}
	require.NoError(t, db.DB.Create(book).Error)

	w := httptest.NewRecorder()
	body := strings.NewReader(`{"page": 12}`)
	req, _ := http.NewRequest("POST", "/api/books/dune/progress", body)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var result reading.ProgressResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.CompletedNow)
	assert.True(t, result.Progress.IsCompleted)

	// Unknown slug
	w = httptest.NewRecorder()
	body = strings.NewReader(`{"page": 12}`)
	req, _ = http.NewRequest("POST", "/api/books/missing/progress", body)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
