package http

import (
	"github.com/openshelf/openshelf/internal/auth"
	"github.com/openshelf/openshelf/internal/database"
)

// RouterConfig contains all dependencies and configuration needed to create
// the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Database     *database.Database
	ReadingStore ReadingStore

	// Catalog
	BookStore     BookStore
	BookCompleter BookCompleter

	// Favourites
	FavouritesStore FavouritesStore

	// Authentication (all nil/empty when AUTH_MODE=none)
	AuthService    *auth.Service
	AuthMiddleware *auth.Middleware
	SessionManager *auth.SessionManager
	CSRFSecret     []byte
	SecureCookies  bool

	// Application info
	Version string
}
