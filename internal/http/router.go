// Package http wires the JSON API: catalog, favourites, reading progress,
// streaks, and auth endpoints. Controllers declare the narrow store
// interfaces they need; the router assembles them from RouterConfig.
package http

import (
	"github.com/gin-gonic/gin"

	"github.com/openshelf/openshelf/internal/auth"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// CSRF must run before session so the session context survives CSRF's
	// request replacement
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies, cfg.AuthService))
	}
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
	}

	if cfg.AuthMiddleware != nil {
		router.Use(cfg.AuthMiddleware.Handler())
	} else {
		// No auth configured at all: run as the default user
		router.Use(func(c *gin.Context) {
			c.Set(auth.ContextKeyUserID, auth.DefaultUserID)
			c.Set(auth.ContextKeyAuthType, auth.AuthTypeNone)
			c.Next()
		})
	}

	if cfg.AuthService != nil {
		auth.NewController(cfg.AuthService, cfg.SessionManager).RegisterRoutes(router)
	}

	health := NewHealthController(cfg.Database, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	if cfg.ReadingStore != nil {
		NewReadingController(cfg.ReadingStore).RegisterRoutes(router)
	}
	if cfg.BookStore != nil {
		NewBooksController(cfg.BookStore, cfg.BookCompleter).RegisterRoutes(router)
	}
	if cfg.FavouritesStore != nil {
		NewFavouritesController(cfg.FavouritesStore).RegisterRoutes(router)
	}

	return router
}
