package interfaces

// Compile-time interface implementation checks. These ensure the concrete
// types satisfy the store interfaces the HTTP controllers declare, catching
// missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/openshelf/openshelf/internal/database/books"
	"github.com/openshelf/openshelf/internal/database/favourites"
	"github.com/openshelf/openshelf/internal/database/users"
	"github.com/openshelf/openshelf/internal/http"
	"github.com/openshelf/openshelf/internal/reading"
	"github.com/openshelf/openshelf/internal/scheduler"
	"github.com/openshelf/openshelf/internal/tasks"
)

// Data access layer
var _ http.BookStore = (*books.Repository)(nil)
var _ http.FavouritesStore = (*favourites.Repository)(nil)

// Reading engine
var _ http.ReadingStore = (*reading.Service)(nil)
var _ http.BookCompleter = (*reading.Service)(nil)
var _ tasks.StreakPruner = (*reading.Service)(nil)

// Scheduler fan-out
var _ scheduler.UserLister = (*users.Repository)(nil)
