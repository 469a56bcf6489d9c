// Package reading implements the reading-progress and streak-tracking
// engine: idempotent progress updates, the one-time completion transition,
// and the per-day streak ledger with retention and repair semantics.
//
// The service is the sole writer of the derived progress fields
// (ProgressPercent, IsCompleted, CompletedAt). All writes for one reading
// event run inside a single database transaction, so a storage failure
// leaves no partial state behind.
package reading

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/openshelf/openshelf/internal/database/books"
	"github.com/openshelf/openshelf/internal/database/completion"
	"github.com/openshelf/openshelf/internal/database/progress"
	"github.com/openshelf/openshelf/internal/database/streaks"
	"github.com/openshelf/openshelf/internal/entities"
)

// DefaultCompletionThreshold is the progress percent at which a book counts
// as finished.
const DefaultCompletionThreshold = 90.0

var (
	ErrMissingUser        = errors.New("user is required")
	ErrMissingBook        = errors.New("book is required")
	ErrInvalidTotalPages  = errors.New("total pages must be positive")
	ErrInvalidCurrentPage = errors.New("current page must not be negative")
	ErrBookNotFound       = errors.New("book not found")
)

// IsValidationError reports whether err is a precondition failure that the
// caller should surface as a bad request rather than a server error.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrMissingUser) ||
		errors.Is(err, ErrMissingBook) ||
		errors.Is(err, ErrInvalidTotalPages) ||
		errors.Is(err, ErrInvalidCurrentPage)
}

// ProgressResult is the outcome of one reading event. CompletedNow is true
// only on the first transition into the completed state; callers use it to
// pick user-facing messaging.
type ProgressResult struct {
	Progress        *entities.ReadingProgress `json:"progress"`
	CompletedNow    bool                      `json:"completed"`
	ProgressPercent float64                   `json:"progress_percent"`
}

// Service coordinates progress, streak, and completion writes over a shared
// database handle.
type Service struct {
	db        *gorm.DB
	threshold float64
	now       func() time.Time
}

// NewService creates the reading service. A non-positive threshold falls
// back to DefaultCompletionThreshold.
func NewService(db *gorm.DB, threshold float64) *Service {
	if threshold <= 0 {
		threshold = DefaultCompletionThreshold
	}
	return &Service{
		db:        db,
		threshold: threshold,
		now:       time.Now,
	}
}

// RecordProgress applies one reading event for a (user, book) pair: it
// upserts the progress record, credits today's streak row, and on the first
// crossing of the completion threshold records the finished book and bumps
// the user's counter. All writes share one transaction.
//
// currentPage may exceed totalPages; the percent is not clamped and the
// completion threshold still applies. Once completed, a record never reverts
// and CompletedAt never changes.
func (s *Service) RecordProgress(userID, bookID uint, currentPage, totalPages int) (*ProgressResult, error) {
	if userID == 0 {
		return nil, ErrMissingUser
	}
	if bookID == 0 {
		return nil, ErrMissingBook
	}
	if totalPages <= 0 {
		return nil, ErrInvalidTotalPages
	}
	if currentPage < 0 {
		return nil, ErrInvalidCurrentPage
	}

	percent := float64(currentPage) / float64(totalPages) * 100
	completed := percent >= s.threshold
	now := s.now()
	today := dayStart(now)

	var result ProgressResult

	err := s.db.Transaction(func(tx *gorm.DB) error {
		progressRepo := progress.NewRepository(tx)
		streakRepo := streaks.NewRepository(tx)
		completionRepo := completion.NewRepository(tx)

		existing, err := progressRepo.GetForBook(userID, bookID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		wasCompleted := existing != nil && existing.IsCompleted
		previousPage := 0

		var record *entities.ReadingProgress
		if existing == nil {
			record = &entities.ReadingProgress{
				UserID:          userID,
				BookID:          bookID,
				CurrentPage:     currentPage,
				TotalPages:      totalPages,
				ProgressPercent: percent,
				IsCompleted:     completed,
				LastReadAt:      now,
			}
			if completed {
				record.CompletedAt = &now
			}
			if err := progressRepo.Create(record); err != nil {
				return err
			}
		} else {
			previousPage = existing.CurrentPage
			existing.CurrentPage = currentPage
			existing.TotalPages = totalPages
			existing.ProgressPercent = percent
			existing.IsCompleted = completed || wasCompleted
			existing.LastReadAt = now
			if completed && !wasCompleted {
				existing.CompletedAt = &now
			}
			if err := progressRepo.Update(existing); err != nil {
				return err
			}
			record = existing
		}

		// Credit today's streak row. The first write of a day always counts
		// at least one page; later writes never decrement, even if the
		// reader moved backward.
		delta := currentPage - previousPage
		day, err := streakRepo.GetDay(userID, today)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = streakRepo.Create(&entities.ReadingStreak{
				UserID:    userID,
				Date:      today,
				PagesRead: max(1, delta),
			})
			if err != nil {
				return err
			}
		} else if err != nil {
			return err
		} else if delta > 0 {
			if err := streakRepo.AddPages(day.ID, delta); err != nil {
				return err
			}
		}

		if completed && !wasCompleted {
			if _, err := completionRepo.MarkCompleted(userID, bookID); err != nil {
				return err
			}
		}

		result = ProgressResult{
			Progress:        record,
			CompletedNow:    completed && !wasCompleted,
			ProgressPercent: percent,
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update reading progress: %w", err)
	}

	return &result, nil
}

// MarkBookRead is the slug-based completion entry point: it resolves the
// book by slug and unconditionally records it as finished, with no percent
// threshold. It is deliberately kept separate from RecordProgress; the two
// paths have different completion criteria.
func (s *Service) MarkBookRead(userID uint, slug string, page int) (*ProgressResult, error) {
	if userID == 0 {
		return nil, ErrMissingUser
	}
	if slug == "" {
		return nil, ErrMissingBook
	}
	if page < 0 {
		return nil, ErrInvalidCurrentPage
	}

	book, err := books.NewRepository(s.db).GetBySlug(slug)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve book: %w", err)
	}

	totalPages := book.PageCount
	if totalPages <= 0 {
		totalPages = max(1, page)
	}
	percent := float64(page) / float64(totalPages) * 100
	now := s.now()

	var result ProgressResult

	err = s.db.Transaction(func(tx *gorm.DB) error {
		progressRepo := progress.NewRepository(tx)
		completionRepo := completion.NewRepository(tx)

		existing, err := progressRepo.GetForBook(userID, book.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		wasCompleted := existing != nil && existing.IsCompleted

		var record *entities.ReadingProgress
		if existing == nil {
			record = &entities.ReadingProgress{
				UserID:          userID,
				BookID:          book.ID,
				CurrentPage:     page,
				TotalPages:      totalPages,
				ProgressPercent: percent,
				IsCompleted:     true,
				CompletedAt:     &now,
				LastReadAt:      now,
			}
			if err := progressRepo.Create(record); err != nil {
				return err
			}
		} else {
			existing.CurrentPage = page
			existing.TotalPages = totalPages
			existing.ProgressPercent = percent
			existing.IsCompleted = true
			existing.LastReadAt = now
			if !wasCompleted {
				existing.CompletedAt = &now
			}
			if err := progressRepo.Update(existing); err != nil {
				return err
			}
			record = existing
		}

		if _, err := completionRepo.MarkCompleted(userID, book.ID); err != nil {
			return err
		}

		result = ProgressResult{
			Progress:        record,
			CompletedNow:    !wasCompleted,
			ProgressPercent: percent,
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to mark book read: %w", err)
	}

	return &result, nil
}

// GetProgress returns the progress record for a (user, book) pair with the
// book preloaded, or nil when the user never opened the book. Display-only
// path: storage failures degrade to nil.
func (s *Service) GetProgress(userID, bookID uint) *entities.ReadingProgress {
	record, err := progress.NewRepository(s.db).GetForBookWithBook(userID, bookID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		log.Printf("Error getting book progress: %v", err)
		return nil
	}
	return record
}

// ListProgress returns all progress records for a user, most recently read
// first. Display-only path: storage failures degrade to an empty slice.
func (s *Service) ListProgress(userID uint) []entities.ReadingProgress {
	records, err := progress.NewRepository(s.db).ListForUser(userID)
	if err != nil {
		log.Printf("Error listing reading progress: %v", err)
		return []entities.ReadingProgress{}
	}
	return records
}

// ContinueReadingItem is a catalog entry flattened together with the user's
// position in it, shaped for the continue-reading shelf.
type ContinueReadingItem struct {
	entities.Book
	ProgressID      uint      `json:"progress_id"`
	CurrentPage     int       `json:"current_page"`
	TotalPages      int       `json:"total_pages"`
	ProgressPercent float64   `json:"progress_percent"`
	LastReadAt      time.Time `json:"last_read_at"`
}

// ListContinueReading returns books the user has started but not finished,
// most recently read first. Display-only path: storage failures degrade to
// an empty slice.
func (s *Service) ListContinueReading(userID uint, limit int) []ContinueReadingItem {
	records, err := progress.NewRepository(s.db).ListInProgress(userID, s.threshold, limit)
	if err != nil {
		log.Printf("Error getting continue reading: %v", err)
		return []ContinueReadingItem{}
	}

	items := make([]ContinueReadingItem, 0, len(records))
	for _, record := range records {
		items = append(items, ContinueReadingItem{
			Book:            record.Book,
			ProgressID:      record.ID,
			CurrentPage:     record.CurrentPage,
			TotalPages:      record.TotalPages,
			ProgressPercent: record.ProgressPercent,
			LastReadAt:      record.LastReadAt,
		})
	}
	return items
}

// CompletedBook is a finished catalog entry with its completion details.
type CompletedBook struct {
	entities.Book
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	ProgressPercent float64    `json:"progress_percent"`
}

// ListCompleted returns the user's finished books, most recently completed
// first with undated completions last. Display-only path: storage failures
// degrade to an empty slice.
func (s *Service) ListCompleted(userID uint) []CompletedBook {
	records, err := completion.NewRepository(s.db).ListForUser(userID)
	if err != nil {
		log.Printf("Error getting completed books: %v", err)
		return []CompletedBook{}
	}

	progressRecords, err := progress.NewRepository(s.db).ListForUser(userID)
	if err != nil {
		log.Printf("Error getting completion dates: %v", err)
		progressRecords = nil
	}
	byBook := make(map[uint]entities.ReadingProgress, len(progressRecords))
	for _, record := range progressRecords {
		byBook[record.BookID] = record
	}

	completed := make([]CompletedBook, 0, len(records))
	for _, record := range records {
		book := CompletedBook{Book: record.Book, ProgressPercent: 100}
		if record, ok := byBook[record.BookID]; ok {
			book.CompletedAt = record.CompletedAt
			if record.ProgressPercent > 0 {
				book.ProgressPercent = record.ProgressPercent
			}
		}
		completed = append(completed, book)
	}

	sortCompleted(completed)
	return completed
}

// sortCompleted orders newest completion first; books without a completion
// date sink to the end.
func sortCompleted(books []CompletedBook) {
	sort.SliceStable(books, func(i, j int) bool {
		a, b := books[i], books[j]
		if a.CompletedAt == nil {
			return false
		}
		if b.CompletedAt == nil {
			return true
		}
		return a.CompletedAt.After(*b.CompletedAt)
	})
}

// dayStart truncates a time to local midnight.
func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
