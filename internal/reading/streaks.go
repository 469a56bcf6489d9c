package reading

import (
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/openshelf/openshelf/internal/database/streaks"
	"github.com/openshelf/openshelf/internal/entities"
)

// DefaultRetentionDays is how long streak rows are kept when no explicit
// retention is requested.
const DefaultRetentionDays = 90

// StreakSummary describes a user's current streak.
//
// LastReadDate is today whenever the streak is non-zero, not the date of the
// most recent ledger row. That mirrors the behavior readers already see and
// is kept until product intent says otherwise.
type StreakSummary struct {
	CurrentStreak  int        `json:"current_streak"`
	TotalPagesRead int        `json:"total_pages_read"`
	LastReadDate   *time.Time `json:"last_read_date"`
}

// HeatmapEntry is one active day in a calendar-year activity series.
type HeatmapEntry struct {
	Date      time.Time `json:"date"`
	PagesRead int       `json:"pages_read"`
}

// CurrentStreak walks backward from today counting consecutive active days,
// and totals pages read across the whole ledger. Display-only path: storage
// failures degrade to a zero summary.
func (s *Service) CurrentStreak(userID uint) StreakSummary {
	repo := streaks.NewRepository(s.db)
	today := dayStart(s.now())

	streak := 0
	day := today
	for {
		row, err := repo.GetDay(userID, day)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			break
		}
		if err != nil {
			log.Printf("Error calculating reading streak: %v", err)
			return StreakSummary{}
		}
		if row.PagesRead == 0 {
			break
		}
		streak++
		day = dayStart(day.AddDate(0, 0, -1))
	}

	total, err := repo.TotalPages(userID)
	if err != nil {
		log.Printf("Error totalling pages read: %v", err)
		return StreakSummary{}
	}

	summary := StreakSummary{
		CurrentStreak:  streak,
		TotalPagesRead: total,
	}
	if streak > 0 {
		summary.LastReadDate = &today
	}
	return summary
}

// Heatmap returns the user's active days within the given calendar year,
// ascending by date. Days without activity are absent, not zero-filled.
// Display-only path: storage failures degrade to an empty slice.
func (s *Service) Heatmap(userID uint, year int) []HeatmapEntry {
	loc := s.now().Location()
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	to := time.Date(year, time.December, 31, 0, 0, 0, 0, loc)

	rows, err := streaks.NewRepository(s.db).Range(userID, from, to)
	if err != nil {
		log.Printf("Error getting reading heatmap: %v", err)
		return []HeatmapEntry{}
	}

	entries := make([]HeatmapEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, HeatmapEntry{Date: row.Date, PagesRead: row.PagesRead})
	}
	return entries
}

// TrackOpen registers that the user engaged with a book today, even if no
// progress event follows in the same session. Creates today's streak row
// with a single page credited; an existing row is left untouched so pages
// are never double-counted.
func (s *Service) TrackOpen(userID, bookID uint) error {
	if userID == 0 {
		return ErrMissingUser
	}
	if bookID == 0 {
		return ErrMissingBook
	}

	repo := streaks.NewRepository(s.db)
	today := dayStart(s.now())

	_, err := repo.GetDay(userID, today)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = repo.Create(&entities.ReadingStreak{
			UserID:    userID,
			Date:      today,
			PagesRead: 1,
		})
		if err != nil {
			return fmt.Errorf("failed to track book open: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to track book open: %w", err)
	}
	return nil
}

// PruneOldStreaks deletes the user's streak rows strictly older than
// today − retentionDays (day granularity, local midnight) and returns the
// number deleted. Safe to run repeatedly and concurrently with writers: it
// never touches rows inside the retention window, so today's row is never
// at risk.
func (s *Service) PruneOldStreaks(userID uint, retentionDays int) (int64, error) {
	if userID == 0 {
		return 0, ErrMissingUser
	}
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}

	cutoff := dayStart(s.now()).AddDate(0, 0, -retentionDays)
	deleted, err := streaks.NewRepository(s.db).DeleteOlderThan(userID, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old streaks: %w", err)
	}
	return deleted, nil
}

// CheckStreakBroken reports whether yesterday had no reading activity. This
// is a pure read: despite what the route it serves is called, it repairs
// nothing. TODO: rename the /streak/reset route once clients stop calling it.
func (s *Service) CheckStreakBroken(userID uint) (bool, error) {
	if userID == 0 {
		return false, ErrMissingUser
	}

	yesterday := dayStart(s.now()).AddDate(0, 0, -1)
	row, err := streaks.NewRepository(s.db).GetDay(userID, yesterday)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check streak: %w", err)
	}
	return row.PagesRead == 0, nil
}
