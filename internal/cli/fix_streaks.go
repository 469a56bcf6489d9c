// Package cli implements the maintenance commands that run outside the
// HTTP server.
package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/openshelf/openshelf/internal/config"
	"github.com/openshelf/openshelf/internal/database"
	"github.com/openshelf/openshelf/internal/database/streaks"
	"github.com/openshelf/openshelf/internal/entities"
)

// FixStreaksCommand repairs the streak ledger by collapsing duplicate
// (user, day) rows. Duplicates predate the unique index; the newest row is
// the one writers last touched, so it wins.
type FixStreaksCommand struct {
	DatabasePath string
	Verbose      bool
	DryRun       bool
}

// NewFixStreaksCommand creates a new FixStreaksCommand.
func NewFixStreaksCommand() *FixStreaksCommand {
	return &FixStreaksCommand{}
}

// ParseFlags parses command line flags.
func (cmd *FixStreaksCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("fix-streaks", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&cmd.DryRun, "dry-run", false, "Show what would be removed without making changes")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s fix-streaks [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Remove duplicate streak rows, keeping the most recently created row\n")
		fmt.Fprintf(os.Stderr, "for each user and day.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Preview duplicates without deleting:\n")
		fmt.Fprintf(os.Stderr, "  %s fix-streaks -dry-run -verbose\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  # Repair a specific database file:\n")
		fmt.Fprintf(os.Stderr, "  %s fix-streaks -db /data/openshelf.db\n", os.Args[0])
	}

	return fs.Parse(args)
}

// Run executes the repair.
func (cmd *FixStreaksCommand) Run() error {
	fmt.Println("Streak ledger repair")
	fmt.Println("====================")

	if cmd.DryRun {
		fmt.Println("DRY RUN MODE - No changes will be made")
		fmt.Println()
	}

	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	repo := streaks.NewRepository(db.DB)
	rows, err := repo.ListAll()
	if err != nil {
		return fmt.Errorf("failed to list streak rows: %w", err)
	}

	duplicates := findDuplicates(rows)
	if len(duplicates) == 0 {
		fmt.Println("No duplicate streak rows found")
		return nil
	}

	fmt.Printf("Found %d duplicate streak rows\n", len(duplicates))

	removed := 0
	for _, row := range duplicates {
		if cmd.Verbose {
			fmt.Printf("  user %d, %s: removing row %d (%d pages)\n",
				row.UserID, row.Date.Format("2006-01-02"), row.ID, row.PagesRead)
		}
		if cmd.DryRun {
			continue
		}
		if err := repo.Delete(row.ID); err != nil {
			return fmt.Errorf("failed to delete streak row %d: %w", row.ID, err)
		}
		removed++
	}

	if cmd.DryRun {
		fmt.Printf("Would remove %d rows\n", len(duplicates))
	} else {
		fmt.Printf("Removed %d rows\n", removed)
	}
	return nil
}

// findDuplicates returns the rows to delete: for each (user, day) pair with
// more than one row, every row except the most recently created one. Rows
// arrive ordered by user, date, created_at ascending, so within a group the
// last row is the keeper.
func findDuplicates(rows []entities.ReadingStreak) []entities.ReadingStreak {
	type dayKey struct {
		userID uint
		date   string
	}

	latest := make(map[dayKey]entities.ReadingStreak)
	var duplicates []entities.ReadingStreak

	for _, row := range rows {
		key := dayKey{userID: row.UserID, date: row.Date.Format("2006-01-02")}
		if previous, seen := latest[key]; seen {
			duplicates = append(duplicates, previous)
		}
		latest[key] = row
	}
	return duplicates
}
