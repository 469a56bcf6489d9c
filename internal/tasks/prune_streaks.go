package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// StreakPruner deletes a user's streak rows older than the retention window.
type StreakPruner interface {
	PruneOldStreaks(userID uint, retentionDays int) (int64, error)
}

// PruneStreaksTask removes one user's streak rows that fell out of the
// retention window. The scheduler enqueues one task per user so a failure
// for one user never blocks the rest.
type PruneStreaksTask struct {
	UserID        uint `json:"user_id"`
	RetentionDays int  `json:"retention_days"`
}

// Config returns the queue configuration for streak pruning tasks.
func (t PruneStreaksTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "prune_streaks",
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// PruneStreaksProcessor creates a processor function for PruneStreaksTask.
func PruneStreaksProcessor(pruner StreakPruner) backlite.QueueProcessor[PruneStreaksTask] {
	return func(ctx context.Context, task PruneStreaksTask) error {
		if pruner == nil {
			return fmt.Errorf("streak pruner not configured")
		}

		deleted, err := pruner.PruneOldStreaks(task.UserID, task.RetentionDays)
		if err != nil {
			return fmt.Errorf("prune streaks for user %d: %w", task.UserID, err)
		}

		if deleted > 0 {
			log.Printf("[TASK] Pruned %d old streak rows for user %d", deleted, task.UserID)
		}
		return nil
	}
}

// NewPruneStreaksQueue creates a backlite queue for streak pruning tasks.
func NewPruneStreaksQueue(pruner StreakPruner) backlite.Queue {
	return backlite.NewQueue(PruneStreaksProcessor(pruner))
}
