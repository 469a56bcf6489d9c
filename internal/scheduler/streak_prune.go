// Package scheduler owns the periodic jobs. The only job today is streak
// retention: on a cron schedule it fans out one queue task per user, so the
// deletes run through the task queue with retries instead of inline.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/openshelf/openshelf/internal/config"
	"github.com/openshelf/openshelf/internal/tasks"
)

// UserLister enumerates the users whose streaks need pruning.
type UserLister interface {
	ListIDs() ([]uint, error)
}

// StreakPruneScheduler periodically enqueues streak pruning tasks.
type StreakPruneScheduler struct {
	users      UserLister
	taskClient *tasks.Client
	config     config.Streaks

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

// NewStreakPruneScheduler creates a new scheduler instance.
func NewStreakPruneScheduler(users UserLister, taskClient *tasks.Client, cfg config.Streaks) *StreakPruneScheduler {
	return &StreakPruneScheduler{
		users:      users,
		taskClient: taskClient,
		config:     cfg,
		cron:       cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the scheduler if pruning is enabled.
func (s *StreakPruneScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if !s.config.PruneEnabled {
		log.Printf("Streak prune scheduler: disabled")
		return nil
	}

	entryID, err := s.cron.AddFunc(s.config.PruneSchedule, func() {
		s.runPrune()
	})
	if err != nil {
		return fmt.Errorf("invalid prune schedule '%s': %w", s.config.PruneSchedule, err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Printf("Streak prune scheduler: started with schedule '%s', retention %d days",
		s.config.PruneSchedule, s.config.RetentionDays)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler, waiting for a running job to finish.
func (s *StreakPruneScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	s.cancelFunc = nil

	log.Printf("Streak prune scheduler: stopped")
}

// RunNow triggers an immediate prune fan-out.
func (s *StreakPruneScheduler) RunNow() {
	go s.runPrune()
}

// IsRunning returns whether the scheduler is active.
func (s *StreakPruneScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRunTime returns when the next prune will occur.
func (s *StreakPruneScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

// runPrune enqueues one prune task per user.
func (s *StreakPruneScheduler) runPrune() {
	userIDs, err := s.users.ListIDs()
	if err != nil {
		log.Printf("Streak prune scheduler: failed to list users: %v", err)
		return
	}

	for _, userID := range userIDs {
		task := tasks.PruneStreaksTask{
			UserID:        userID,
			RetentionDays: s.config.RetentionDays,
		}
		if _, err := s.taskClient.Add(task).Save(); err != nil {
			log.Printf("Streak prune scheduler: failed to enqueue prune for user %d: %v", userID, err)
		}
	}

	log.Printf("Streak prune scheduler: enqueued prune tasks for %d users", len(userIDs))
}
