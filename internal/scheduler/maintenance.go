// Package scheduler runs periodic maintenance on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/cliffauth/internal/tasks"
)

// DefaultSchedule runs maintenance every 15 minutes.
const DefaultSchedule = "*/15 * * * *"

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateSchedule checks a five-field cron expression.
func ValidateSchedule(schedule string) error {
	_, err := parser.Parse(schedule)
	return err
}

// MaintenanceScheduler periodically queues the reset token purge and the
// audit event cleanup. The work itself runs on task queue workers.
type MaintenanceScheduler struct {
	queue              tasks.Enqueuer
	schedule           string
	auditRetentionDays int

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

// NewMaintenanceScheduler creates a new scheduler instance. An empty
// schedule falls back to DefaultSchedule.
func NewMaintenanceScheduler(queue tasks.Enqueuer, schedule string, auditRetentionDays int) *MaintenanceScheduler {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	return &MaintenanceScheduler{
		queue:              queue,
		schedule:           schedule,
		auditRetentionDays: auditRetentionDays,
		cron:               cron.New(cron.WithParser(parser)),
	}
}

// Start begins the scheduler. It stops by itself when ctx is cancelled.
func (s *MaintenanceScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if err := ValidateSchedule(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.schedule, err)
	}

	entryID, err := s.cron.AddFunc(s.schedule, func() {
		s.enqueue()
	})
	if err != nil {
		return fmt.Errorf("failed to schedule maintenance job: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Printf("Maintenance scheduler: started with schedule '%s'. Next run: %v",
		s.schedule, s.cron.Entry(entryID).Next)

	// Monitor for context cancellation
	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler, waiting for a running job.
func (s *MaintenanceScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.cron.Remove(s.entryID)
	s.isRunning = false
	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}

	log.Printf("Maintenance scheduler: stopped")
}

// RunNow queues the maintenance tasks immediately.
func (s *MaintenanceScheduler) RunNow() error {
	return s.enqueue()
}

// IsRunning returns whether the scheduler is active.
func (s *MaintenanceScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns when maintenance will next be queued.
func (s *MaintenanceScheduler) NextRun() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	next := s.cron.Entry(s.entryID).Next
	return &next
}

func (s *MaintenanceScheduler) enqueue() error {
	var firstErr error
	if _, err := s.queue.Enqueue(tasks.PurgeResetTokensTask{}); err != nil {
		log.Printf("Maintenance scheduler: failed to queue reset token purge: %v", err)
		firstErr = err
	}
	if _, err := s.queue.Enqueue(tasks.CleanupAuditEventsTask{RetentionDays: s.auditRetentionDays}); err != nil {
		log.Printf("Maintenance scheduler: failed to queue audit cleanup: %v", err)
		if firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
