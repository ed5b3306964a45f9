package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// ResetTokenPurger clears password reset tokens that have expired.
type ResetTokenPurger interface {
	PurgeExpiredResetTokens(ctx context.Context) (int64, error)
}

// PurgeResetTokensTask clears expired reset tokens so that stale hashes do
// not linger on user rows.
type PurgeResetTokensTask struct{}

// Config returns the queue configuration for reset token purges.
func (t PurgeResetTokensTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "purge_reset_tokens",
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     time.Minute,
		Retention:   retention(),
	}
}

// PurgeResetTokensProcessor creates a processor function for PurgeResetTokensTask.
func PurgeResetTokensProcessor(purger ResetTokenPurger) backlite.QueueProcessor[PurgeResetTokensTask] {
	return func(ctx context.Context, task PurgeResetTokensTask) error {
		if purger == nil {
			return fmt.Errorf("reset token purger not configured")
		}

		purged, err := purger.PurgeExpiredResetTokens(ctx)
		if err != nil {
			return fmt.Errorf("purge reset tokens: %w", err)
		}

		if purged > 0 {
			log.Printf("[TASK] Purged %d expired password reset tokens", purged)
		}
		return nil
	}
}

// NewPurgeResetTokensQueue creates a backlite queue for reset token purges.
func NewPurgeResetTokensQueue(purger ResetTokenPurger) backlite.Queue {
	return backlite.NewQueue(PurgeResetTokensProcessor(purger))
}
