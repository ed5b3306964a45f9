package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/cliffauth/internal/entities"
	"github.com/mrlokans/cliffauth/internal/mailer"
)

// UserFinder loads users by ID.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*entities.User, error)
}

// PasswordChangedTask mails a notice after a password reset. It carries
// only the user ID; the address is looked up when the task runs.
type PasswordChangedTask struct {
	UserID    string    `json:"user_id"`
	ChangedAt time.Time `json:"changed_at"`
}

// Config returns the queue configuration for password changed notices.
func (t PasswordChangedTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "password_changed_notice",
		MaxAttempts: 5,
		Backoff:     2 * time.Minute,
		Timeout:     30 * time.Second,
		Retention:   retention(),
	}
}

// PasswordChangedProcessor creates a processor function for PasswordChangedTask.
func PasswordChangedProcessor(users UserFinder, sender mailer.Sender) backlite.QueueProcessor[PasswordChangedTask] {
	return func(ctx context.Context, task PasswordChangedTask) error {
		if users == nil || sender == nil {
			return fmt.Errorf("password changed notice not configured")
		}

		user, err := users.FindByID(ctx, task.UserID)
		if err != nil {
			return fmt.Errorf("load user %s: %w", task.UserID, err)
		}

		if err := sender.Send(ctx, mailer.PasswordChanged(user.Email, user.Name, task.ChangedAt)); err != nil {
			return fmt.Errorf("send password changed notice: %w", err)
		}
		return nil
	}
}

// NewPasswordChangedQueue creates a backlite queue for password changed notices.
func NewPasswordChangedQueue(users UserFinder, sender mailer.Sender) backlite.Queue {
	return backlite.NewQueue(PasswordChangedProcessor(users, sender))
}

// Enqueuer saves tasks to the queue.
type Enqueuer interface {
	Enqueue(task backlite.Task) (string, error)
}

// Notifier queues account notices for background delivery.
type Notifier struct {
	queue Enqueuer
	now   func() time.Time
}

// NewNotifier creates a notifier that enqueues through queue.
func NewNotifier(queue Enqueuer) *Notifier {
	return &Notifier{queue: queue, now: time.Now}
}

// PasswordChanged queues the password changed notice for user.
func (n *Notifier) PasswordChanged(ctx context.Context, user *entities.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := n.queue.Enqueue(PasswordChangedTask{UserID: user.ID, ChangedAt: n.now().UTC()})
	return err
}
