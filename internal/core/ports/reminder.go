package ports

import (
	"context"
	"time"

	"github.com/leadbook/crm-system/internal/core/domain"
)

// Mailer sends a rendered reminder. Implementations must honour ctx so a
// stalled transport never blocks the caller indefinitely.
type Mailer interface {
	Send(ctx context.Context, msg domain.ReminderMessage) error
}

// ReminderDedup guards against mailing the same reminder twice.
type ReminderDedup interface {
	IsSent(ctx context.Context, taskID string, firesAt time.Time, spec domain.ReminderSpec) (bool, error)
	MarkSent(ctx context.Context, taskID string, firesAt time.Time, spec domain.ReminderSpec) error
}

// TaskReminder is a task plus the reminders requested for it.
type TaskReminder struct {
	Task      domain.Task
	Reminders []domain.ReminderSpec
}

// ScheduleResult summarises one Schedule call.
type ScheduleResult struct {
	Scheduled int `json:"scheduled"`
	Skipped   int `json:"skipped"`
	Cancelled int `json:"cancelled"`
}

// JobView is a read-only snapshot of a pending job.
type JobView struct {
	ID      string              `json:"id"`
	TaskID  string              `json:"taskId"`
	FiresAt time.Time           `json:"firesAt"`
	State   domain.JobState     `json:"state"`
	Spec    domain.ReminderSpec `json:"spec"`
}

// ReminderScheduler registers wall-clock reminder jobs.
type ReminderScheduler interface {
	Schedule(ctx context.Context, in TaskReminder) ScheduleResult
	Cancel(taskID string) int
	Pending(taskID string) []JobView
}
