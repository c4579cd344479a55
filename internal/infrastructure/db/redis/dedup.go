package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/leadbook/crm-system/internal/core/domain"
)

// Sent markers outlive the longest reminder offset the UI offers.
const reminderTTL = 60 * 24 * time.Hour

// ReminderDedup records sent reminders in Redis.
// Key format: reminder:<task_id>:<fires_at_unix>:<offset_value><offset_unit>
type ReminderDedup struct {
	client *redis.Client
}

// NewReminderDedup creates a ReminderDedup wrapping the given Redis client.
func NewReminderDedup(client *redis.Client) *ReminderDedup {
	return &ReminderDedup{client: client}
}

// IsSent reports whether this exact reminder was already mailed.
func (d *ReminderDedup) IsSent(ctx context.Context, taskID string, firesAt time.Time, spec domain.ReminderSpec) (bool, error) {
	n, err := d.client.Exists(ctx, d.key(taskID, firesAt, spec)).Result()
	if err != nil {
		return false, fmt.Errorf("reminder dedup check: %w", err)
	}
	return n > 0, nil
}

// MarkSent records that the reminder was mailed (expires after reminderTTL).
func (d *ReminderDedup) MarkSent(ctx context.Context, taskID string, firesAt time.Time, spec domain.ReminderSpec) error {
	return d.client.Set(ctx, d.key(taskID, firesAt, spec), "1", reminderTTL).Err()
}

func (d *ReminderDedup) key(taskID string, firesAt time.Time, spec domain.ReminderSpec) string {
	return fmt.Sprintf("reminder:%s:%d:%d%s", taskID, firesAt.Unix(), spec.OffsetValue, spec.OffsetUnit)
}
