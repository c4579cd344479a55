package ports

import (
	"context"
	"time"

	"github.com/leadbook/crm-system/internal/core/domain"
)

// LiveEventInput is a validated client event together with its authenticated actor.
type LiveEventInput struct {
	Actor      domain.UserIdentity
	Event      domain.Event
	ReceivedAt time.Time
}

// NotificationPublisher hands inserted notifications to the dispatcher.
type NotificationPublisher interface {
	Publish(n *domain.Notification)
}

// NotificationService turns live events into persisted, dispatched notifications
// and serves the read-state operations.
type NotificationService interface {
	Handle(ctx context.Context, in LiveEventInput) error
	MarkRead(ctx context.Context, notificationID, userID string) (bool, error)
	List(ctx context.Context, filter ListNotificationsFilter) ([]domain.Notification, error)
}
