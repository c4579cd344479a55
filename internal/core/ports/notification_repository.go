package ports

import (
	"context"

	"github.com/leadbook/crm-system/internal/core/domain"
)

// ListNotificationsFilter scopes the pull query offline clients use.
type ListNotificationsFilter struct {
	UserID     string
	UnreadOnly bool
	Limit      int // capped by the service
}

// NotificationRepository is the append-only notification log.
type NotificationRepository interface {
	// Insert persists n and returns the assigned ID.
	Insert(ctx context.Context, n *domain.Notification) (string, error)
	// MarkRead sets HasRead on userID's target only. It returns false, without
	// error, when no such target exists.
	MarkRead(ctx context.Context, notificationID, userID string) (bool, error)
	ListForUser(ctx context.Context, filter ListNotificationsFilter) ([]domain.Notification, error)
}
