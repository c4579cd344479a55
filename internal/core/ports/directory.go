package ports

import (
	"context"
	"time"

	"github.com/leadbook/crm-system/internal/core/domain"
)

// Directory is the cached snapshot of all users used to resolve audiences
// without a database round trip per event.
type Directory interface {
	Refresh(ctx context.Context) error
	All() []domain.UserIdentity
	Owners() []domain.UserIdentity
	Get(userID string) (domain.UserIdentity, bool)
	// BuiltAt is the time of the last successful refresh.
	BuiltAt() time.Time
}

// SessionLookup finds the live session a notification should be pushed to.
type SessionLookup interface {
	Lookup(userID string) (Pusher, bool)
}

// Pusher is a live session handle. Push must not block.
type Pusher interface {
	Push(n *domain.Notification) error
}
