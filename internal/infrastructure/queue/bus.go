package queue

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/leadbook/crm-system/internal/core/domain"
	"github.com/leadbook/crm-system/internal/pkg/metrics"
)

const busBuffer = 1024

// Deliverer pushes a stored notification to its online targets.
type Deliverer interface {
	Deliver(n *domain.Notification)
}

// NotificationBus carries already-persisted notifications to the dispatcher
// on a single goroutine.
type NotificationBus struct {
	ch  chan *domain.Notification
	log zerolog.Logger
}

func NewNotificationBus(log zerolog.Logger) *NotificationBus {
	return &NotificationBus{
		ch:  make(chan *domain.Notification, busBuffer),
		log: log,
	}
}

// Publish never blocks. When the buffer is full the notification stays in the
// store and is only reachable through the pull endpoint.
func (b *NotificationBus) Publish(n *domain.Notification) {
	select {
	case b.ch <- n:
	default:
		metrics.PushesTotal.WithLabelValues("dropped").Add(float64(len(n.Targets)))
		b.log.Warn().Str("notification_id", n.ID).Msg("notification bus full, live push dropped")
	}
}

// Run delivers published notifications until ctx is cancelled.
func (b *NotificationBus) Run(ctx context.Context, d Deliverer) {
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-b.ch:
			d.Deliver(n)
		}
	}
}
