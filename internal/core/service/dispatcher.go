package service

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/leadbook/crm-system/internal/core/domain"
	"github.com/leadbook/crm-system/internal/core/ports"
	"github.com/leadbook/crm-system/internal/pkg/metrics"
)

// Dispatcher pushes persisted notifications to the targets that are online.
// Offline targets get nothing; the stored record is their delivery.
type Dispatcher struct {
	sessions ports.SessionLookup
	log      zerolog.Logger
}

func NewDispatcher(sessions ports.SessionLookup, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{sessions: sessions, log: log}
}

// Deliver makes one push attempt per online target. Failed pushes are logged
// and dropped.
func (d *Dispatcher) Deliver(n *domain.Notification) {
	var delivered int
	for _, userID := range n.TargetIDs() {
		session, ok := d.sessions.Lookup(userID)
		if !ok {
			metrics.PushesTotal.WithLabelValues("offline").Inc()
			continue
		}
		if err := session.Push(n); err != nil {
			metrics.PushesTotal.WithLabelValues("failed").Inc()
			ev := d.log.Warn()
			if !errors.Is(err, domain.ErrSessionClosed) && !errors.Is(err, domain.ErrOutboxFull) {
				ev = d.log.Error()
			}
			ev.Err(err).
				Str("notification_id", n.ID).
				Str("user_id", userID).
				Msg("push failed")
			continue
		}
		delivered++
		metrics.PushesTotal.WithLabelValues("delivered").Inc()
	}

	d.log.Debug().
		Str("notification_id", n.ID).
		Int("targets", len(n.Targets)).
		Int("delivered", delivered).
		Msg("notification dispatched")
}
