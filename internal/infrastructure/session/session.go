package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/leadbook/crm-system/internal/core/domain"
)

// Session is one open live stream of a user. Notifications are queued in a
// bounded outbox drained by the transport.
type Session struct {
	ID          string
	UserID      string
	ConnectedAt time.Time

	outbox    chan *domain.Notification
	done      chan struct{}
	closeOnce sync.Once
}

func newSession(userID string, outboxSize int) *Session {
	return &Session{
		ID:          uuid.NewString(),
		UserID:      userID,
		ConnectedAt: time.Now(),
		outbox:      make(chan *domain.Notification, outboxSize),
		done:        make(chan struct{}),
	}
}

// Push queues n without blocking.
func (s *Session) Push(n *domain.Notification) error {
	select {
	case <-s.done:
		return domain.ErrSessionClosed
	default:
	}

	select {
	case s.outbox <- n:
		return nil
	default:
		return domain.ErrOutboxFull
	}
}

// Outbox is read by the transport writing to the client.
func (s *Session) Outbox() <-chan *domain.Notification { return s.outbox }

// Done is closed once the session is closed.
func (s *Session) Done() <-chan struct{} { return s.done }

// Close is idempotent.
func (s *Session) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}
