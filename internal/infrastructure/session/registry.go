// Package session keeps the process-local map of users to their open live
// sessions.
package session

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/leadbook/crm-system/internal/core/ports"
	"github.com/leadbook/crm-system/internal/pkg/metrics"
)

const defaultOutboxSize = 64

// Registry maps a user ID to the set of its connected sessions. A user may be
// connected from several devices; pushes go to the most recent one.
type Registry struct {
	mu         sync.RWMutex
	sessions   map[string][]*Session // ordered oldest to newest
	outboxSize int
	log        zerolog.Logger
}

// NewRegistry creates an empty Registry. outboxSize <= 0 uses the default.
func NewRegistry(outboxSize int, log zerolog.Logger) *Registry {
	if outboxSize <= 0 {
		outboxSize = defaultOutboxSize
	}
	return &Registry{
		sessions:   make(map[string][]*Session),
		outboxSize: outboxSize,
		log:        log,
	}
}

// Connect opens a new session for userID and makes it the push target.
func (r *Registry) Connect(userID string) *Session {
	s := newSession(userID, r.outboxSize)

	r.mu.Lock()
	r.sessions[userID] = append(r.sessions[userID], s)
	n := len(r.sessions[userID])
	r.mu.Unlock()

	metrics.LiveSessions.Inc()
	r.log.Info().Str("user_id", userID).Str("session_id", s.ID).Int("sessions", n).Msg("live session connected")
	return s
}

// Disconnect closes and removes only the named session. A late disconnect
// from an old device leaves newer sessions of the same user untouched.
func (r *Registry) Disconnect(userID, sessionID string) {
	r.mu.Lock()
	list := r.sessions[userID]
	var removed *Session
	for i, s := range list {
		if s.ID == sessionID {
			removed = s
			list = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(r.sessions, userID)
	} else {
		r.sessions[userID] = list
	}
	r.mu.Unlock()

	if removed == nil {
		return
	}
	removed.Close()
	metrics.LiveSessions.Dec()
	r.log.Info().Str("user_id", userID).Str("session_id", sessionID).Msg("live session disconnected")
}

// Lookup returns the newest session of userID.
func (r *Registry) Lookup(userID string) (ports.Pusher, bool) {
	s, ok := r.Session(userID)
	if !ok {
		return nil, false
	}
	return s, true
}

// Session is Lookup with the concrete type.
func (r *Registry) Session(userID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.sessions[userID]
	if len(list) == 0 {
		return nil, false
	}
	return list[len(list)-1], true
}

// Online reports the number of users with at least one session.
func (r *Registry) Online() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Close closes every session and empties the registry.
func (r *Registry) Close() {
	r.mu.Lock()
	all := r.sessions
	r.sessions = make(map[string][]*Session)
	r.mu.Unlock()

	for _, list := range all {
		for _, s := range list {
			s.Close()
			metrics.LiveSessions.Dec()
		}
	}
}
