package domain

import "errors"

var (
	ErrSessionClosed = errors.New("live session closed")
	ErrOutboxFull    = errors.New("live session outbox full")
)
