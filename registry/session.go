package registry

import (
	"sync"
	"sync/atomic"
	"time"
)

// Session represents one connected peer for the duration of its connection.
// The Conn is owned exclusively by the Registry; all writes go through
// Registry.Send.
type Session struct {
	id      string
	conn    Conn
	ready   atomic.Bool
	created time.Time
	sendMux sync.Mutex
}

// ID returns the unique connection identifier.
func (s *Session) ID() string {
	return s.id
}

// Ready reports whether the peer has announced itself.
func (s *Session) Ready() bool {
	return s.ready.Load()
}

// Created returns the connection timestamp.
func (s *Session) Created() time.Time {
	return s.created
}
