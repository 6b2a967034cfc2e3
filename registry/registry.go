package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/viant/jsonrpc"

	"github.com/toolbridge/bridge/schema"
)

// Conn is the transport-facing handle for one peer connection. The registry
// serializes Send calls; implementations only need to deliver one frame at a
// time. Close must be safe to call more than once.
type Conn interface {
	Send(ctx context.Context, frame []byte) error
	Close() error
}

// UnregisterHook runs synchronously inside Unregister, before the session
// record is gone. The correlator registers one to fail the session's in-flight
// requests; the router registers one to drop its descriptor cache.
type UnregisterHook func(sessionID string, reason *jsonrpc.Error)

// Registry is the single source of truth for the connected peer. The
// reference policy is single-peer: a new connection replaces the previous one
// and the replaced session's pending requests are failed out.
type Registry struct {
	mux     sync.Mutex
	current *Session
	hooks   []UnregisterHook
	logger  *slog.Logger
}

// Option configures a Registry.
type Option func(r *Registry)

// WithLogger sets the process logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// New creates a registry.
func New(options ...Option) *Registry {
	ret := &Registry{}
	for _, option := range options {
		option(ret)
	}
	if ret.logger == nil {
		ret.logger = slog.Default()
	}
	return ret
}

// OnUnregister appends a disconnect hook. Hooks run in registration order.
func (r *Registry) OnUnregister(hook UnregisterHook) {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.hooks = append(r.hooks, hook)
}

// Register accepts a new peer connection and creates a session in non-ready
// state. An existing session is replaced: its conn is closed and its pending
// requests fail with a replacement error.
func (r *Registry) Register(conn Conn) *Session {
	session := &Session{
		id:      uuid.New().String(),
		conn:    conn,
		created: time.Now(),
	}
	r.mux.Lock()
	replaced := r.current
	r.current = session
	r.mux.Unlock()
	if replaced != nil {
		r.logger.Info("peer replaced", "old", replaced.id, "new", session.id)
		r.terminate(replaced, schema.NewPeerUnreachable("peer replaced by a new connection"))
	}
	r.logger.Info("peer registered", "session", session.id)
	return session
}

// MarkReady transitions a session to ready. Unknown session ids are logged
// and ignored; the peer may have disconnected in the meantime.
func (r *Registry) MarkReady(sessionID string) bool {
	session := r.Lookup(sessionID)
	if session == nil {
		r.logger.Warn("markReady for unknown session", "session", sessionID)
		return false
	}
	session.ready.Store(true)
	return true
}

// Active returns the current ready session, or nil. Never blocks.
func (r *Registry) Active() *Session {
	r.mux.Lock()
	session := r.current
	r.mux.Unlock()
	if session == nil || !session.Ready() {
		return nil
	}
	return session
}

// Lookup returns the session with the given id, ready or not.
func (r *Registry) Lookup(sessionID string) *Session {
	r.mux.Lock()
	defer r.mux.Unlock()
	if r.current != nil && r.current.id == sessionID {
		return r.current
	}
	return nil
}

// Send delivers one frame to the session's peer. Concurrent sends to the same
// session are serialized on the session, not on the registry table, so table
// operations never wait on peer I/O.
func (r *Registry) Send(ctx context.Context, sessionID string, frame []byte) error {
	session := r.Lookup(sessionID)
	if session == nil {
		return fmt.Errorf("no session: %v", sessionID)
	}
	session.sendMux.Lock()
	defer session.sendMux.Unlock()
	if err := session.conn.Send(ctx, frame); err != nil {
		return fmt.Errorf("send to peer failed: %w", err)
	}
	return nil
}

// Unregister removes the session and fans the disconnect out to all hooks.
// Calling it for an unknown or already removed session is a no-op.
func (r *Registry) Unregister(sessionID string) {
	r.mux.Lock()
	session := r.current
	if session == nil || session.id != sessionID {
		r.mux.Unlock()
		return
	}
	r.current = nil
	r.mux.Unlock()
	r.logger.Info("peer unregistered", "session", sessionID)
	r.terminate(session, schema.NewPeerUnreachable("peer disconnected"))
}

func (r *Registry) terminate(session *Session, reason *jsonrpc.Error) {
	session.ready.Store(false)
	_ = session.conn.Close()
	r.mux.Lock()
	hooks := make([]UnregisterHook, len(r.hooks))
	copy(hooks, r.hooks)
	r.mux.Unlock()
	for _, hook := range hooks {
		hook(session.id, reason)
	}
}
