package correlator

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/viant/jsonrpc"

	"github.com/toolbridge/bridge/schema"
)

// Sender delivers a serialized frame to a session's peer. Satisfied by
// registry.Registry.
type Sender interface {
	Send(ctx context.Context, sessionID string, frame []byte) error
}

type outcome struct {
	response *jsonrpc.Response
	err      *jsonrpc.Error
}

type pending struct {
	id        uint64
	done      chan outcome
	submitted time.Time
	deadline  time.Time
}

func (p *pending) complete(out outcome) {
	// buffered; the entry is removed from the table before completion, so at
	// most one completer ever reaches here
	p.done <- out
}

// table holds one session's correlation state. Correlation ids are a
// per-session monotonic counter: collisions are impossible and submission
// order stays inspectable.
type table struct {
	next    uint64
	pending map[uint64]*pending
}

// Correlator maps forwarded requests to their asynchronous peer responses and
// guarantees every caller gets a result, an error, or a timeout. One mutex
// guards all sessions' tables: FailAll must observe a view consistent with
// concurrent Resolve calls.
type Correlator struct {
	mux      sync.Mutex
	sessions map[string]*table

	sender        Sender
	sweepInterval time.Duration
	logger        *slog.Logger

	stop     chan struct{}
	stopOnce sync.Once
}

// Option configures a Correlator.
type Option func(c *Correlator)

// WithSweepInterval sets how often expired pending requests are collected.
func WithSweepInterval(interval time.Duration) Option {
	return func(c *Correlator) {
		c.sweepInterval = interval
	}
}

// WithLogger sets the process logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Correlator) {
		c.logger = logger
	}
}

// New creates a correlator and starts its background sweep.
func New(sender Sender, options ...Option) *Correlator {
	ret := &Correlator{
		sessions: make(map[string]*table),
		sender:   sender,
		stop:     make(chan struct{}),
	}
	for _, option := range options {
		option(ret)
	}
	if ret.sweepInterval <= 0 {
		ret.sweepInterval = time.Second
	}
	if ret.logger == nil {
		ret.logger = slog.Default()
	}
	go ret.sweepLoop()
	return ret
}

// Submit forwards a request to the session's peer and blocks until the peer
// responds, the deadline elapses, the session goes away, or ctx is cancelled.
// A failed send resolves immediately with a peer unreachable error instead of
// waiting out the timeout.
func (c *Correlator) Submit(ctx context.Context, sessionID, method string, params interface{}, timeout time.Duration) (*jsonrpc.Response, *jsonrpc.Error) {
	request, err := jsonrpc.NewRequest(method, params)
	if err != nil {
		return nil, jsonrpc.NewInvalidRequest(err.Error(), nil)
	}
	entry := c.register(sessionID, request, timeout)
	data, err := json.Marshal(request)
	if err != nil {
		c.remove(sessionID, entry.id)
		return nil, jsonrpc.NewInternalError(err.Error(), nil)
	}
	if err := c.sender.Send(ctx, sessionID, data); err != nil {
		c.remove(sessionID, entry.id)
		return nil, schema.NewPeerUnreachable(err.Error())
	}
	select {
	case out := <-entry.done:
		return out.response, out.err
	case <-ctx.Done():
		// cancellation removes the entry and sends nothing to the peer; a
		// late reply becomes a discarded race in Resolve
		c.remove(sessionID, entry.id)
		return nil, jsonrpc.NewInternalError(ctx.Err().Error(), nil)
	}
}

// Resolve completes the pending request matching the correlation id. A
// response with no matching entry is a benign race (late, duplicate, or
// already timed out) and is dropped with a debug log.
func (c *Correlator) Resolve(sessionID string, correlationID uint64, response *jsonrpc.Response) {
	c.mux.Lock()
	tab := c.sessions[sessionID]
	var entry *pending
	if tab != nil {
		entry = tab.pending[correlationID]
		delete(tab.pending, correlationID)
	}
	c.mux.Unlock()
	if entry == nil {
		c.logger.Debug("discarding unmatched response", "session", sessionID, "id", correlationID)
		return
	}
	if response.Error != nil {
		entry.complete(outcome{err: response.Error})
		return
	}
	entry.complete(outcome{response: response})
}

// FailAll completes every pending request of the session with the given error
// and clears the session's table. Safe to call for sessions with no pending
// requests, and more than once.
func (c *Correlator) FailAll(sessionID string, reason *jsonrpc.Error) {
	c.mux.Lock()
	tab := c.sessions[sessionID]
	delete(c.sessions, sessionID)
	c.mux.Unlock()
	if tab == nil {
		return
	}
	for _, entry := range tab.pending {
		entry.complete(outcome{err: reason})
	}
}

// Outstanding returns the number of in-flight requests for a session.
func (c *Correlator) Outstanding(sessionID string) int {
	c.mux.Lock()
	defer c.mux.Unlock()
	tab := c.sessions[sessionID]
	if tab == nil {
		return 0
	}
	return len(tab.pending)
}

// Close stops the background sweep. In-flight requests are not affected.
func (c *Correlator) Close() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}

func (c *Correlator) register(sessionID string, request *jsonrpc.Request, timeout time.Duration) *pending {
	now := time.Now()
	c.mux.Lock()
	defer c.mux.Unlock()
	tab := c.sessions[sessionID]
	if tab == nil {
		tab = &table{pending: make(map[uint64]*pending)}
		c.sessions[sessionID] = tab
	}
	tab.next++
	entry := &pending{
		id:        tab.next,
		done:      make(chan outcome, 1),
		submitted: now,
		deadline:  now.Add(timeout),
	}
	request.Id = entry.id
	tab.pending[entry.id] = entry
	return entry
}

func (c *Correlator) remove(sessionID string, correlationID uint64) {
	c.mux.Lock()
	defer c.mux.Unlock()
	if tab := c.sessions[sessionID]; tab != nil {
		delete(tab.pending, correlationID)
	}
}

func (c *Correlator) sweepLoop() {
	ticker := time.NewTicker(c.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case now := <-ticker.C:
			c.sweep(now)
		}
	}
}

// sweep is the sole timeout enforcement point: expired entries are collected
// under the lock and completed outside it.
func (c *Correlator) sweep(now time.Time) {
	var expired []*pending
	c.mux.Lock()
	for sessionID, tab := range c.sessions {
		for id, entry := range tab.pending {
			if now.After(entry.deadline) {
				delete(tab.pending, id)
				expired = append(expired, entry)
				c.logger.Warn("request timed out", "session", sessionID, "id", id, "waited", now.Sub(entry.submitted))
			}
		}
	}
	c.mux.Unlock()
	for _, entry := range expired {
		entry.complete(outcome{err: schema.NewRequestTimeout("no response from peer before deadline")})
	}
}
