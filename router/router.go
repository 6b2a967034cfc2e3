package router

import (
	"log/slog"
	"sync"
	"time"

	"github.com/viant/jsonrpc"
	"github.com/viant/mcp-protocol/syncmap"

	"github.com/toolbridge/bridge/correlator"
	"github.com/toolbridge/bridge/registry"
	"github.com/toolbridge/bridge/schema"
)

const (
	// DefaultCallTimeout bounds tool invocations forwarded to the peer.
	DefaultCallTimeout = 30 * time.Second
	// DefaultHandshakeTimeout bounds handshake-type calls (tool listing).
	DefaultHandshakeTimeout = 10 * time.Second

	defaultQueueSize = 64
)

// Router classifies bridge messages and dispatches them: caller requests
// arrive through Serve, peer frames through Enqueue and are consumed in
// arrival order by Run.
type Router struct {
	registry   *registry.Registry
	correlator *correlator.Correlator

	info             schema.Implementation
	protocolVersion  string
	callTimeout      time.Duration
	handshakeTimeout time.Duration

	inbound        chan inboundFrame
	activeContexts *syncmap.Map[int, *activeContext]

	mux         sync.Mutex
	descriptors map[string]map[string]schema.Tool

	logger *slog.Logger
}

type inboundFrame struct {
	sessionID string
	frame     *schema.Frame
}

// Option configures a Router.
type Option func(r *Router)

// WithImplementation sets the bridge identity advertised during negotiation.
func WithImplementation(info schema.Implementation) Option {
	return func(r *Router) {
		r.info = info
	}
}

// WithCallTimeout sets the tool invocation timeout.
func WithCallTimeout(timeout time.Duration) Option {
	return func(r *Router) {
		r.callTimeout = timeout
	}
}

// WithHandshakeTimeout sets the timeout for handshake-type peer calls.
func WithHandshakeTimeout(timeout time.Duration) Option {
	return func(r *Router) {
		r.handshakeTimeout = timeout
	}
}

// WithQueueSize sets the inbound peer queue capacity; once full, transport
// read loops block, making backpressure explicit.
func WithQueueSize(size int) Option {
	return func(r *Router) {
		if size > 0 {
			r.inbound = make(chan inboundFrame, size)
		}
	}
}

// WithLogger sets the process logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

// New creates a router. The router registers an unregister hook so a
// session's descriptor cache dies with its session.
func New(aRegistry *registry.Registry, aCorrelator *correlator.Correlator, options ...Option) *Router {
	ret := &Router{
		registry:         aRegistry,
		correlator:       aCorrelator,
		info:             schema.Implementation{Name: "bridge", Version: "0.1"},
		protocolVersion:  schema.LatestProtocolVersion,
		callTimeout:      DefaultCallTimeout,
		handshakeTimeout: DefaultHandshakeTimeout,
		activeContexts:   syncmap.NewMap[int, *activeContext](),
		descriptors:      make(map[string]map[string]schema.Tool),
	}
	for _, option := range options {
		option(ret)
	}
	if ret.inbound == nil {
		ret.inbound = make(chan inboundFrame, defaultQueueSize)
	}
	if ret.logger == nil {
		ret.logger = slog.Default()
	}
	aRegistry.OnUnregister(func(sessionID string, _ *jsonrpc.Error) {
		ret.forgetSession(sessionID)
	})
	return ret
}

func (r *Router) forgetSession(sessionID string) {
	r.mux.Lock()
	delete(r.descriptors, sessionID)
	r.mux.Unlock()
}

func (r *Router) cachedTools(sessionID string) map[string]schema.Tool {
	r.mux.Lock()
	defer r.mux.Unlock()
	return r.descriptors[sessionID]
}

func (r *Router) cacheTools(sessionID string, tools []schema.Tool) {
	byName := make(map[string]schema.Tool, len(tools))
	for _, tool := range tools {
		byName[tool.Name] = tool
	}
	r.mux.Lock()
	r.descriptors[sessionID] = byName
	r.mux.Unlock()
}

func (r *Router) invalidateTools(sessionID string) {
	r.mux.Lock()
	delete(r.descriptors, sessionID)
	r.mux.Unlock()
}
