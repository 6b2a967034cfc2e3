package bridge

import (
	"context"
	"log/slog"
	"time"

	"github.com/viant/jsonrpc"
	"github.com/viant/jsonrpc/transport"

	"github.com/toolbridge/bridge/correlator"
	"github.com/toolbridge/bridge/peer"
	"github.com/toolbridge/bridge/registry"
	"github.com/toolbridge/bridge/router"
	"github.com/toolbridge/bridge/schema"
)

// Service wires the session registry, request correlator and message router
// into one bridge instance. Construct it once at process start and hand it to
// the transports; there is no module-level state.
type Service struct {
	registry   *registry.Registry
	correlator *correlator.Correlator
	router     *router.Router

	info             schema.Implementation
	callTimeout      time.Duration
	handshakeTimeout time.Duration
	sweepInterval    time.Duration
	logger           *slog.Logger

	httpServer

	cancel context.CancelFunc
}

// New creates a Service.
func New(options ...Option) (*Service, error) {
	s := &Service{
		info:             schema.Implementation{Name: "toolbridge", Version: "0.1"},
		callTimeout:      router.DefaultCallTimeout,
		handshakeTimeout: router.DefaultHandshakeTimeout,
		sweepInterval:    time.Second,
	}
	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.registry = registry.New(registry.WithLogger(s.logger))
	s.correlator = correlator.New(s.registry,
		correlator.WithSweepInterval(s.sweepInterval),
		correlator.WithLogger(s.logger))
	// pending requests must fail before any other disconnect handling runs
	s.registry.OnUnregister(func(sessionID string, reason *jsonrpc.Error) {
		s.correlator.FailAll(sessionID, reason)
	})
	s.router = router.New(s.registry, s.correlator,
		router.WithImplementation(s.info),
		router.WithCallTimeout(s.callTimeout),
		router.WithHandshakeTimeout(s.handshakeTimeout),
		router.WithLogger(s.logger))
	return s, nil
}

// Start runs the peer message loop until ctx is cancelled or Close is called.
func (s *Service) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	go s.router.Run(runCtx)
}

// Close stops the peer loop and the correlator sweep.
func (s *Service) Close() {
	if s.cancel != nil {
		s.cancel()
	}
	s.correlator.Close()
}

// NewHandler exposes the router as the JSON-RPC handler consumed by the
// caller-facing transports.
func (s *Service) NewHandler(ctx context.Context, aTransport transport.Transport) transport.Handler {
	return s.router
}

// Registry returns the session registry, e.g. to register an in-process peer.
func (s *Service) Registry() *registry.Registry {
	return s.registry
}

// Router returns the message router.
func (s *Service) Router() *router.Router {
	return s.router
}

// Correlator returns the request correlator.
func (s *Service) Correlator() *correlator.Correlator {
	return s.correlator
}

// PeerHandler returns the websocket endpoint handler for peer connections.
func (s *Service) PeerHandler() *peer.Handler {
	return peer.NewHandler(s.registry, s.router, peer.WithHandlerLogger(s.logger))
}
