package bridge

import (
	"log/slog"
	"time"

	"github.com/toolbridge/bridge/schema"
)

// Option is a function that configures the service.
type Option func(s *Service) error

// WithImplementation sets the bridge identity.
func WithImplementation(implementation schema.Implementation) Option {
	return func(s *Service) error {
		s.info = implementation
		return nil
	}
}

// WithCallTimeout sets the tool invocation timeout.
func WithCallTimeout(timeout time.Duration) Option {
	return func(s *Service) error {
		s.callTimeout = timeout
		return nil
	}
}

// WithHandshakeTimeout sets the timeout for handshake-type peer calls.
func WithHandshakeTimeout(timeout time.Duration) Option {
	return func(s *Service) error {
		s.handshakeTimeout = timeout
		return nil
	}
}

// WithSweepInterval sets the correlator deadline sweep interval.
func WithSweepInterval(interval time.Duration) Option {
	return func(s *Service) error {
		s.sweepInterval = interval
		return nil
	}
}

// WithLogger sets the process logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) error {
		s.logger = logger
		return nil
	}
}

// WithCORS adds a new CORS handler to the server.
func WithCORS(cors *Cors) Option {
	return func(s *Service) error {
		s.corsConfig = cors
		return nil
	}
}

// WithAddr sets the default HTTP listen address.
func WithAddr(addr string) Option {
	return func(s *Service) error {
		s.addr = addr
		return nil
	}
}

// WithRPCURI sets the streamable HTTP endpoint for callers.
func WithRPCURI(uri string) Option {
	return func(s *Service) error {
		s.rpcURI = uri
		return nil
	}
}

// WithSSEURI sets the SSE endpoint and its message URI for callers.
func WithSSEURI(sseURI, messageURI string) Option {
	return func(s *Service) error {
		s.sseURI = sseURI
		s.sseMessageURI = messageURI
		return nil
	}
}

// WithPeerURI sets the websocket endpoint peers connect to.
func WithPeerURI(uri string) Option {
	return func(s *Service) error {
		s.peerURI = uri
		return nil
	}
}
