package bridge

import (
	"context"
	"net/http"

	"github.com/viant/jsonrpc/transport/server/http/sse"
	"github.com/viant/jsonrpc/transport/server/http/streamable"
)

type httpServer struct {
	sseHandler       *sse.Handler
	streamingHandler *streamable.Handler
	corsConfig       *Cors
	addr             string
	sseURI           string
	sseMessageURI    string
	rpcURI           string
	peerURI          string
}

// HTTP creates the HTTP server exposing the caller endpoints (streamable and
// SSE JSON-RPC) and the peer websocket endpoint.
func (s *Service) HTTP(_ context.Context, addr string) *http.Server {
	if addr == "" {
		addr = s.addr
	}
	if addr == "" {
		// Default bind only to localhost to reduce DNS rebinding risk
		addr = "127.0.0.1:5000"
	}
	if s.sseURI == "" {
		s.sseURI = "/sse"
	}
	if s.sseMessageURI == "" {
		s.sseMessageURI = "/message"
	}
	if s.rpcURI == "" {
		s.rpcURI = "/rpc"
	}
	if s.peerURI == "" {
		s.peerURI = "/peer"
	}

	s.sseHandler = sse.New(s.NewHandler,
		sse.WithURI(s.sseURI),
		sse.WithMessageURI(s.sseMessageURI),
	)
	s.streamingHandler = streamable.New(s.NewHandler,
		streamable.WithURI(s.rpcURI),
	)

	var middlewareHandlers []Middleware
	if s.corsConfig != nil {
		corsMiddleware := &corsHandler{Cors: s.corsConfig}
		middlewareHandlers = append(middlewareHandlers, corsMiddleware.Middleware)
		// Validate Origin on all requests (uses configured CORS allowlist)
		middlewareHandlers = append(middlewareHandlers, originValidationMiddleware(s.corsConfig.AllowOrigins))
	}

	sseChain := ChainMiddlewareHandlers(s.sseHandler, middlewareHandlers...)
	streamChain := ChainMiddlewareHandlers(s.streamingHandler, middlewareHandlers...)

	mux := http.NewServeMux()
	mux.Handle(s.sseURI, sseChain)
	mux.Handle(s.sseMessageURI, sseChain)
	mux.Handle(s.rpcURI, streamChain)
	mux.Handle(s.peerURI, s.PeerHandler())

	return &http.Server{
		Addr:    addr,
		Handler: mux,
	}
}
