package peer

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/toolbridge/bridge/registry"
	"github.com/toolbridge/bridge/router"
)

// Socket adapts one websocket connection to registry.Conn. Writes are
// serialized; gorilla connections support at most one concurrent writer.
type Socket struct {
	conn *websocket.Conn
	mux  sync.Mutex
}

func (s *Socket) Send(ctx context.Context, frame []byte) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	if deadline, ok := ctx.Deadline(); ok {
		_ = s.conn.SetWriteDeadline(deadline)
	}
	return s.conn.WriteMessage(websocket.TextMessage, frame)
}

func (s *Socket) Close() error {
	return s.conn.Close()
}

// Handler upgrades HTTP requests into peer websocket connections, registers
// each with the session registry and pumps inbound frames into the router in
// arrival order.
type Handler struct {
	registry *registry.Registry
	router   *router.Router
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// HandlerOption configures a Handler.
type HandlerOption func(h *Handler)

// WithCheckOrigin overrides the websocket origin check.
func WithCheckOrigin(check func(r *http.Request) bool) HandlerOption {
	return func(h *Handler) {
		h.upgrader.CheckOrigin = check
	}
}

// WithHandlerLogger sets the process logger.
func WithHandlerLogger(logger *slog.Logger) HandlerOption {
	return func(h *Handler) {
		h.logger = logger
	}
}

// NewHandler creates the peer endpoint handler.
func NewHandler(aRegistry *registry.Registry, aRouter *router.Router, options ...HandlerOption) *Handler {
	ret := &Handler{
		registry: aRegistry,
		router:   aRouter,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
	for _, option := range options {
		option(ret)
	}
	if ret.logger == nil {
		ret.logger = slog.Default()
	}
	return ret
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("peer upgrade failed", "error", err)
		return
	}
	session := h.registry.Register(&Socket{conn: conn})
	go h.readLoop(session.ID(), conn)
}

func (h *Handler) readLoop(sessionID string, conn *websocket.Conn) {
	defer h.registry.Unregister(sessionID)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Warn("peer read failed", "session", sessionID, "error", err)
			}
			return
		}
		if err := h.router.Enqueue(sessionID, data); err != nil {
			h.logger.Warn("dropping malformed peer frame", "session", sessionID, "error", err)
		}
	}
}
