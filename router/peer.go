package router

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/viant/jsonrpc"

	"github.com/toolbridge/bridge/schema"
)

// Enqueue decodes one raw peer frame and queues it for Run. Malformed frames
// are answered with a parsing error and reported to the transport; frames of
// one session are delivered to the correlator in arrival order.
func (r *Router) Enqueue(sessionID string, data []byte) error {
	frame, err := schema.DecodeFrame(data)
	if err != nil {
		r.replyError(context.Background(), sessionID, nil, jsonrpc.NewParsingError(err.Error(), data))
		return err
	}
	r.inbound <- inboundFrame{sessionID: sessionID, frame: frame}
	return nil
}

// Run consumes the inbound peer queue until ctx is cancelled. A single
// consumer keeps per-session FIFO ordering without any per-frame locking.
func (r *Router) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case item := <-r.inbound:
			r.handlePeer(ctx, item.sessionID, item.frame)
		}
	}
}

func (r *Router) handlePeer(ctx context.Context, sessionID string, frame *schema.Frame) {
	switch {
	case frame.Response != nil:
		id, ok := jsonrpc.AsRequestIntId(frame.Response.Id)
		if !ok {
			r.logger.Warn("peer response with non-numeric id", "session", sessionID)
			return
		}
		r.correlator.Resolve(sessionID, uint64(id), frame.Response)
	case frame.Notification != nil:
		if frame.Notification.Method == schema.MethodNotificationDisconnect {
			r.registry.Unregister(sessionID)
			return
		}
		r.logger.Debug("ignoring peer notification", "session", sessionID, "method", frame.Notification.Method)
	case frame.Request != nil:
		switch frame.Kind {
		case schema.KindInitialize:
			r.handleInitialize(ctx, sessionID, frame.Request)
		case schema.KindPing:
			r.replyResult(ctx, sessionID, frame.Request, &schema.PingResult{})
		default:
			r.replyError(ctx, sessionID, frame.Request.Id,
				jsonrpc.NewMethodNotFound(fmt.Sprintf("method: %v not found", frame.Request.Method), frame.Request.Params))
		}
	}
}

// handleInitialize processes the peer announcement: the session becomes
// ready, and a fresh announcement invalidates any previously cached
// descriptors unless the announcement carries its own tool list.
func (r *Router) handleInitialize(ctx context.Context, sessionID string, request *jsonrpc.Request) {
	params := &schema.InitializeParams{}
	if err := json.Unmarshal(request.Params, params); err != nil {
		r.replyError(ctx, sessionID, request.Id, jsonrpc.NewInvalidParamsError(fmt.Sprintf("failed to parse: %v", err), request.Params))
		return
	}
	if !r.registry.MarkReady(sessionID) {
		return
	}
	if len(params.Tools) > 0 {
		r.cacheTools(sessionID, params.Tools)
	} else {
		r.invalidateTools(sessionID)
	}
	r.logger.Info("peer initialized", "session", sessionID, "peer", params.PeerInfo.Name, "tools", len(params.Tools))
	r.replyResult(ctx, sessionID, request, &schema.InitializeResult{
		ServerInfo:      r.info,
		ProtocolVersion: r.protocolVersion,
		SessionId:       sessionID,
	})
}

func (r *Router) replyResult(ctx context.Context, sessionID string, request *jsonrpc.Request, result interface{}) {
	response := &jsonrpc.Response{Jsonrpc: jsonrpc.Version}
	response.Id = request.Id
	var err error
	if response.Result, err = json.Marshal(result); err != nil {
		r.replyError(ctx, sessionID, request.Id, jsonrpc.NewInternalError(err.Error(), nil))
		return
	}
	r.send(ctx, sessionID, response)
}

func (r *Router) replyError(ctx context.Context, sessionID string, id interface{}, rpcError *jsonrpc.Error) {
	response := &jsonrpc.Response{Jsonrpc: jsonrpc.Version, Error: rpcError}
	response.Id = id
	r.send(ctx, sessionID, response)
}

func (r *Router) send(ctx context.Context, sessionID string, response *jsonrpc.Response) {
	data, err := json.Marshal(response)
	if err != nil {
		r.logger.Error("failed to marshal peer response", "session", sessionID, "error", err)
		return
	}
	if err := r.registry.Send(ctx, sessionID, data); err != nil {
		r.logger.Warn("failed to send to peer", "session", sessionID, "error", err)
	}
}
