package router

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/viant/jsonrpc"

	"github.com/toolbridge/bridge/schema"
)

// Serve handles incoming JSON-RPC requests from the caller side.
func (r *Router) Serve(parent context.Context, request *jsonrpc.Request, response *jsonrpc.Response) {
	// Check for valid JSONRPC version
	if jsonrpc.Version != request.Jsonrpc {
		response.Error = jsonrpc.NewInvalidRequest("invalid JSON-RPC version", nil)
		return
	}
	id, _ := jsonrpc.AsRequestIntId(request.Id)
	ctx, cancel := context.WithCancel(parent)
	active := &activeContext{Context: ctx, CancelFunc: cancel}
	r.activeContexts.Put(id, active)
	defer r.finishOperation(id, active)

	switch schema.KindOf(request.Method) {
	case schema.KindContext:
		result, err := r.Negotiate(ctx, request)
		r.setResponse(response, result, err)
	case schema.KindPing:
		result, err := r.Ping(ctx, request)
		r.setResponse(response, result, err)
	case schema.KindListTools:
		result, err := r.ListTools(ctx, request)
		r.setResponse(response, result, err)
	case schema.KindCallTool:
		result, err := r.CallTool(ctx, request)
		r.setResponse(response, result, err)
	case schema.KindInitialize:
		// the announcement belongs to the peer connection, not the caller surface
		response.Error = jsonrpc.NewInvalidRequest("tools/initialize originates from the peer", nil)
	default:
		response.Error = jsonrpc.NewMethodNotFound(fmt.Sprintf("method: %v not found", request.Method), request.Params)
	}
}

// OnNotification handles incoming JSON-RPC notifications from the caller side.
func (r *Router) OnNotification(ctx context.Context, notification *jsonrpc.Notification) {
	switch notification.Method {
	case schema.MethodNotificationCancel:
		params := schema.CancelledNotificationParams{}
		if err := json.Unmarshal(notification.Params, &params); err != nil || params.RequestId == nil {
			r.logger.Warn("malformed cancel notification", "error", err)
			return
		}
		r.cancelOperation(int(*params.RequestId))
	default:
		r.logger.Debug("ignoring notification", "method", notification.Method)
	}
}

// Negotiate handles the tools/context method; answerable in any session state.
func (r *Router) Negotiate(ctx context.Context, request *jsonrpc.Request) (*schema.ContextResult, *jsonrpc.Error) {
	params := &schema.ContextParams{}
	if len(request.Params) > 0 {
		if err := json.Unmarshal(request.Params, params); err != nil {
			return nil, jsonrpc.NewInvalidParamsError(fmt.Sprintf("failed to parse: %v", err), request.Params)
		}
	}
	return &schema.ContextResult{
		ServerInfo:      r.info,
		ProtocolVersion: r.protocolVersion,
		Capabilities:    map[string]any{"tools": map[string]any{}},
		PeerConnected:   r.registry.Active() != nil,
	}, nil
}

// Ping handles the ping method
func (r *Router) Ping(ctx context.Context, request *jsonrpc.Request) (*schema.PingResult, *jsonrpc.Error) {
	return &schema.PingResult{}, nil
}

// ListTools handles the tools/list method. Descriptors are served from the
// session cache; the peer is contacted only when the cache is cold.
func (r *Router) ListTools(ctx context.Context, request *jsonrpc.Request) (*schema.ListToolsResult, *jsonrpc.Error) {
	session := r.registry.Active()
	if session == nil {
		return nil, schema.NewSessionNotReady()
	}
	tools, rpcErr := r.ensureTools(ctx, session.ID())
	if rpcErr != nil {
		return nil, rpcErr
	}
	result := &schema.ListToolsResult{Tools: make([]schema.Tool, 0, len(tools))}
	for _, tool := range tools {
		result.Tools = append(result.Tools, tool)
	}
	sort.Slice(result.Tools, func(i, j int) bool {
		return result.Tools[i].Name < result.Tools[j].Name
	})
	return result, nil
}

// CallTool handles the tools/call method. Unknown tool names fail fast
// without consuming a correlation id or contacting the peer.
func (r *Router) CallTool(ctx context.Context, request *jsonrpc.Request) (*schema.CallToolResult, *jsonrpc.Error) {
	params := &schema.CallToolParams{}
	if err := json.Unmarshal(request.Params, params); err != nil {
		return nil, jsonrpc.NewInvalidParamsError(fmt.Sprintf("failed to parse: %v", err), request.Params)
	}
	if params.Name == "" {
		return nil, jsonrpc.NewInvalidParamsError("tool name is required", request.Params)
	}
	session := r.registry.Active()
	if session == nil {
		return nil, schema.NewSessionNotReady()
	}
	tools, rpcErr := r.ensureTools(ctx, session.ID())
	if rpcErr != nil {
		return nil, rpcErr
	}
	if _, ok := tools[params.Name]; !ok {
		return nil, schema.NewUnknownTool(params.Name)
	}
	response, rpcErr := r.correlator.Submit(ctx, session.ID(), schema.MethodToolsCall, params, r.callTimeout)
	if rpcErr != nil {
		return nil, rpcErr
	}
	result := &schema.CallToolResult{}
	if err := json.Unmarshal(response.Result, result); err != nil {
		return nil, jsonrpc.NewInternalError(fmt.Sprintf("failed to unmarshal CallToolResult: %v", err), nil)
	}
	return result, nil
}

// ensureTools returns the session's descriptor cache, fetching it from the
// peer on first use.
func (r *Router) ensureTools(ctx context.Context, sessionID string) (map[string]schema.Tool, *jsonrpc.Error) {
	if cached := r.cachedTools(sessionID); cached != nil {
		return cached, nil
	}
	response, rpcErr := r.correlator.Submit(ctx, sessionID, schema.MethodToolsList, &schema.ListToolsParams{}, r.handshakeTimeout)
	if rpcErr != nil {
		return nil, rpcErr
	}
	result := &schema.ListToolsResult{}
	if err := json.Unmarshal(response.Result, result); err != nil {
		return nil, jsonrpc.NewInternalError(fmt.Sprintf("failed to unmarshal ListToolsResult: %v", err), nil)
	}
	r.cacheTools(sessionID, result.Tools)
	return r.cachedTools(sessionID), nil
}

func (r *Router) setResponse(response *jsonrpc.Response, result interface{}, rpcError *jsonrpc.Error) {
	if rpcError != nil {
		response.Error = rpcError
		return
	}
	var err error
	response.Result, err = json.Marshal(result)
	if err != nil {
		response.Error = jsonrpc.NewInternalError(err.Error(), []byte{})
	}
}
