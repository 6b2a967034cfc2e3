package schema

import "github.com/viant/jsonrpc"

const (
	// SessionNotReady is returned when tools/list or tools/call arrives before
	// the peer announced itself.
	SessionNotReady = -32001
	// PeerUnreachable is returned when there is no peer connection, or a send
	// to the peer failed immediately.
	PeerUnreachable = -32002
	// RequestTimeout is returned when a forwarded request's deadline elapsed
	// with no peer response.
	RequestTimeout = -32003
)

// NewSessionNotReady creates a session not ready error
func NewSessionNotReady() *jsonrpc.Error {
	return jsonrpc.NewError(SessionNotReady, "session not ready", nil)
}

// NewPeerUnreachable creates a peer unreachable error
func NewPeerUnreachable(message string) *jsonrpc.Error {
	return jsonrpc.NewError(PeerUnreachable, message, nil)
}

// NewRequestTimeout creates a request timeout error
func NewRequestTimeout(message string) *jsonrpc.Error {
	return jsonrpc.NewError(RequestTimeout, message, nil)
}

func NewUnknownTool(toolName string) *jsonrpc.Error {
	return jsonrpc.NewError(jsonrpc.InvalidParams, "Unknown tool:"+toolName, nil)
}
