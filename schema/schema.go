package schema

import "encoding/json"

// Implementation identifies one side of the bridge.
type Implementation struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// Tool describes one invokable operation exposed by the peer. The input
// schema is opaque to the bridge; it is cached and returned verbatim.
type Tool struct {
	Name        string          `json:"name"`
	Version     string          `json:"version,omitempty"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"inputSchema,omitempty"`
}

// ContextParams carries the caller's side of capability negotiation.
type ContextParams struct {
	ClientInfo      Implementation `json:"clientInfo,omitempty"`
	ProtocolVersion string         `json:"protocolVersion,omitempty"`
	Capabilities    map[string]any `json:"capabilities,omitempty"`
}

// ContextResult answers capability negotiation. PeerConnected reports whether
// a ready tool runtime is currently attached.
type ContextResult struct {
	ServerInfo      Implementation `json:"serverInfo"`
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    map[string]any `json:"capabilities"`
	PeerConnected   bool           `json:"peerConnected"`
}

// InitializeParams is the peer announcement. Tools, when present, seed the
// descriptor cache so the first tools/list does not round-trip to the peer.
type InitializeParams struct {
	PeerInfo        Implementation `json:"peerInfo"`
	ProtocolVersion string         `json:"protocolVersion,omitempty"`
	Tools           []Tool         `json:"tools,omitempty"`
}

// InitializeResult acknowledges a peer announcement.
type InitializeResult struct {
	ServerInfo      Implementation `json:"serverInfo"`
	ProtocolVersion string         `json:"protocolVersion"`
	SessionId       string         `json:"sessionId"`
}

type ListToolsParams struct{}

type ListToolsResult struct {
	Tools []Tool `json:"tools"`
}

// CallToolParams names the operation and carries opaque arguments; the bridge
// never interprets them.
type CallToolParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

type CallToolResult struct {
	Content json.RawMessage `json:"content,omitempty"`
	IsError bool            `json:"isError,omitempty"`
}

type PingParams struct{}

type PingResult struct{}

// CancelledNotificationParams identifies the caller request to cancel.
type CancelledNotificationParams struct {
	RequestId *uint64 `json:"requestId"`
	Reason    string  `json:"reason,omitempty"`
}

func NewImplementation(name, version string) *Implementation {
	return &Implementation{Name: name, Version: version}
}
