package schema

const (
	MethodContext    = "tools/context"
	MethodInitialize = "tools/initialize"
	MethodToolsList  = "tools/list"
	MethodToolsCall  = "tools/call"
	MethodPing       = "ping"

	MethodNotificationCancel     = "notifications/cancelled"
	MethodNotificationDisconnect = "notifications/disconnect"
)

// LatestProtocolVersion is the bridge protocol revision advertised during
// capability negotiation.
const LatestProtocolVersion = "2025-06-01"
