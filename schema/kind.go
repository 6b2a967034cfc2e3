package schema

// Kind classifies a bridge message. Classification happens once, at parse
// time; every dispatch site switches over the resulting Kind rather than the
// raw method string.
type Kind int

const (
	KindUnknown Kind = iota
	// KindContext is the capability negotiation exchange; answerable in any
	// session state.
	KindContext
	// KindInitialize is the peer announcement that moves a session to ready.
	KindInitialize
	// KindListTools asks for the operations the peer exposes.
	KindListTools
	// KindCallTool invokes a named operation on the peer.
	KindCallTool
	// KindResponse is a peer reply to a previously forwarded request.
	KindResponse
	// KindPing is a liveness probe; answerable in any session state.
	KindPing
)

// KindOf maps a method string to its Kind. Unrecognized methods map to
// KindUnknown; the caller answers those with a method-not-found error.
func KindOf(method string) Kind {
	switch method {
	case MethodContext:
		return KindContext
	case MethodInitialize:
		return KindInitialize
	case MethodToolsList:
		return KindListTools
	case MethodToolsCall:
		return KindCallTool
	case MethodPing:
		return KindPing
	}
	return KindUnknown
}

func (k Kind) String() string {
	switch k {
	case KindContext:
		return "context"
	case KindInitialize:
		return "initialize"
	case KindListTools:
		return "listTools"
	case KindCallTool:
		return "callTool"
	case KindResponse:
		return "response"
	case KindPing:
		return "ping"
	}
	return "unknown"
}
