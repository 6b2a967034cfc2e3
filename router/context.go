package router

import (
	"context"
)

type activeContext struct {
	context.Context
	context.CancelFunc
}

// finishOperation cancels the operation's own context and clears its table
// entry. Different callers may reuse the same JSON-RPC id, so the entry is
// removed only when it still belongs to this operation.
func (r *Router) finishOperation(id int, active *activeContext) {
	if current, ok := r.activeContexts.Get(id); ok && current == active {
		r.activeContexts.Delete(id)
	}
	active.CancelFunc()
}

// cancelOperation aborts the in-flight operation with the given caller
// request id, typically on a cancellation notification.
func (r *Router) cancelOperation(id int) {
	if active, ok := r.activeContexts.Get(id); ok {
		active.CancelFunc()
		r.activeContexts.Delete(id)
	}
}
