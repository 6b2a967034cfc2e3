package bridge

import (
	"context"

	"github.com/viant/jsonrpc/transport/server/stdio"
)

// Stdio returns a JSON-RPC server for callers speaking over standard
// input/output. Peers still attach through the HTTP endpoint or an in-process
// pipe.
func (s *Service) Stdio(ctx context.Context, options ...stdio.Option) *stdio.Server {
	return stdio.New(ctx, s.NewHandler, options...)
}
