package peer

import (
	"context"
	"fmt"
	"sync"
)

// Pipe is an in-process peer connection, used to embed a tool runtime in the
// bridge process and by tests. Frames the bridge sends to the peer surface on
// Frames.
type Pipe struct {
	frames chan []byte
	closed chan struct{}
	once   sync.Once
}

// NewPipe creates a pipe with the given outbound buffer.
func NewPipe(buffer int) *Pipe {
	if buffer <= 0 {
		buffer = 16
	}
	return &Pipe{
		frames: make(chan []byte, buffer),
		closed: make(chan struct{}),
	}
}

// Send delivers one frame to the in-process peer.
func (p *Pipe) Send(ctx context.Context, frame []byte) error {
	select {
	case <-p.closed:
		return fmt.Errorf("pipe closed")
	default:
	}
	select {
	case p.frames <- frame:
		return nil
	case <-p.closed:
		return fmt.Errorf("pipe closed")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Frames exposes frames sent by the bridge; consume together with Done.
func (p *Pipe) Frames() <-chan []byte {
	return p.frames
}

// Done is closed when the pipe is closed.
func (p *Pipe) Done() <-chan struct{} {
	return p.closed
}

// Close shuts the pipe; pending and future sends fail.
func (p *Pipe) Close() error {
	p.once.Do(func() {
		close(p.closed)
	})
	return nil
}
