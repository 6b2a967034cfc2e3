package registry

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/jsonrpc"
)

type mockConn struct {
	mux     sync.Mutex
	frames  [][]byte
	sendErr error
	closed  int
}

func (m *mockConn) Send(ctx context.Context, frame []byte) error {
	m.mux.Lock()
	defer m.mux.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.frames = append(m.frames, frame)
	return nil
}

func (m *mockConn) Close() error {
	m.mux.Lock()
	defer m.mux.Unlock()
	m.closed++
	return nil
}

func (m *mockConn) closeCount() int {
	m.mux.Lock()
	defer m.mux.Unlock()
	return m.closed
}

func TestRegistry_Lifecycle(t *testing.T) {
	registry := New()
	conn := &mockConn{}

	session := registry.Register(conn)
	require.NotNil(t, session)
	assert.NotEmpty(t, session.ID())
	assert.False(t, session.Ready())
	assert.Nil(t, registry.Active(), "session is not active before the peer announces itself")

	assert.True(t, registry.MarkReady(session.ID()))
	active := registry.Active()
	require.NotNil(t, active)
	assert.Equal(t, session.ID(), active.ID())

	registry.Unregister(session.ID())
	assert.Nil(t, registry.Active())
	assert.Nil(t, registry.Lookup(session.ID()))
	assert.Equal(t, 1, conn.closeCount())
}

func TestRegistry_MarkReadyUnknownSession(t *testing.T) {
	registry := New()
	assert.False(t, registry.MarkReady("no-such-session"))
}

func TestRegistry_ReplacePolicy(t *testing.T) {
	registry := New()
	var failed []string
	registry.OnUnregister(func(sessionID string, reason *jsonrpc.Error) {
		failed = append(failed, sessionID)
	})

	first := registry.Register(&mockConn{})
	registry.MarkReady(first.ID())
	firstConn := first.conn.(*mockConn)

	second := registry.Register(&mockConn{})
	assert.Equal(t, []string{first.ID()}, failed, "replacement fails the old session out")
	assert.Equal(t, 1, firstConn.closeCount())
	assert.Nil(t, registry.Lookup(first.ID()))
	require.NotNil(t, registry.Lookup(second.ID()))
	assert.Nil(t, registry.Active(), "replacement starts non-ready")
}

func TestRegistry_Send(t *testing.T) {
	registry := New()
	conn := &mockConn{}
	session := registry.Register(conn)

	err := registry.Send(context.Background(), session.ID(), []byte(`{"id":1}`))
	require.NoError(t, err)
	assert.Len(t, conn.frames, 1)

	assert.Error(t, registry.Send(context.Background(), "unknown", []byte(`{}`)))

	conn.sendErr = fmt.Errorf("broken pipe")
	assert.Error(t, registry.Send(context.Background(), session.ID(), []byte(`{}`)))
}

func TestRegistry_UnregisterIdempotent(t *testing.T) {
	registry := New()
	calls := 0
	registry.OnUnregister(func(sessionID string, reason *jsonrpc.Error) {
		calls++
		assert.NotNil(t, reason)
	})
	session := registry.Register(&mockConn{})
	registry.Unregister(session.ID())
	registry.Unregister(session.ID())
	assert.Equal(t, 1, calls)
}
