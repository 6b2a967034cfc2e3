package correlator

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/jsonrpc"
	"pgregory.net/rapid"

	"github.com/toolbridge/bridge/schema"
)

type sentFrame struct {
	Id     uint64          `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

type mockSender struct {
	mux    sync.Mutex
	frames []sentFrame
	err    error
}

func (m *mockSender) Send(ctx context.Context, sessionID string, frame []byte) error {
	m.mux.Lock()
	defer m.mux.Unlock()
	if m.err != nil {
		return m.err
	}
	sent := sentFrame{}
	if err := json.Unmarshal(frame, &sent); err != nil {
		return err
	}
	m.frames = append(m.frames, sent)
	return nil
}

func (m *mockSender) sent() []sentFrame {
	m.mux.Lock()
	defer m.mux.Unlock()
	ret := make([]sentFrame, len(m.frames))
	copy(ret, m.frames)
	return ret
}

type submitOutcome struct {
	response *jsonrpc.Response
	err      *jsonrpc.Error
}

func submitAsync(c *Correlator, sessionID string, timeout time.Duration) chan submitOutcome {
	done := make(chan submitOutcome, 1)
	go func() {
		response, err := c.Submit(context.Background(), sessionID, schema.MethodToolsCall, &schema.CallToolParams{Name: "tool_a"}, timeout)
		done <- submitOutcome{response: response, err: err}
	}()
	return done
}

func TestCorrelator_SubmitResolve(t *testing.T) {
	sender := &mockSender{}
	correlator := New(sender, WithSweepInterval(20*time.Millisecond))
	defer correlator.Close()

	done := submitAsync(correlator, "s1", time.Second)
	require.Eventually(t, func() bool {
		return correlator.Outstanding("s1") == 1
	}, time.Second, 5*time.Millisecond)

	frames := sender.sent()
	require.Len(t, frames, 1)
	assert.Equal(t, schema.MethodToolsCall, frames[0].Method)

	correlator.Resolve("s1", frames[0].Id, &jsonrpc.Response{Result: json.RawMessage(`{"content":"ok"}`)})
	out := <-done
	require.Nil(t, out.err)
	assert.JSONEq(t, `{"content":"ok"}`, string(out.response.Result))
	assert.Equal(t, 0, correlator.Outstanding("s1"))
}

func TestCorrelator_PeerError(t *testing.T) {
	sender := &mockSender{}
	correlator := New(sender)
	defer correlator.Close()

	done := submitAsync(correlator, "s1", time.Second)
	require.Eventually(t, func() bool {
		return correlator.Outstanding("s1") == 1
	}, time.Second, 5*time.Millisecond)

	frames := sender.sent()
	correlator.Resolve("s1", frames[0].Id, &jsonrpc.Response{Error: jsonrpc.NewError(jsonrpc.InvalidParams, "bad arguments", nil)})
	out := <-done
	require.NotNil(t, out.err)
	assert.Equal(t, jsonrpc.InvalidParams, out.err.Code)
}

func TestCorrelator_Timeout(t *testing.T) {
	sender := &mockSender{}
	correlator := New(sender, WithSweepInterval(20*time.Millisecond))
	defer correlator.Close()

	started := time.Now()
	done := submitAsync(correlator, "s1", 100*time.Millisecond)
	out := <-done
	require.NotNil(t, out.err)
	assert.Equal(t, schema.RequestTimeout, out.err.Code)
	// bounded by timeout + sweep interval, with scheduling slack
	assert.Less(t, time.Since(started), time.Second)
	assert.Equal(t, 0, correlator.Outstanding("s1"))
}

func TestCorrelator_SendFailure(t *testing.T) {
	sender := &mockSender{err: fmt.Errorf("connection reset")}
	correlator := New(sender)
	defer correlator.Close()

	response, rpcErr := correlator.Submit(context.Background(), "s1", schema.MethodToolsList, &schema.ListToolsParams{}, time.Second)
	require.NotNil(t, rpcErr)
	assert.Nil(t, response)
	assert.Equal(t, schema.PeerUnreachable, rpcErr.Code)
	assert.Equal(t, 0, correlator.Outstanding("s1"))
}

func TestCorrelator_FailAll(t *testing.T) {
	sender := &mockSender{}
	correlator := New(sender)
	defer correlator.Close()

	var results []chan submitOutcome
	for i := 0; i < 3; i++ {
		results = append(results, submitAsync(correlator, "s1", time.Minute))
	}
	require.Eventually(t, func() bool {
		return correlator.Outstanding("s1") == 3
	}, time.Second, 5*time.Millisecond)

	correlator.FailAll("s1", schema.NewPeerUnreachable("peer disconnected"))
	for _, done := range results {
		out := <-done
		require.NotNil(t, out.err)
		assert.Equal(t, schema.PeerUnreachable, out.err.Code)
	}
	assert.Equal(t, 0, correlator.Outstanding("s1"))

	// idempotent on an empty session
	correlator.FailAll("s1", schema.NewPeerUnreachable("peer disconnected"))
	assert.Equal(t, 0, correlator.Outstanding("s1"))
}

func TestCorrelator_LateResolveIsNoop(t *testing.T) {
	sender := &mockSender{}
	correlator := New(sender)
	defer correlator.Close()

	// no pending entry at all
	correlator.Resolve("s1", 42, &jsonrpc.Response{Result: json.RawMessage(`{}`)})
	assert.Equal(t, 0, correlator.Outstanding("s1"))

	done := submitAsync(correlator, "s1", time.Second)
	require.Eventually(t, func() bool {
		return correlator.Outstanding("s1") == 1
	}, time.Second, 5*time.Millisecond)
	id := sender.sent()[0].Id
	correlator.Resolve("s1", id, &jsonrpc.Response{Result: json.RawMessage(`{"content":"first"}`)})
	out := <-done
	require.Nil(t, out.err)

	// duplicate of an already resolved id
	correlator.Resolve("s1", id, &jsonrpc.Response{Result: json.RawMessage(`{"content":"second"}`)})
	assert.JSONEq(t, `{"content":"first"}`, string(out.response.Result))
}

func TestCorrelator_Cancel(t *testing.T) {
	sender := &mockSender{}
	correlator := New(sender)
	defer correlator.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan submitOutcome, 1)
	go func() {
		response, err := correlator.Submit(ctx, "s1", schema.MethodToolsCall, &schema.CallToolParams{Name: "tool_a"}, time.Minute)
		done <- submitOutcome{response: response, err: err}
	}()
	require.Eventually(t, func() bool {
		return correlator.Outstanding("s1") == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	out := <-done
	require.NotNil(t, out.err)
	assert.Equal(t, 0, correlator.Outstanding("s1"))
	// exactly the one forwarded frame; cancellation sends nothing to the peer
	assert.Len(t, sender.sent(), 1)
}

func TestCorrelator_UniqueCorrelationIds(t *testing.T) {
	sender := &mockSender{}
	correlator := New(sender)
	defer correlator.Close()

	const n = 20
	var results []chan submitOutcome
	for i := 0; i < n; i++ {
		results = append(results, submitAsync(correlator, "s1", time.Minute))
	}
	require.Eventually(t, func() bool {
		return correlator.Outstanding("s1") == n
	}, time.Second, 5*time.Millisecond)

	seen := make(map[uint64]bool)
	for _, frame := range sender.sent() {
		assert.False(t, seen[frame.Id], "correlation id %v reused", frame.Id)
		seen[frame.Id] = true
	}
	correlator.FailAll("s1", schema.NewPeerUnreachable("peer disconnected"))
	for _, done := range results {
		<-done
	}
}

// TestCorrelator_NoLeakedRequests fuzzes random interleavings of
// submit/resolve/disconnect and asserts every submit terminates and the
// table drains.
func TestCorrelator_NoLeakedRequests(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		sender := &mockSender{}
		correlator := New(sender, WithSweepInterval(10*time.Millisecond))
		defer correlator.Close()

		session := fmt.Sprintf("s%d", rapid.IntRange(0, 3).Draw(t, "session"))
		numSubmits := rapid.IntRange(1, 8).Draw(t, "numSubmits")
		numResolved := rapid.IntRange(0, numSubmits).Draw(t, "numResolved")
		disconnect := rapid.Bool().Draw(t, "disconnect")

		var results []chan submitOutcome
		for i := 0; i < numSubmits; i++ {
			results = append(results, submitAsync(correlator, session, 50*time.Millisecond))
		}
		require.Eventually(t, func() bool {
			return len(sender.sent()) == numSubmits
		}, time.Second, time.Millisecond)

		frames := sender.sent()
		for i := 0; i < numResolved; i++ {
			correlator.Resolve(session, frames[i].Id, &jsonrpc.Response{Result: json.RawMessage(`{}`)})
		}
		if disconnect {
			correlator.FailAll(session, schema.NewPeerUnreachable("peer disconnected"))
		}
		// every submit terminates: result, disconnect error, or sweep timeout
		for _, done := range results {
			select {
			case <-done:
			case <-time.After(2 * time.Second):
				t.Fatalf("submit leaked")
			}
		}
		assert.Equal(t, 0, correlator.Outstanding(session))
	})
}
