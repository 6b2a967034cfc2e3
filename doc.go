// Package bridge implements the correlation and session-routing core of a
// JSON-RPC bridge between two asynchronous peers: an HTTP-facing agent
// service (the caller) and a browser-hosted tool runtime (the peer).
//
// The package glues three cooperating pieces:
//  1. registry.Registry – tracks the connected peer and brokers sends to it,
//  2. correlator.Correlator – matches forwarded requests to their eventual
//     asynchronous responses and enforces per-request deadlines,
//  3. router.Router – classifies the closed set of bridge message kinds and
//     dispatches each to its handler or across the bridge boundary.
//
// Service is the umbrella entry point: it wires the three pieces together and
// exposes the caller-facing JSON-RPC transports (streamable HTTP, SSE, stdio)
// plus the websocket endpoint peers connect to.
//
// Example:
//
//	svc, _ := bridge.New(bridge.WithImplementation(schema.Implementation{Name: "bridge", Version: "1.0"}))
//	svc.Start(ctx)
//	server := svc.HTTP(ctx, "127.0.0.1:5000")
//	_ = server.ListenAndServe()
//
// The bridge core is purely in-memory: a process restart drops all sessions
// and pending requests, and callers are expected to reconnect and retry.
package bridge
