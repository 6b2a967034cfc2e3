// Package router is the bridge's protocol state machine: it classifies the
// closed set of message kinds once at parse time and dispatches caller
// requests and peer frames to their handling paths.
package router
