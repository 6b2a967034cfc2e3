// Package correlator matches requests forwarded to the peer with their
// asynchronous responses. Every submitted request terminates in exactly one
// of three ways: a result, an explicit error, or a timeout/disconnect error.
package correlator
