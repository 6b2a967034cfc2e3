// Package registry tracks the connected tool runtime. It is the single owner
// of the peer connection: all sends are brokered through it, and disconnects
// fan out synchronously to the registered hooks.
package registry
