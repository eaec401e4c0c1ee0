// Package relay is the connection/session registry and room-broadcast
// engine. It tracks which live connections carry which identity, which
// rooms each connection occupies, and fans events out to exactly the right
// connection set while keeping each channel's persisted log consistent
// with broadcast order.
package relay

// Conn is one live bidirectional transport session. The relay never talks
// to a socket directly; it only enqueues frames through this interface.
//
// Implementations must be pointer types (the relay compares Conn values to
// exclude senders) and Send must be safe for concurrent use. Send may not
// block on network I/O: it enqueues the frame for an owning write loop and
// reports false when the frame was dropped because the connection is gone
// or its buffer is full.
type Conn interface {
	// ID returns the opaque session handle assigned at connect time.
	ID() string
	// Send enqueues one event frame for delivery to this connection.
	Send(event string, data any) bool
}
