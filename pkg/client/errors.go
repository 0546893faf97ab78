package client

import "errors"

var (
	// ErrSessionClosed is returned when the session is closed.
	ErrSessionClosed = errors.New("client: session closed")

	// ErrVersionMismatch is returned when the server speaks another
	// protocol version.
	ErrVersionMismatch = errors.New("client: server protocol version mismatch")

	// ErrDisconnected is returned when the application connection closes
	// before it is ready.
	ErrDisconnected = errors.New("client: application disconnected")
)
