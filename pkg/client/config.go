package client

import "time"

// Config holds the settings of a Session.
type Config struct {
	// Identity

	// ClientName is sent to the server when a proxy subscribes.
	// Default: "milweb".
	ClientName string

	// Scheduling

	// FramesPerSecond is the initial poll rate of new proxies. Zero polls
	// again as soon as a frame has been handled.
	// Default: 0.
	FramesPerSecond int64

	// UpdateDelay is the delay before the first poll after a proxy becomes
	// ready or gets an update hook.
	// Default: 5 milliseconds.
	UpdateDelay time.Duration

	// GroupRetryDelay is the delay before a group checks its members again
	// when some of them are not connected yet.
	// Default: 5 milliseconds.
	GroupRetryDelay time.Duration

	// AppCloseTimeout is how long an application socket stays open after
	// APP_END so the server can receive it.
	// Default: 1 second.
	AppCloseTimeout time.Duration

	// Transport

	// HandshakeTimeout is the maximum time to open a WebSocket.
	// Default: 10 seconds.
	HandshakeTimeout time.Duration

	// WriteTimeout is the maximum time to wait when sending a message.
	// Default: 10 seconds.
	WriteTimeout time.Duration

	// MaxMessageSize is the maximum size of an incoming WebSocket message.
	// Default: 64MB.
	MaxMessageSize int64

	// MaxEventQueue is the size of the event loop queue.
	// Default: 1024.
	MaxEventQueue int

	// Diagnostics

	// Debug turns invalid handles and broken group invariants into panics.
	Debug bool

	// PrintErrors logs reported errors unless the application disabled
	// printing with the Error control.
	// Default: true.
	PrintErrors bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ClientName:       "milweb",
		UpdateDelay:      5 * time.Millisecond,
		GroupRetryDelay:  5 * time.Millisecond,
		AppCloseTimeout:  time.Second,
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
		MaxMessageSize:   64 << 20,
		MaxEventQueue:    1024,
		PrintErrors:      true,
	}
}

// Clone returns a copy of the Config.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}
