package client

import (
	"github.com/milweb-dev/milweb/pkg/hook"
	"github.com/milweb-dev/milweb/pkg/protocol"
	"github.com/milweb-dev/milweb/pkg/registry"
)

// Handle identifies a proxy within its Session.
type Handle = registry.Handle

// Null is the handle of no object.
const Null = registry.Null

// State is the connection state of a proxy.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateInitialized
	StateSubscribed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "Disconnected"
	case StateConnecting:
		return "Connecting"
	case StateConnected:
		return "Connected"
	case StateInitialized:
		return "Initialized"
	case StateSubscribed:
		return "Subscribed"
	default:
		return "Unknown"
	}
}

// Proxy is the common interface of every remote object.
type Proxy interface {
	Handle() Handle
	Kind() protocol.ObjectType
	Name() string
	State() State

	// Hook registers fn for hooks of type t and returns the token that
	// removes it.
	Hook(t protocol.HookType, fn hook.Handler, userData any) hook.Token
	Unhook(tok hook.Token)

	Control(ct protocol.ControlType, value int64)
	Inquire(it protocol.InquireType) int64

	// Data returns the last payload received. It is replaced, not
	// modified, by later frames.
	Data() []byte

	// Snapshot copies the current metadata and payload.
	Snapshot() Snapshot

	base() *object
}

// variant is implemented by every proxy kind. The methods override the
// behavior of the embedded object.
type variant interface {
	Proxy
	onConnect()
	onCommand(cmd protocol.Command, raw []byte)
	onDisconnect(reason error)
	onUpdate()
	doJob()
	terminate()
}

// Snapshot is a copy of a proxy's frame and metadata.
type Snapshot struct {
	Handle       Handle
	Name         string
	Group        string
	Kind         protocol.ObjectType
	Serial       int64
	GroupCounter int64
	Format       protocol.PixelFormat
	Width        int64
	Height       int64
	Tag          int64
	Text         bool
	Data         []byte
}
