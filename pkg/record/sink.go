// Package record stores object frames received by a client session.
//
// A Recorder hooks proxies of a client.Session and hands every frame to a
// Sink on its own goroutine, so slow storage never stalls the event loop.
// Two sinks are provided: BoltSink keeps frames in a local bbolt file and
// S3Sink uploads them to an S3 bucket.
package record

import (
	"context"
	"errors"
	"time"

	"github.com/milweb-dev/milweb/pkg/protocol"
)

// ErrClosed is returned by sinks and recorders used after Close.
var ErrClosed = errors.New("record: closed")

// Frame is one recorded object update.
type Frame struct {
	Session      string               `json:"session"`
	Buffer       string               `json:"buffer"`
	Group        string               `json:"group,omitempty"`
	Kind         protocol.ObjectType  `json:"kind"`
	Serial       int64                `json:"serial"`
	GroupCounter int64                `json:"group_counter"`
	Format       protocol.PixelFormat `json:"format,omitempty"`
	Width        int64                `json:"width,omitempty"`
	Height       int64                `json:"height,omitempty"`
	Text         bool                 `json:"text,omitempty"`
	Data         []byte               `json:"data"`
	Time         time.Time            `json:"time"`
}

// Pictorial reports whether the frame holds pixels.
func (f Frame) Pictorial() bool {
	return f.Kind == protocol.TypeImage || f.Kind == protocol.TypeDisplay
}

// Sink stores frames.
type Sink interface {
	Write(ctx context.Context, f Frame) error
	Close() error
}
