package client

import (
	"time"

	"github.com/milweb-dev/milweb/pkg/protocol"
)

// Observer receives client activity for metrics. Methods are called on the
// session's event loop and must not block.
type Observer interface {
	ProxyAdded(kind protocol.ObjectType)
	ProxyRemoved(kind protocol.ObjectType)
	RequestSent(cmd protocol.Command)
	FrameReceived(kind protocol.ObjectType, bytes int, latency time.Duration)
	GroupRound(group string)
	Error(code int)
}

type nopObserver struct{}

func (nopObserver) ProxyAdded(protocol.ObjectType)                        {}
func (nopObserver) ProxyRemoved(protocol.ObjectType)                      {}
func (nopObserver) RequestSent(protocol.Command)                          {}
func (nopObserver) FrameReceived(protocol.ObjectType, int, time.Duration) {}
func (nopObserver) GroupRound(string)                                     {}
func (nopObserver) Error(int)                                             {}
