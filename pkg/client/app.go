package client

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/milweb-dev/milweb/internal/errors"
	"github.com/milweb-dev/milweb/pkg/protocol"
)

// App is the application proxy. It opens the session with the server and
// owns the proxies of the buffers the server publishes.
type App struct {
	object

	clientVersion int64
	info          protocol.ConnectionInfo
	bufferList    []protocol.BufferEntry
	printDisabled bool
	listed        bool
	err           error
	closeTimer    *time.Timer
}

func newApp(s *Session, url string) *App {
	a := &App{clientVersion: protocol.ClientVersion}
	a.init(s, a, protocol.TypeApplication, "", url)
	a.name = "App" + strconv.FormatInt(int64(a.handle), 10)
	return a
}

// ServerInfo returns the CONNECTION_INFO received from the server.
func (a *App) ServerInfo() protocol.ConnectionInfo {
	return a.info
}

// Err returns why the application failed to open, if it did.
func (a *App) Err() error {
	return a.err
}

// Listed reports whether the object list was received.
func (a *App) Listed() bool {
	return a.listed
}

// BufferList returns the last published object list.
func (a *App) BufferList() []protocol.BufferEntry {
	return a.bufferList
}

// Objects returns the proxies owned by the application, groups included.
func (a *App) Objects() []Proxy {
	var out []Proxy
	for _, p := range a.owned() {
		out = append(out, p)
	}
	return out
}

// Connect connects the published buffer name and returns its handle. A
// group name returns the group handle. Unknown names return Null.
func (a *App) Connect(name string) Handle {
	p := a.find(name, true)
	if p == nil {
		return Null
	}
	if p.Kind() != protocol.TypeGroup {
		b := p.base()
		b.closeFromUser = false
		b.connect()
	}
	return p.Handle()
}

// Published returns the handles of the published proxies, groups included.
func (a *App) Published() []Handle {
	var out []Handle
	for _, p := range a.owned() {
		if !p.base().freed {
			out = append(out, p.Handle())
		}
	}
	return out
}

// InquireConnection answers PublishedName with the handle of name after
// connecting it, and PublishedList with every published handle.
func (a *App) InquireConnection(it protocol.InquireType, name string) any {
	switch it {
	case protocol.InquirePublishedName:
		return a.Connect(name)
	case protocol.InquirePublishedList:
		return a.Published()
	}
	return Null
}

// Control changes an application setting.
func (a *App) Control(ct protocol.ControlType, value int64) {
	switch ct {
	case protocol.ControlCloseConnection:
		if p, ok := a.sess.lookup(Handle(value)); ok {
			p.base().onFree(true)
		}
	case protocol.ControlError:
		switch value {
		case protocol.PrintEnable:
			a.printDisabled = false
		case protocol.PrintDisable:
			a.printDisabled = true
		default:
			a.reportError(12)
		}
	default:
		a.reportError(10)
	}
}

// Inquire returns an application setting.
func (a *App) Inquire(it protocol.InquireType) int64 {
	switch it {
	case protocol.InquireWebClientIndex:
		return a.clientID
	case protocol.InquireObjectType:
		return int64(protocol.TypeApplication)
	}
	return protocol.Null
}

func (a *App) owned() []variant {
	if a.handle == Null {
		return nil
	}
	return a.sess.objects.Filter(func(_ Handle, p variant) bool {
		return p != variant(a) && p.base().app == a.handle
	})
}

// find returns the owned proxy named name.
func (a *App) find(name string, groups bool) variant {
	for _, p := range a.owned() {
		if p.Name() != name {
			continue
		}
		if p.Kind() == protocol.TypeGroup && !groups {
			continue
		}
		return p
	}
	return nil
}

// =============================================================================
// Events
// =============================================================================

func (a *App) onConnect() {
	a.connected = true
	a.hooks.Fire(protocol.HookConnecting, a.hookInfo())
	a.send(protocol.CmdAppStart, protocol.NewAppStart(a.clientVersion))
}

func (a *App) onCommand(cmd protocol.Command, raw []byte) {
	// Frames still in flight after terminate belong to nobody.
	if a.handle == Null || a.err != nil {
		return
	}
	switch cmd {
	case protocol.CmdConnectionInfo:
		a.onConnectionInfo(raw)
	case protocol.CmdObjectList:
		a.onObjectList(raw)
	case protocol.CmdRefreshList:
		a.onRefreshList(raw)
	default:
		a.object.onCommand(cmd, raw)
	}
}

func (a *App) onConnectionInfo(raw []byte) {
	var msg protocol.ConnectionInfo
	if err := json.Unmarshal(raw, &msg); err != nil {
		a.logger.Warn("invalid connection info", "error", err)
		return
	}
	a.info = msg
	a.clientID = msg.ClientId
	if msg.ServerVersion != a.clientVersion {
		a.err = fmt.Errorf("%w: server %#x, client %#x", ErrVersionMismatch, msg.ServerVersion, a.clientVersion)
		a.logger.Error("protocol version mismatch",
			"server", msg.ServerVersion,
			"client", a.clientVersion)
		a.sess.reportError(a.handle, 0, errors.New("E061").Error())
		a.terminate()
		return
	}
	a.logger.Info("connected",
		"url", a.url,
		"client_id", msg.ClientId,
		"server", msg.ServerProcessName)
	a.send(protocol.CmdGetObjectList, protocol.Simple{Command: protocol.CmdGetObjectList})
	a.initialized = true
}

func (a *App) onObjectList(raw []byte) {
	var msg protocol.ObjectList
	if err := json.Unmarshal(raw, &msg); err != nil {
		a.logger.Warn("invalid object list", "error", err)
		return
	}
	if msg.NumBufInList != len(msg.BufferList) {
		a.logger.Warn("object list count mismatch",
			"announced", msg.NumBufInList,
			"received", len(msg.BufferList))
	}
	a.bufferList = msg.BufferList
	for _, e := range msg.BufferList {
		p := a.find(e.ExchangeBufferId, false)
		if p == nil {
			p = a.createObject(e)
		}
		if p != nil {
			a.regroup(p, e.ExchangeGroupId)
		}
	}
	a.listed = true
	a.hooks.Fire(protocol.HookConnect, a.hookInfo())
}

// onRefreshList diffs the new object list against the previous one.
func (a *App) onRefreshList(raw []byte) {
	var msg protocol.ObjectList
	if err := json.Unmarshal(raw, &msg); err != nil {
		a.logger.Warn("invalid refresh list", "error", err)
		return
	}
	before := make(map[string]bool, len(a.bufferList))
	var names []string
	for _, e := range a.bufferList {
		before[e.ExchangeBufferId] = true
		names = append(names, e.ExchangeBufferId)
	}
	after := make(map[string]protocol.BufferEntry, len(msg.BufferList))
	for _, e := range msg.BufferList {
		after[e.ExchangeBufferId] = e
		if !before[e.ExchangeBufferId] {
			names = append(names, e.ExchangeBufferId)
		}
	}
	a.bufferList = msg.BufferList

	for _, name := range names {
		e, listed := after[name]
		p := a.find(name, false)
		switch {
		case before[name] && !listed:
			if p == nil {
				continue
			}
			b := p.base()
			b.freed = true
			if b.initialized {
				if g := a.sess.group(b.group); g != nil {
					g.removeFromGroup(p, false)
				}
				a.hooks.Fire(protocol.HookObjectPublishWeb, b.hookInfo())
			}
		case !before[name]:
			if p == nil {
				if p = a.createObject(e); p == nil {
					continue
				}
			}
			p.base().freed = false
			a.regroup(p, e.ExchangeGroupId)
			a.hooks.Fire(protocol.HookObjectPublishWeb, p.base().hookInfo())
		default:
			if p != nil {
				a.regroup(p, e.ExchangeGroupId)
			}
		}
	}
}

func (a *App) createObject(e protocol.BufferEntry) variant {
	var p variant
	switch e.BufferType {
	case protocol.TypeDisplay:
		p = newDisplay(a.sess, a.url, e.ExchangeBufferId)
	case protocol.TypeImage:
		p = newImage(a.sess, a.url, e.ExchangeBufferId)
	case protocol.TypeArray:
		p = newArray(a.sess, a.url, e.ExchangeBufferId)
	case protocol.TypeMessageMailbox:
		p = newMessage(a.sess, a.url, e.ExchangeBufferId)
	default:
		a.logger.Warn("object type not supported",
			"buffer", e.ExchangeBufferId,
			"type", int64(e.BufferType))
		return nil
	}
	b := p.base()
	b.app = a.handle
	b.clientGroupID = a.clientID
	return p
}

func (a *App) regroup(p variant, groupName string) {
	p.base().groupName = groupName
	if groupName == "" {
		return
	}
	a.createGroup(groupName).addToGroup(p)
}

func (a *App) createGroup(name string) *Group {
	for _, p := range a.owned() {
		if g, ok := p.(*Group); ok && g.name == name {
			return g
		}
	}
	g := newGroup(a.sess, a.url, name)
	g.app = a.handle
	return g
}

func (a *App) onDisconnect(reason error) {
	if a.connected {
		a.hooks.Fire(protocol.HookDisconnect, a.hookInfo())
		if a.conn != nil {
			// The server closed the socket; APP_END cannot be delivered.
			a.connected = false
			a.terminate()
		}
	} else {
		msg := "websocket error"
		if reason != nil {
			msg = reason.Error()
		}
		if a.err == nil {
			a.err = errors.New("E060").Wrap(reason)
		}
		a.sess.reportError(a.handle, 0, msg)
		a.terminate()
	}
	a.logger.Info("disconnected", "url", a.url)
	a.hooks.Clear()
	a.connected = false
	a.initialized = false
}

// terminate releases every owned proxy, ends the application and closes
// the socket after AppCloseTimeout.
func (a *App) terminate() {
	a.poll.stop()
	owned := a.owned()
	for _, p := range owned {
		if p.Kind() == protocol.TypeGroup {
			continue
		}
		p.base().closeFromUser = false
		p.terminate()
	}
	for _, p := range owned {
		if g, ok := p.(*Group); ok {
			g.poll.stop()
			g.app = Null
		}
	}
	if a.connected && a.conn != nil {
		a.write(protocol.CmdAppEnd, TextMessage, protocol.Simple{Command: protocol.CmdAppEnd})
	}
	a.sess.unregister(a.handle)
	a.handle = Null

	if a.closeTimer != nil {
		a.closeTimer.Stop()
	}
	seq := a.sockSeq
	a.closeTimer = time.AfterFunc(a.sess.config.AppCloseTimeout, func() {
		a.sess.post(func() {
			if a.sockSeq == seq {
				a.closeSocket()
			}
		})
	})
}
