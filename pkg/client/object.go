package client

import (
	"encoding/json"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/milweb-dev/milweb/pkg/hook"
	"github.com/milweb-dev/milweb/pkg/protocol"
)

// object holds the state shared by every proxy kind. Variants embed it and
// override the behavior they specialize; object code dispatches through
// self so overrides take effect.
type object struct {
	sess   *Session
	self   variant
	logger *slog.Logger

	handle    Handle
	app       Handle
	group     Handle
	kind      protocol.ObjectType
	name      string
	groupName string
	url       string

	conn    Conn
	sockSeq uint64

	// requested is set once the user asked for a connection. Groups only
	// wait for requested members.
	requested           bool
	dialing             bool
	connected           bool
	initialized         bool
	subscribed          bool
	enabled             bool
	interactive         bool
	freed               bool
	closeFromUser       bool
	serverDataAvailable bool
	changed             bool

	sizeX         int64
	sizeY         int64
	sizeByte      int64
	format        protocol.PixelFormat
	access        int64
	dataType      int64
	messageTag    int64
	messageType   int64
	serial        int64
	lastSerial    int64
	groupCounter  int64
	clientID      int64
	clientGroupID int64
	fps           int64
	requestID     int64
	lastCommand   protocol.Command

	data []byte
	text bool

	hooks hook.Registry
	poll  *task

	span        trace.Span
	requestedAt time.Time
}

func (o *object) init(s *Session, self variant, kind protocol.ObjectType, name, url string) {
	o.sess = s
	o.self = self
	o.kind = kind
	o.name = name
	o.url = url
	o.enabled = true
	o.interactive = true
	o.serverDataAvailable = true
	o.sizeX = protocol.Invalid
	o.sizeY = protocol.Invalid
	o.sizeByte = protocol.Invalid
	o.serial = protocol.Invalid
	o.groupCounter = protocol.Invalid
	o.clientGroupID = protocol.Invalid
	o.fps = s.config.FramesPerSecond
	o.poll = newTask(s, func() { self.onUpdate() })
	o.handle = s.register(self)
	o.logger = s.logger.With("kind", kind.String(), "handle", int64(o.handle))
	if name != "" {
		o.logger = o.logger.With("buffer", name)
	}
}

func (o *object) base() *object { return o }

// Handle returns the handle of the proxy, or Null once it is released.
func (o *object) Handle() Handle { return o.handle }

// Kind returns the object type.
func (o *object) Kind() protocol.ObjectType { return o.kind }

// Name returns the exchange buffer name.
func (o *object) Name() string { return o.name }

// GroupName returns the name of the group the buffer is published in.
func (o *object) GroupName() string { return o.groupName }

// App returns the handle of the owning application.
func (o *object) App() Handle { return o.app }

// Group returns the handle of the group the proxy belongs to, or Null.
func (o *object) Group() Handle { return o.group }

// Data returns the last payload received.
func (o *object) Data() []byte { return o.data }

// Serial returns the serial counter of the last frame.
func (o *object) Serial() int64 { return o.serial }

// GroupCounter returns the group counter of the last frame.
func (o *object) GroupCounter() int64 { return o.groupCounter }

// SizeX returns the width of the buffer.
func (o *object) SizeX() int64 { return o.sizeX }

// SizeY returns the height of the buffer.
func (o *object) SizeY() int64 { return o.sizeY }

// Format returns the pixel format of the buffer.
func (o *object) Format() protocol.PixelFormat { return o.format }

// FrameRate returns the poll rate in frames per second.
func (o *object) FrameRate() int64 { return o.fps }

// Connected reports whether the proxy socket is open.
func (o *object) Connected() bool { return o.connected }

// Initialized reports whether the proxy received its metadata.
func (o *object) Initialized() bool { return o.initialized }

// State returns the connection state.
func (o *object) State() State {
	switch {
	case o.subscribed:
		return StateSubscribed
	case o.initialized:
		return StateInitialized
	case o.connected:
		return StateConnected
	case o.dialing:
		return StateConnecting
	default:
		return StateDisconnected
	}
}

// Snapshot copies the current metadata and payload.
func (o *object) Snapshot() Snapshot {
	return Snapshot{
		Handle:       o.handle,
		Name:         o.name,
		Group:        o.groupName,
		Kind:         o.kind,
		Serial:       o.serial,
		GroupCounter: o.groupCounter,
		Format:       o.format,
		Width:        o.sizeX,
		Height:       o.sizeY,
		Tag:          o.messageTag,
		Text:         o.text,
		Data:         append([]byte(nil), o.data...),
	}
}

func (o *object) hookInfo() hook.Info {
	return hook.ObjectInfo(int64(o.handle))
}

func (o *object) reportError(code int) {
	o.sess.reportError(o.handle, code, "")
}

// =============================================================================
// Hooks
// =============================================================================

// updateHook is the hook type that drives polling.
func (o *object) updateHook() protocol.HookType {
	if o.kind == protocol.TypeGroup {
		return protocol.HookUpdateEnd
	}
	return protocol.HookUpdateWeb
}

// Hook registers fn for hooks of type t. Hooking the update type of an
// initialized proxy starts polling.
func (o *object) Hook(t protocol.HookType, fn hook.Handler, userData any) hook.Token {
	tok := o.hooks.Add(t, fn, userData)
	if tok == 0 {
		return 0
	}
	if (o.initialized && t == protocol.HookUpdateWeb) || t == protocol.HookUpdateEnd {
		o.poll.reset(o.sess.config.UpdateDelay)
	}
	return tok
}

// Unhook removes a registration. Removing the last update hook stops
// polling.
func (o *object) Unhook(tok hook.Token) {
	t, ok := o.hooks.Remove(tok)
	if !ok {
		return
	}
	if t == o.updateHook() && !o.hooks.Has(t) {
		o.poll.stop()
		o.serverDataAvailable = true
	}
}

// =============================================================================
// Control and Inquire
// =============================================================================

// Control changes a setting of the proxy.
func (o *object) Control(ct protocol.ControlType, value int64) {
	switch ct {
	case protocol.ControlFrameRate:
		switch {
		case value == protocol.Default:
			o.fps = protocol.DefaultFramesPerSecond
		case value >= 0:
			o.fps = value
		default:
			o.reportError(14)
		}
	case protocol.ControlUpdateWeb:
		if value == protocol.Force {
			o.forceUpdate()
			return
		}
		o.reportError(10)
	default:
		o.reportError(10)
	}
}

// Inquire returns a setting or metadata value of the proxy.
func (o *object) Inquire(it protocol.InquireType) int64 {
	switch it {
	case protocol.InquireSizeX:
		return o.sizeX
	case protocol.InquireSizeY:
		return o.sizeY
	case protocol.InquireDataType:
		return o.dataType
	case protocol.InquireSizeByte:
		return o.sizeByte
	case protocol.InquireObjectType:
		return int64(o.kind)
	case protocol.InquireWebPublish:
		if o.freed {
			return protocol.Disable
		}
		return protocol.Enable
	case protocol.InquireGroupID:
		return int64(o.group)
	case protocol.InquireFrameRate:
		return o.fps
	}
	o.reportError(11)
	return protocol.Null
}

func (o *object) interval() time.Duration {
	if o.fps <= 0 {
		return 0
	}
	return time.Second / time.Duration(o.fps)
}

// =============================================================================
// Socket
// =============================================================================

func (o *object) connect() {
	if o.connected || o.dialing || o.conn != nil {
		return
	}
	o.requested = true
	o.dialing = true
	o.sockSeq++
	seq := o.sockSeq
	s := o.sess
	url := o.url
	go func() {
		conn, err := s.dialer.Dial(s.ctx, url)
		if !s.post(func() { o.opened(seq, conn, err) }) && conn != nil {
			conn.Close()
		}
	}()
}

func (o *object) opened(seq uint64, conn Conn, err error) {
	if seq != o.sockSeq {
		if conn != nil {
			conn.Close()
		}
		return
	}
	o.dialing = false
	if err != nil {
		o.logger.Warn("connect failed", "url", o.url, "error", err)
		o.self.onDisconnect(err)
		return
	}
	o.conn = conn
	go o.readLoop(conn, seq)
	o.self.onConnect()
}

func (o *object) readLoop(conn Conn, seq uint64) {
	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			o.sess.post(func() { o.connectionLost(seq, conn, err) })
			return
		}
		ok := o.sess.post(func() {
			if seq == o.sockSeq && o.conn == conn {
				o.processMessage(mt, data)
			}
		})
		if !ok {
			return
		}
	}
}

// connectionLost runs when the reader of socket seq stops. When the proxy
// still holds the socket, the server closed it.
func (o *object) connectionLost(seq uint64, conn Conn, err error) {
	if seq != o.sockSeq {
		return
	}
	o.self.onDisconnect(err)
	if o.conn == conn {
		o.conn.Close()
		o.conn = nil
	}
}

// closeSocket closes the socket. The disconnect is delivered by the reader.
func (o *object) closeSocket() {
	if o.dialing {
		o.sockSeq++
		o.dialing = false
	}
	if o.conn != nil {
		o.logger.Debug("close socket")
		o.conn.Close()
		o.conn = nil
	}
}

// shutdown closes the socket without delivering a disconnect.
func (o *object) shutdown() {
	o.poll.stop()
	o.sockSeq++
	o.dialing = false
	if o.conn != nil {
		o.conn.Close()
		o.conn = nil
	}
	o.connected = false
	o.endSpan(ErrSessionClosed)
}

func (o *object) processMessage(mt int, data []byte) {
	switch {
	case mt == BinaryMessage:
		o.setData(data, false)
		o.onData()
	case o.messageType == protocol.MailboxModeWebText && o.lastCommand == protocol.CmdObjectData && o.sizeByte > 0:
		o.setData(data, true)
		o.lastCommand = 0
		o.onData()
	default:
		cmd, err := protocol.Decode(data)
		if err != nil {
			o.logger.Warn("invalid message", "error", err)
			break
		}
		o.lastCommand = cmd
		o.self.onCommand(cmd, data)
	}
	if !o.connected {
		o.reportError(15)
	}
}

func (o *object) setData(data []byte, text bool) {
	o.data = data
	o.text = text
}

// =============================================================================
// Sending
// =============================================================================

// send writes msg when the socket is open.
func (o *object) send(cmd protocol.Command, msg any) bool {
	return o.sendIf(true, cmd, msg)
}

// sendIf writes msg when ok holds and the socket is open. A closed
// socket is reported whether or not ok holds.
func (o *object) sendIf(ok bool, cmd protocol.Command, msg any) bool {
	sent := false
	if ok && o.conn != nil {
		sent = o.write(cmd, TextMessage, msg)
	}
	if !o.connected {
		o.reportError(15)
	}
	return sent
}

func (o *object) write(cmd protocol.Command, mt int, msg any) bool {
	var data []byte
	switch m := msg.(type) {
	case []byte:
		data = m
	default:
		var err error
		data, err = protocol.Encode(msg)
		if err != nil {
			o.logger.Error("encode failed", "command", cmd.String(), "error", err)
			return false
		}
	}
	if err := o.conn.WriteMessage(mt, data); err != nil {
		o.logger.Warn("write failed", "command", cmd.String(), "error", err)
		return false
	}
	o.sess.observer.RequestSent(cmd)
	return true
}

func (o *object) requestObjectInfo() {
	o.send(protocol.CmdRequestObjectInfo, protocol.BufferRequest{
		Command:          protocol.CmdRequestObjectInfo,
		ExchangeBufferId: o.name,
	})
}

func (o *object) forceUpdate() {
	o.send(protocol.CmdForceUpdateInProgress, protocol.BufferRequest{
		Command:          protocol.CmdForceUpdateInProgress,
		ExchangeBufferId: o.name,
	})
}

// subscribe binds the socket to the buffer. Groups have no socket.
func (o *object) subscribe() {
	if !o.initialized || !o.connected || o.kind == protocol.TypeGroup {
		return
	}
	sent := o.send(protocol.CmdSetParameters, protocol.SetParameters{
		Command:          protocol.CmdSetParameters,
		ExchangeBufferId: o.name,
		WaitForUpdate:    true,
		ClientName:       o.sess.config.ClientName,
		ClientGroupId:    o.clientGroupID,
		ApplicationType:  protocol.ApplicationWeb,
	})
	if sent {
		o.subscribed = true
	}
}

// retrieveData asks for the next frame unless a request is in flight.
func (o *object) retrieveData() {
	if !o.serverDataAvailable {
		return
	}
	o.serverDataAvailable = false
	id := o.requestID
	o.requestID++

	_, o.span = o.sess.tracer.Start(o.sess.ctx, "milweb.retrieve", trace.WithAttributes(
		attribute.String("milweb.buffer", o.name),
		attribute.Int64("milweb.request_id", id),
	))
	o.requestedAt = time.Now()

	o.send(protocol.CmdRequestObjectData, protocol.RequestObjectData{
		Command:          protocol.CmdRequestObjectData,
		ExchangeBufferId: o.name,
		RequestId:        id,
	})
}

func (o *object) endSpan(err error) {
	if o.span == nil {
		return
	}
	if err != nil {
		o.span.RecordError(err)
		o.span.SetStatus(codes.Error, err.Error())
	}
	o.span.End()
	o.span = nil
}

// =============================================================================
// Events
// =============================================================================

func (o *object) onConnect() {
	o.connected = true
	if o.name != "" {
		o.requestObjectInfo()
	}
}

func (o *object) onCommand(cmd protocol.Command, raw []byte) {
	switch cmd {
	case protocol.CmdObjectConnected:
		o.hooks.Fire(protocol.HookConnect, o.hookInfo())
		o.callOnUpdate()
	case protocol.CmdObjectData:
		if o.initialized {
			o.onObjectData(raw)
		}
	}
}

func (o *object) onObjectData(raw []byte) {
	var msg protocol.ObjectData
	if err := json.Unmarshal(raw, &msg); err != nil {
		o.logger.Warn("invalid object data", "error", err)
		o.initialized = false
		return
	}
	o.sizeByte = msg.BufferDataSize
	bs := msg.BufferStruct
	if bs == nil {
		return
	}
	if bs.Name != o.name {
		o.logger.Debug("object data for another buffer", "name", bs.Name)
	}
	o.changed = bool(bs.Changed)
	o.lastSerial = o.serial
	o.serial = bs.SerialCounter
	o.groupCounter = bs.GroupCounter
	o.messageTag = bs.MessageTag
	o.messageType = bs.MessageType
	o.interactive = bool(bs.DisplayInteractive)
	o.serverDataAvailable = false
}

func (o *object) onData() {
	o.serverDataAvailable = true
	if o.span != nil {
		o.span.SetAttributes(attribute.Int64("milweb.serial", o.serial))
		o.endSpan(nil)
		o.sess.observer.FrameReceived(o.kind, len(o.data), time.Since(o.requestedAt))
	}
	if !o.initialized {
		return
	}
	if o.group == Null {
		if o.changed && o.enabled {
			o.self.doJob()
		}
		if o.hooks.Has(protocol.HookUpdateWeb) {
			o.poll.reset(o.interval())
		}
		return
	}
	if g := o.sess.group(o.group); g != nil {
		g.updateData(o.self)
	}
}

func (o *object) onUpdate() {
	if !o.initialized || !o.connected {
		return
	}
	if o.group == Null {
		o.retrieveData()
		return
	}
	if g := o.sess.group(o.group); g != nil {
		g.onUpdate()
	}
}

// callOnUpdate starts polling once the proxy is ready.
func (o *object) callOnUpdate() {
	if o.group != Null {
		g := o.sess.group(o.group)
		if g != nil && !g.isMember(o.self) {
			o.serverDataAvailable = true
			g.addToGroup(o.self)
			g.poll.reset(0)
		}
		return
	}
	if o.hooks.Has(protocol.HookUpdateWeb) {
		o.poll.reset(o.sess.config.UpdateDelay)
	}
}

func (o *object) onDisconnect(reason error) {
	if o.connected {
		o.groupCounter = protocol.Invalid
		o.connected = false
		o.serverDataAvailable = true
		o.endSpan(ErrDisconnected)
		o.hooks.Fire(protocol.HookDisconnect, o.hookInfo())
		if !o.closeFromUser {
			o.logger.Info("buffer disconnected", "reason", reason)
			if !o.freed {
				o.freed = true
				if a := o.sess.app(o.app); a != nil {
					a.hooks.Fire(protocol.HookObjectPublishWeb, o.hookInfo())
				}
			}
			if g := o.sess.group(o.group); g != nil {
				g.removeFromGroup(o.self, false)
			}
			o.poll.stop()
			o.sess.unregister(o.handle)
			o.handle = Null
			o.hooks.Clear()
		}
	}
	o.initialized = false
	o.subscribed = false
}

// onFree releases the proxy. fromUser is set when the application asked
// for it, which keeps the handle and hooks for a later reconnect.
func (o *object) onFree(fromUser bool) {
	o.closeFromUser = fromUser
	if g := o.sess.group(o.group); g != nil {
		g.removeFromGroup(o.self, fromUser)
	}
	o.self.terminate()
}

func (o *object) terminate() {
	o.poll.stop()
	o.closeSocket()
	if !o.closeFromUser {
		o.sess.unregister(o.handle)
	}
}

func (o *object) doJob() {}
