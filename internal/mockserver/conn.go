package mockserver

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/milweb-dev/milweb/pkg/protocol"
)

// writeTimeout bounds each socket write.
const writeTimeout = 5 * time.Second

// outQueue is the number of frames queued per client before it is
// considered too slow and disconnected.
const outQueue = 256

type outFrame struct {
	mt   int
	data []byte
}

// conn is one client socket. Writes go through out to writeLoop so a slow
// client never blocks the server mutex. Other fields are guarded by the
// server mutex.
type conn struct {
	srv    *Server
	ws     *websocket.Conn
	out    chan outFrame
	done   chan struct{}
	once   sync.Once
	id     int64
	logger *slog.Logger

	app        bool
	buffer     string
	subscribed bool
	pending    bool
	lastSerial int64
	header     *protocol.SendMessage
}

func newConn(s *Server, ws *websocket.Conn, id int64) *conn {
	return &conn{
		srv:    s,
		ws:     ws,
		out:    make(chan outFrame, outQueue),
		done:   make(chan struct{}),
		id:     id,
		logger: s.logger.With("conn", id),
	}
}

func (c *conn) serve() {
	defer c.close()
	for {
		mt, data, err := c.ws.ReadMessage()
		if err != nil {
			c.logger.Debug("connection closed", "error", err)
			return
		}
		c.srv.mu.Lock()
		c.handle(mt, data)
		c.srv.mu.Unlock()
	}
}

func (c *conn) writeLoop() {
	defer c.ws.Close()
	for {
		select {
		case f := <-c.out:
			c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.ws.WriteMessage(f.mt, f.data); err != nil {
				c.logger.Debug("write failed", "error", err)
				return
			}
		case <-c.done:
			c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// close stops the writer, which sends a close frame and closes the socket.
func (c *conn) close() {
	c.once.Do(func() { close(c.done) })
}

func (c *conn) send(msg any) {
	data, err := protocol.Encode(msg)
	if err != nil {
		c.logger.Error("encode failed", "error", err)
		return
	}
	c.write(websocket.TextMessage, data)
}

func (c *conn) write(mt int, data []byte) {
	select {
	case c.out <- outFrame{mt: mt, data: data}:
	default:
		c.logger.Warn("client too slow, disconnecting")
		c.close()
	}
}

// deliver answers the pending data request with the current payload.
func (c *conn) deliver(b *Buffer, changed bool) {
	c.pending = false
	c.lastSerial = b.serial
	c.send(b.objectData(changed))
	switch {
	case !b.Text:
		c.write(websocket.BinaryMessage, b.Data)
	case len(b.Data) > 0:
		c.write(websocket.TextMessage, b.Data)
	}
}

// handle runs with the server mutex held.
func (c *conn) handle(mt int, data []byte) {
	s := c.srv
	if mt == websocket.BinaryMessage {
		if c.header == nil {
			c.logger.Warn("unexpected binary frame")
			return
		}
		hdr := *c.header
		c.header = nil
		s.logLocked(Received{Buffer: hdr.ExchangeBufferId, Command: protocol.CmdSendMessage, Payload: data})
		c.writeMailbox(hdr.ExchangeBufferId, data, hdr.MessageTag)
		return
	}

	cmd, err := protocol.Decode(data)
	if err != nil {
		c.logger.Warn("invalid message", "error", err)
		return
	}
	var target struct {
		ExchangeBufferId string `json:"ExchangeBufferId"`
	}
	if err := json.Unmarshal(data, &target); err != nil {
		c.logger.Warn("invalid message", "command", cmd.String(), "error", err)
		return
	}

	if cmd == protocol.CmdSendMessage {
		var msg protocol.SendMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Warn("invalid message", "command", cmd.String(), "error", err)
			return
		}
		if msg.MessageBinary {
			c.header = &msg
			return
		}
		s.logLocked(Received{Buffer: msg.ExchangeBufferId, Command: cmd, Raw: data})
		var text []byte
		if msg.MessageData != nil {
			text = []byte(*msg.MessageData)
		}
		c.writeMailbox(msg.ExchangeBufferId, text, msg.MessageTag)
		return
	}
	s.logLocked(Received{Buffer: target.ExchangeBufferId, Command: cmd, Raw: data})

	switch cmd {
	case protocol.CmdAppStart:
		c.app = true
		c.send(protocol.ConnectionInfo{
			Command:           protocol.CmdConnectionInfo,
			ClientId:          c.id,
			ServerVersion:     s.version,
			ServerProcessId:   1,
			ServerProcessName: s.processName,
		})
	case protocol.CmdGetObjectList:
		c.send(s.listLocked())
	case protocol.CmdAppEnd:
		c.close()
	case protocol.CmdRequestObjectInfo:
		b, ok := s.buffers[target.ExchangeBufferId]
		if !ok {
			c.logger.Warn("info for unknown buffer", "buffer", target.ExchangeBufferId)
			return
		}
		c.buffer = b.Name
		c.send(b.info(c.id))
	case protocol.CmdSetParameters:
		if _, ok := s.buffers[target.ExchangeBufferId]; !ok {
			return
		}
		c.buffer = target.ExchangeBufferId
		c.subscribed = true
		c.send(protocol.Simple{Command: protocol.CmdObjectConnected})
	case protocol.CmdRequestObjectData:
		var req protocol.RequestObjectData
		if err := json.Unmarshal(data, &req); err != nil {
			c.logger.Warn("invalid message", "command", cmd.String(), "error", err)
			return
		}
		b, ok := s.buffers[req.ExchangeBufferId]
		if !ok {
			return
		}
		if b.serial > c.lastSerial || req.ForceTransfer {
			c.deliver(b, b.serial > c.lastSerial)
			return
		}
		c.pending = true
	case protocol.CmdForceUpdateInProgress:
		if b, ok := s.buffers[target.ExchangeBufferId]; ok && c.pending {
			c.deliver(b, b.serial > c.lastSerial)
		}
	case protocol.CmdSetDisplayInteractive:
		var msg protocol.SetDisplayInteractive
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Warn("invalid message", "command", cmd.String(), "error", err)
			return
		}
		if b, ok := s.buffers[msg.ExchangeBufferId]; ok && b.Type == protocol.TypeDisplay {
			b.interactive = msg.DisplayInteractive == protocol.Enable
			s.pushInteractiveLocked(b)
		}
	}
}

func (c *conn) writeMailbox(name string, data []byte, tag int64) {
	s := c.srv
	b, ok := s.buffers[name]
	if !ok || b.Type != protocol.TypeMessageMailbox {
		return
	}
	if protocol.AccessKind(b.AccessType) != protocol.AccessReadWrite {
		c.logger.Warn("write to read-only mailbox", "buffer", name)
		return
	}
	if b.SizeByte > 0 && int64(len(data)) > b.SizeByte {
		data = data[:b.SizeByte]
	}
	b.Data = append([]byte(nil), data...)
	b.Tag = tag
	b.serial++
	s.wakeLocked(b)
}
