package client

import (
	"encoding/json"
	"unicode/utf8"

	"github.com/milweb-dev/milweb/pkg/protocol"
)

// MessageData is one message read from a mailbox.
type MessageData struct {
	Data []byte
	// Length is the byte count of binary messages and the character
	// count of text messages.
	Length int
	Tag    int64
	Text   bool
}

// Message is the proxy of a remote message mailbox.
type Message struct {
	object
}

func newMessage(s *Session, url, name string) *Message {
	m := &Message{}
	m.init(s, m, protocol.TypeMessageMailbox, name, url)
	return m
}

// Read returns the last message received.
func (m *Message) Read() (MessageData, bool) {
	if m.data == nil {
		return MessageData{}, false
	}
	md := MessageData{Data: m.data, Length: len(m.data), Tag: m.messageTag, Text: m.text}
	if m.text {
		md.Length = utf8.RuneCount(m.data)
	}
	return md, true
}

// Tag returns the tag of the last message.
func (m *Message) Tag() int64 { return m.messageTag }

// Writable reports whether the mailbox accepts writes.
func (m *Message) Writable() bool { return m.access == protocol.AccessReadWrite }

// Write sends data, a []byte or a string, to the mailbox.
func (m *Message) Write(data any, tag, flag int64) {
	if !m.Writable() {
		m.reportError(8)
		return
	}
	switch v := data.(type) {
	case []byte:
		m.writeBinary(v, tag, flag)
	case string:
		m.sendIf(true, protocol.CmdSendMessage, protocol.SendMessage{
			Command:          protocol.CmdSendMessage,
			ExchangeBufferId: m.name,
			MessageTag:       tag,
			MessageData:      &v,
			OperationFlag:    flag,
		})
	default:
		m.reportError(9)
	}
}

// writeBinary sends the message header followed by the payload frame.
func (m *Message) writeBinary(data []byte, tag, flag int64) {
	if m.conn != nil {
		ok := m.write(protocol.CmdSendMessage, TextMessage, protocol.SendMessage{
			Command:          protocol.CmdSendMessage,
			ExchangeBufferId: m.name,
			MessageTag:       tag,
			OperationFlag:    flag,
			MessageBinary:    true,
		})
		if ok {
			if err := m.conn.WriteMessage(BinaryMessage, data); err != nil {
				m.logger.Warn("write failed", "command", protocol.CmdSendMessage.String(), "error", err)
			}
		}
	}
	if !m.connected {
		m.reportError(15)
	}
}

// Inquire returns a mailbox setting.
func (m *Message) Inquire(it protocol.InquireType) int64 {
	if it == protocol.InquireMessageLength {
		return m.sizeByte
	}
	return m.object.Inquire(it)
}

func (m *Message) onCommand(cmd protocol.Command, raw []byte) {
	if cmd != protocol.CmdObjectInfo {
		m.object.onCommand(cmd, raw)
		return
	}
	var msg protocol.ObjectInfo
	if err := json.Unmarshal(raw, &msg); err != nil {
		m.logger.Warn("invalid object info", "error", err)
		m.initialized = false
		return
	}
	m.clientID = msg.ClientId
	if ms := msg.MessageStruct; ms != nil {
		m.sizeByte = ms.SizeByte
		m.access = ms.AccessType
		m.dataType = ms.DataType
		m.messageTag = ms.MessageTag
		m.initialized = true
	}
	if m.initialized {
		m.subscribe()
	}
}

func (m *Message) doJob() { m.fireUpdate() }
