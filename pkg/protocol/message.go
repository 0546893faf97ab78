package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMissingCommand is returned when a text frame has no Command field.
var ErrMissingCommand = errors.New("protocol: message has no Command")

// Envelope is the part shared by every JSON message.
type Envelope struct {
	Command Command `json:"Command"`
}

// Flag is a boolean that the server may encode as a JSON boolean or as a
// number, where any non-zero number is true.
type Flag bool

// UnmarshalJSON implements json.Unmarshaler.
func (f *Flag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "true":
		*f = true
		return nil
	case "false", "null":
		*f = false
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("protocol: invalid flag %s", data)
	}
	*f = n != 0
	return nil
}

// Decode returns the command of a JSON text frame.
// An unknown command is not an error; callers ignore what they do not handle.
func Decode(data []byte) (Command, error) {
	var env struct {
		Command *Command `json:"Command"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return 0, err
	}
	if env.Command == nil {
		return 0, ErrMissingCommand
	}
	return *env.Command, nil
}

// Encode serializes an outgoing message.
func Encode(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

// =============================================================================
// Client → Server
// =============================================================================

// AppStart opens an application connection.
type AppStart struct {
	Command         Command `json:"Command"`
	ClientVersion   int64   `json:"ClientVersion"`
	ApplicationType int64   `json:"ApplicationType"`
}

// NewAppStart returns the APP_START message for the given client version.
func NewAppStart(version int64) AppStart {
	return AppStart{Command: CmdAppStart, ClientVersion: version, ApplicationType: ApplicationWeb}
}

// Simple carries only a command (APP_END, GET_OBJECT_LIST).
type Simple struct {
	Command Command `json:"Command"`
}

// BufferRequest addresses one exchange buffer (REQUEST_OBJECT_INFO,
// FORCE_UPDATE_IN_PROGRESS).
type BufferRequest struct {
	Command          Command `json:"Command"`
	ExchangeBufferId string  `json:"ExchangeBufferId"`
}

// SetParameters binds the connection to an exchange buffer.
type SetParameters struct {
	Command          Command `json:"Command"`
	ExchangeBufferId string  `json:"ExchangeBufferId"`
	WaitForUpdate    bool    `json:"WaitForUpdate"`
	ClientName       string  `json:"ClientName"`
	ClientGroupId    int64   `json:"ClientGroupId"`
	ApplicationType  int64   `json:"ApplicationType"`
}

// RequestObjectData asks for the next data frame of a buffer.
type RequestObjectData struct {
	Command          Command `json:"Command"`
	ExchangeBufferId string  `json:"ExchangeBufferId"`
	ForceTransfer    bool    `json:"ForceTransfer"`
	GetAsync         bool    `json:"GetAsync"`
	RequestId        int64   `json:"RequestId"`
}

// DisplayMessageData is the payload of SEND_DISPLAY_MESSAGE.
type DisplayMessageData struct {
	EventType       EventType   `json:"EventType"`
	MousePositionX  float64     `json:"MousePositionX"`
	MousePositionY  float64     `json:"MousePositionY"`
	EventValue      float64     `json:"EventValue"`
	CombinationKeys Combination `json:"CombinationKeys"`
}

// SendDisplayMessage forwards one input event to a display.
type SendDisplayMessage struct {
	Command          Command            `json:"Command"`
	ExchangeBufferId string             `json:"ExchangeBufferId"`
	DisplayData      DisplayMessageData `json:"DisplayData"`
}

// NewDisplayMessage builds the SEND_DISPLAY_MESSAGE for ev.
func NewDisplayMessage(buffer string, ev DisplayEvent) SendDisplayMessage {
	return SendDisplayMessage{
		Command:          CmdSendDisplayMessage,
		ExchangeBufferId: buffer,
		DisplayData: DisplayMessageData{
			EventType:       ev.Type,
			MousePositionX:  ev.X,
			MousePositionY:  ev.Y,
			EventValue:      ev.Value,
			CombinationKeys: ev.Combination,
		},
	}
}

// ZoomData is the payload of SEND_DISPLAY_ZOOM.
type ZoomData struct {
	XFactor float64 `json:"XFactor"`
	YFactor float64 `json:"YFactor"`
}

// SendDisplayZoom changes the zoom of a display.
type SendDisplayZoom struct {
	Command          Command  `json:"Command"`
	ExchangeBufferId string   `json:"ExchangeBufferId"`
	DisplayData      ZoomData `json:"DisplayData"`
}

// PanData is the payload of SEND_DISPLAY_PAN.
type PanData struct {
	XOffset float64 `json:"XOffset"`
	YOffset float64 `json:"YOffset"`
}

// SendDisplayPan changes the pan offset of a display.
type SendDisplayPan struct {
	Command          Command `json:"Command"`
	ExchangeBufferId string  `json:"ExchangeBufferId"`
	DisplayData      PanData `json:"DisplayData"`
}

// SetDisplayInteractive requests or releases interactive ownership.
type SetDisplayInteractive struct {
	Command            Command `json:"Command"`
	ExchangeBufferId   string  `json:"ExchangeBufferId"`
	DisplayInteractive int64   `json:"DisplayInteractive"`
}

// SendMessage writes to a message mailbox. When MessageBinary is true the
// payload follows in a binary frame; otherwise it is MessageData.
type SendMessage struct {
	Command          Command `json:"Command"`
	ExchangeBufferId string  `json:"ExchangeBufferId"`
	MessageTag       int64   `json:"MessageTag"`
	MessageData      *string `json:"MessageData,omitempty"`
	OperationFlag    int64   `json:"OperationFlag"`
	MessageBinary    bool    `json:"MessageBinary"`
}

// =============================================================================
// Server → Client
// =============================================================================

// ConnectionInfo answers APP_START.
type ConnectionInfo struct {
	Command           Command `json:"Command"`
	ClientId          int64   `json:"ClientId"`
	ServerVersion     int64   `json:"ServerVersion"`
	ServerProcessId   int64   `json:"ServerProcessId"`
	ServerProcessName string  `json:"ServerProcessName"`
}

// BufferEntry describes one published object in an object list.
type BufferEntry struct {
	ExchangeBufferId string     `json:"ExchangeBufferId"`
	ExchangeGroupId  string     `json:"ExchangeGroupId,omitempty"`
	BufferType       ObjectType `json:"BufferType"`
}

// ObjectList is sent for OBJECT_LIST and REFRESH_LIST.
type ObjectList struct {
	Command      Command       `json:"Command"`
	NumBufInList int           `json:"NumBufInList"`
	BufferList   []BufferEntry `json:"BufferList"`
}

// DisplayStruct is the display part of OBJECT_INFO.
type DisplayStruct struct {
	SizeX      int64       `json:"SizeX"`
	SizeY      int64       `json:"SizeY"`
	Format     PixelFormat `json:"Format"`
	Enabled    Flag        `json:"Enabled"`
	AccessType int64       `json:"AccessType"`
}

// ImageStruct is the image part of OBJECT_INFO.
type ImageStruct struct {
	SizeX      int64       `json:"SizeX"`
	SizeY      int64       `json:"SizeY"`
	Format     PixelFormat `json:"Format"`
	AccessType int64       `json:"AccessType"`
	DataType   int64       `json:"DataType"`
}

// ArrayStruct is the array part of OBJECT_INFO.
type ArrayStruct struct {
	SizeX      int64 `json:"SizeX"`
	SizeY      int64 `json:"SizeY"`
	AccessType int64 `json:"AccessType"`
	DataType   int64 `json:"DataType"`
}

// MessageStruct is the mailbox part of OBJECT_INFO.
type MessageStruct struct {
	SizeByte   int64 `json:"SizeByte"`
	AccessType int64 `json:"AccessType"`
	DataType   int64 `json:"DataType"`
	MessageTag int64 `json:"MessageTag"`
}

// ObjectInfo describes a buffer. Exactly one of the struct pointers is set,
// according to BufferType.
type ObjectInfo struct {
	Command            Command        `json:"Command"`
	BufferType         ObjectType     `json:"BufferType"`
	ClientId           int64          `json:"ClientId"`
	DisplayInteractive Flag           `json:"DisplayInteractive"`
	DisplayStruct      *DisplayStruct `json:"DisplayStruct,omitempty"`
	ImageStruct        *ImageStruct   `json:"ImageStruct,omitempty"`
	ArrayStruct        *ArrayStruct   `json:"ArrayStruct,omitempty"`
	MessageStruct      *MessageStruct `json:"MessageStruct,omitempty"`
}

// BufferStruct is the per-frame metadata of OBJECT_DATA.
type BufferStruct struct {
	Name               string     `json:"Name"`
	Type               ObjectType `json:"Type"`
	Changed            Flag       `json:"Changed"`
	SerialCounter      int64      `json:"SerialCounter"`
	GroupCounter       int64      `json:"GroupCounter"`
	MessageTag         int64      `json:"MessageTag"`
	MessageType        int64      `json:"MessageType"`
	DisplayInteractive Flag       `json:"DisplayInteractive"`
}

// ObjectData announces the payload frame that follows it.
type ObjectData struct {
	Command        Command       `json:"Command"`
	BufferDataSize int64         `json:"BufferDataSize"`
	BufferStruct   *BufferStruct `json:"BufferStruct,omitempty"`
}

// InteractiveState reports a change of interactive ownership.
type InteractiveState struct {
	Command            Command    `json:"Command"`
	BufferType         ObjectType `json:"BufferType"`
	DisplayInteractive Flag       `json:"DisplayInteractive"`
}
