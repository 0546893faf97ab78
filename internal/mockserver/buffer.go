package mockserver

import (
	"github.com/milweb-dev/milweb/pkg/protocol"
)

// Buffer is a published object of the mock server.
type Buffer struct {
	Name       string
	Group      string
	Type       protocol.ObjectType
	Format     protocol.PixelFormat
	Width      int64
	Height     int64
	AccessType int64

	// SizeByte is the mailbox capacity.
	SizeByte int64

	// Text makes a mailbox deliver its payload in text frames.
	Text bool

	Tag  int64
	Data []byte

	serial       int64
	groupCounter int64
	interactive  bool
}

// Display returns an RGB32 display buffer.
func Display(name string, width, height int64) Buffer {
	return Buffer{
		Name:        name,
		Type:        protocol.TypeDisplay,
		Format:      protocol.FormatRGB32,
		Width:       width,
		Height:      height,
		AccessType:  protocol.AccessReadWrite | protocol.AccessWebMouseUse | protocol.AccessWebKeyboardUse,
		interactive: true,
	}
}

// Image returns a Mono8 image buffer.
func Image(name, group string, width, height int64) Buffer {
	return Buffer{
		Name:   name,
		Group:  group,
		Type:   protocol.TypeImage,
		Format: protocol.FormatMono8,
		Width:  width,
		Height: height,
	}
}

// Array returns an array buffer.
func Array(name, group string, width, height int64) Buffer {
	return Buffer{Name: name, Group: group, Type: protocol.TypeArray, Width: width, Height: height}
}

// Mailbox returns a message mailbox. Writable mailboxes accept messages
// from clients.
func Mailbox(name string, size int64, writable, text bool) Buffer {
	access := protocol.AccessReadOnly
	if writable {
		access = protocol.AccessReadWrite
	}
	return Buffer{
		Name:       name,
		Type:       protocol.TypeMessageMailbox,
		SizeByte:   size,
		AccessType: access,
		Text:       text,
	}
}

func (b *Buffer) entry() protocol.BufferEntry {
	return protocol.BufferEntry{
		ExchangeBufferId: b.Name,
		ExchangeGroupId:  b.Group,
		BufferType:       b.Type,
	}
}

func (b *Buffer) info(clientID int64) protocol.ObjectInfo {
	info := protocol.ObjectInfo{
		Command:            protocol.CmdObjectInfo,
		BufferType:         b.Type,
		ClientId:           clientID,
		DisplayInteractive: protocol.Flag(b.interactive),
	}
	switch b.Type {
	case protocol.TypeDisplay:
		info.DisplayStruct = &protocol.DisplayStruct{
			SizeX:      b.Width,
			SizeY:      b.Height,
			Format:     b.Format,
			Enabled:    true,
			AccessType: b.AccessType,
		}
	case protocol.TypeImage:
		info.ImageStruct = &protocol.ImageStruct{
			SizeX:      b.Width,
			SizeY:      b.Height,
			Format:     b.Format,
			AccessType: b.AccessType,
		}
	case protocol.TypeArray:
		info.ArrayStruct = &protocol.ArrayStruct{
			SizeX:      b.Width,
			SizeY:      b.Height,
			AccessType: b.AccessType,
		}
	case protocol.TypeMessageMailbox:
		info.MessageStruct = &protocol.MessageStruct{
			SizeByte:   b.SizeByte,
			AccessType: b.AccessType,
			MessageTag: b.Tag,
		}
	}
	return info
}

func (b *Buffer) objectData(changed bool) protocol.ObjectData {
	bs := &protocol.BufferStruct{
		Name:               b.Name,
		Type:               b.Type,
		Changed:            protocol.Flag(changed),
		SerialCounter:      b.serial,
		GroupCounter:       b.groupCounter,
		MessageTag:         b.Tag,
		DisplayInteractive: protocol.Flag(b.interactive),
	}
	if b.Text {
		bs.MessageType = protocol.MailboxModeWebText
	}
	return protocol.ObjectData{
		Command:        protocol.CmdObjectData,
		BufferDataSize: int64(len(b.Data)),
		BufferStruct:   bs,
	}
}

// Pattern returns an RGB32 test frame whose gradient moves with frame.
func Pattern(width, height, frame int) []byte {
	data := make([]byte, width*height*4)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			o := (y*width + x) * 4
			data[o] = byte(x + frame)
			data[o+1] = byte(y + frame)
			data[o+2] = byte(frame)
			data[o+3] = 255
		}
	}
	return data
}
