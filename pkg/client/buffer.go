package client

import (
	"encoding/json"

	"github.com/milweb-dev/milweb/pkg/protocol"
)

// Image is the proxy of a remote image buffer.
type Image struct {
	object
}

func newImage(s *Session, url, name string) *Image {
	im := &Image{}
	im.init(s, im, protocol.TypeImage, name, url)
	return im
}

func (im *Image) onCommand(cmd protocol.Command, raw []byte) {
	if cmd != protocol.CmdObjectInfo {
		im.object.onCommand(cmd, raw)
		return
	}
	var msg protocol.ObjectInfo
	if err := json.Unmarshal(raw, &msg); err != nil {
		im.logger.Warn("invalid object info", "error", err)
		im.initialized = false
		return
	}
	im.clientID = msg.ClientId
	is := msg.ImageStruct
	if is == nil {
		return
	}
	im.sizeX = is.SizeX
	im.sizeY = is.SizeY
	im.format = is.Format
	im.access = is.AccessType
	im.dataType = is.DataType
	im.initialized = true
	im.subscribe()
}

// Array is the proxy of a remote array buffer.
type Array struct {
	object
}

func newArray(s *Session, url, name string) *Array {
	ar := &Array{}
	ar.init(s, ar, protocol.TypeArray, name, url)
	return ar
}

func (ar *Array) onCommand(cmd protocol.Command, raw []byte) {
	if cmd != protocol.CmdObjectInfo {
		ar.object.onCommand(cmd, raw)
		return
	}
	var msg protocol.ObjectInfo
	if err := json.Unmarshal(raw, &msg); err != nil {
		ar.logger.Warn("invalid object info", "error", err)
		ar.initialized = false
		return
	}
	ar.clientID = msg.ClientId
	as := msg.ArrayStruct
	if as == nil {
		return
	}
	ar.sizeX = as.SizeX
	ar.sizeY = as.SizeY
	ar.access = as.AccessType
	ar.dataType = as.DataType
	ar.initialized = true
	ar.subscribe()
}

// fireUpdate fires UpdateWeb for ungrouped buffers holding data. Grouped
// buffers are released by their group.
func (o *object) fireUpdate() {
	if o.data != nil && o.group == Null {
		o.hooks.Fire(protocol.HookUpdateWeb, o.hookInfo())
	}
}

func (im *Image) doJob() { im.fireUpdate() }

func (ar *Array) doJob() { ar.fireUpdate() }
