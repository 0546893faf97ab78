package client

import (
	"encoding/json"

	"github.com/milweb-dev/milweb/pkg/canvas"
	"github.com/milweb-dev/milweb/pkg/hook"
	"github.com/milweb-dev/milweb/pkg/protocol"
)

// Display is the proxy of a remote display. Frames are drawn to the
// selected surface and input on the surface is forwarded to the server.
type Display struct {
	object

	mouse    bool
	keyboard bool

	surface *canvas.Surface
	bridge  *canvas.Bridge
	dummy   hook.Token
}

func newDisplay(s *Session, url, name string) *Display {
	d := &Display{}
	d.init(s, d, protocol.TypeDisplay, name, url)
	return d
}

// MouseEnabled reports whether the server accepts mouse input.
func (d *Display) MouseEnabled() bool { return d.mouse }

// KeyboardEnabled reports whether the server accepts keyboard input.
func (d *Display) KeyboardEnabled() bool { return d.keyboard }

// Interactive reports whether this client may send input.
func (d *Display) Interactive() bool { return d.interactive }

// Surface returns the selected surface, or nil.
func (d *Display) Surface() *canvas.Surface { return d.surface }

// Bridge returns the input bridge of the selected surface, or nil.
func (d *Display) Bridge() *canvas.Bridge { return d.bridge }

// SelectSurface draws the display on s and forwards input from it. A nil
// surface deselects the current one. Selecting requires an initialized
// display without a surface.
func (d *Display) SelectSurface(s *canvas.Surface) *canvas.Bridge {
	if s == nil {
		d.DeselectSurface()
		return nil
	}
	if !d.initialized || d.surface != nil {
		return nil
	}
	if d.group == Null && !d.hooks.Has(protocol.HookUpdateWeb) {
		d.dummy = d.Hook(protocol.HookUpdateWeb, func(protocol.HookType, hook.Info, any) {}, nil)
	}
	d.surface = s
	d.bridge = canvas.NewBridge(s, d)
	s.Resize(int(d.sizeX), int(d.sizeY))
	s.Focus()
	return d.bridge
}

// DeselectSurface stops drawing on the current surface.
func (d *Display) DeselectSurface() {
	if d.dummy != 0 {
		d.Unhook(d.dummy)
		d.dummy = 0
	}
	if d.surface != nil {
		d.surface.Blur()
	}
	d.surface = nil
	d.bridge = nil
}

// SendEvent forwards ev while the display is interactive and fires the hook
// of the event type. It implements canvas.Sink.
func (d *Display) SendEvent(ev protocol.DisplayEvent) {
	d.Send(ev)
	d.hooks.Fire(ev.Type.Hook(), hook.Info{
		{Type: protocol.InfoDisplay, Value: int64(d.handle)},
		{Type: protocol.InfoMousePositionX, Value: ev.X},
		{Type: protocol.InfoMousePositionY, Value: ev.Y},
		{Type: protocol.InfoEventValue, Value: ev.Value},
		{Type: protocol.InfoCombinationKeys, Value: int64(ev.Combination)},
	})
}

// Send forwards ev while the display is interactive.
func (d *Display) Send(ev protocol.DisplayEvent) {
	d.sendIf(d.interactive, protocol.CmdSendDisplayMessage, protocol.NewDisplayMessage(d.name, ev))
}

// Zoom sets the zoom factors of the remote display.
func (d *Display) Zoom(x, y float64) {
	d.sendIf(d.interactive, protocol.CmdSendDisplayZoom, protocol.SendDisplayZoom{
		Command:          protocol.CmdSendDisplayZoom,
		ExchangeBufferId: d.name,
		DisplayData:      protocol.ZoomData{XFactor: x, YFactor: y},
	})
}

// Pan sets the pan offsets of the remote display.
func (d *Display) Pan(x, y float64) {
	d.sendIf(d.interactive, protocol.CmdSendDisplayPan, protocol.SendDisplayPan{
		Command:          protocol.CmdSendDisplayPan,
		ExchangeBufferId: d.name,
		DisplayData:      protocol.PanData{XOffset: x, YOffset: y},
	})
}

// Control changes a display setting.
func (d *Display) Control(ct protocol.ControlType, value int64) {
	switch ct {
	case protocol.ControlUpdateWeb:
		switch value {
		case protocol.Disable:
			d.enabled = false
		case protocol.Now:
			d.doJob()
		case protocol.Enable:
			d.enabled = true
			d.poll.reset(0)
		case protocol.Force:
			d.enabled = true
			d.forceUpdate()
		default:
			d.reportError(14)
		}
	case protocol.ControlInteractive:
		if value != protocol.Disable && value != protocol.Enable {
			d.reportError(14)
			return
		}
		d.interactive = value == protocol.Enable
		d.send(protocol.CmdSetDisplayInteractive, protocol.SetDisplayInteractive{
			Command:            protocol.CmdSetDisplayInteractive,
			ExchangeBufferId:   d.name,
			DisplayInteractive: value,
		})
	default:
		d.object.Control(ct, value)
	}
}

// Inquire returns a display setting.
func (d *Display) Inquire(it protocol.InquireType) int64 {
	if it == protocol.InquireInteractive {
		if d.interactive {
			return protocol.Enable
		}
		return protocol.Disable
	}
	return d.object.Inquire(it)
}

func (d *Display) onCommand(cmd protocol.Command, raw []byte) {
	switch cmd {
	case protocol.CmdObjectInfo:
		var msg protocol.ObjectInfo
		if err := json.Unmarshal(raw, &msg); err != nil {
			d.logger.Warn("invalid object info", "error", err)
			d.initialized = false
			return
		}
		if msg.BufferType != protocol.TypeDisplay {
			d.logger.Warn("unexpected buffer type", "type", int64(msg.BufferType))
		}
		d.interactive = bool(msg.DisplayInteractive)
		d.clientID = msg.ClientId
		ds := msg.DisplayStruct
		if ds == nil {
			return
		}
		d.sizeX = ds.SizeX
		d.sizeY = ds.SizeY
		d.format = ds.Format
		d.enabled = bool(ds.Enabled)
		d.initialized = true
		d.access = protocol.AccessKind(ds.AccessType)
		d.mouse = ds.AccessType&protocol.AccessWebMouseUse == protocol.AccessWebMouseUse
		d.keyboard = ds.AccessType&protocol.AccessWebKeyboardUse == protocol.AccessWebKeyboardUse
		d.subscribe()
	case protocol.CmdDisplayInteractiveState:
		var msg protocol.InteractiveState
		if err := json.Unmarshal(raw, &msg); err != nil {
			d.logger.Warn("invalid interactive state", "error", err)
			return
		}
		d.interactive = bool(msg.DisplayInteractive)
		d.hooks.Fire(protocol.HookUpdateInteractiveState, d.hookInfo())
	default:
		d.object.onCommand(cmd, raw)
	}
}

func (d *Display) doJob() {
	if d.data == nil {
		return
	}
	if d.surface != nil {
		d.surface.Draw(d.data, d.format)
	}
	d.hooks.Fire(protocol.HookUpdateWeb, d.hookInfo())
}

func (d *Display) terminate() {
	d.object.terminate()
	d.surface = nil
	d.bridge = nil
}
