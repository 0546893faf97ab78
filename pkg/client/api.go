package client

import (
	"github.com/milweb-dev/milweb/pkg/canvas"
	"github.com/milweb-dev/milweb/pkg/hook"
	"github.com/milweb-dev/milweb/pkg/protocol"
)

// The functions below address proxies by handle. Like proxy methods they
// must run on the event loop. A handle of the wrong kind is reported
// through the Error hook of the owning application.

func (s *Session) appOf(h Handle) *App {
	p, ok := s.lookup(h)
	if !ok {
		s.reportError(h, 1, "")
		return nil
	}
	a, ok := p.(*App)
	if !ok {
		s.reportError(h, 1, "")
		return nil
	}
	return a
}

// AppControl changes a setting of the application h.
func (s *Session) AppControl(h Handle, ct protocol.ControlType, value int64) {
	if a := s.appOf(h); a != nil {
		a.Control(ct, value)
	}
}

// AppInquire returns a setting of the application h.
func (s *Session) AppInquire(h Handle, it protocol.InquireType) int64 {
	if a := s.appOf(h); a != nil {
		return a.Inquire(it)
	}
	return protocol.Null
}

// AppHook registers fn on the application h.
func (s *Session) AppHook(h Handle, t protocol.HookType, fn hook.Handler, userData any) hook.Token {
	if a := s.appOf(h); a != nil {
		return a.Hook(t, fn, userData)
	}
	return 0
}

// AppInquireConnection connects a published buffer or lists them.
func (s *Session) AppInquireConnection(h Handle, it protocol.InquireType, name string) any {
	if a := s.appOf(h); a != nil {
		return a.InquireConnection(it, name)
	}
	return Null
}

// AppFree ends the application h and every proxy it owns.
func (s *Session) AppFree(h Handle) {
	if a := s.appOf(h); a != nil {
		a.onFree(true)
	}
}

// displayOf returns the display h. Unknown handles are ignored unless
// strict is set; other proxy kinds are reported.
func (s *Session) displayOf(h Handle, strict bool) *Display {
	p, ok := s.lookup(h)
	if !ok {
		if strict {
			s.reportError(h, 3, "")
		}
		return nil
	}
	d, ok := p.(*Display)
	if !ok {
		s.reportError(h, 3, "")
		return nil
	}
	return d
}

// DispControl changes a setting of the display h.
func (s *Session) DispControl(h Handle, ct protocol.ControlType, value int64) {
	if d := s.displayOf(h, false); d != nil {
		d.Control(ct, value)
	}
}

// DispInquire returns a setting of the display h.
func (s *Session) DispInquire(h Handle, it protocol.InquireType) int64 {
	if d := s.displayOf(h, true); d != nil {
		return d.Inquire(it)
	}
	return protocol.Null
}

// DispHook registers fn on the display h.
func (s *Session) DispHook(h Handle, t protocol.HookType, fn hook.Handler, userData any) hook.Token {
	if d := s.displayOf(h, true); d != nil {
		return d.Hook(t, fn, userData)
	}
	return 0
}

// DispMessage forwards an input event to the display h.
func (s *Session) DispMessage(h Handle, ev protocol.DisplayEvent) {
	if d := s.displayOf(h, false); d != nil {
		d.Send(ev)
	}
}

// DispZoom sets the zoom factors of the display h.
func (s *Session) DispZoom(h Handle, x, y float64) {
	if d := s.displayOf(h, false); d != nil {
		d.Zoom(x, y)
	}
}

// DispPan sets the pan offsets of the display h.
func (s *Session) DispPan(h Handle, x, y float64) {
	if d := s.displayOf(h, false); d != nil {
		d.Pan(x, y)
	}
}

// DispSelectSurface draws the display h on target, which must be a
// *canvas.Surface. A nil target deselects.
func (s *Session) DispSelectSurface(h Handle, target any) *canvas.Bridge {
	d := s.displayOf(h, false)
	if d == nil {
		return nil
	}
	if target == nil {
		d.DeselectSurface()
		return nil
	}
	surface, ok := target.(*canvas.Surface)
	if !ok || surface == nil {
		s.reportError(h, 4, "")
		return nil
	}
	return d.SelectSurface(surface)
}

// BufInquire returns a setting of the image or array h.
func (s *Session) BufInquire(h Handle, it protocol.InquireType) int64 {
	p, ok := s.lookup(h)
	if ok {
		switch p.(type) {
		case *Image, *Array:
			return p.Inquire(it)
		}
	}
	s.reportError(h, 5, "")
	return protocol.Null
}

// BufGet returns the payload of h.
func (s *Session) BufGet(h Handle) []byte {
	p, ok := s.lookup(h)
	if !ok {
		s.reportError(h, 6, "")
		return nil
	}
	return p.Data()
}

// ObjHook registers fn on the proxy h.
func (s *Session) ObjHook(h Handle, t protocol.HookType, fn hook.Handler, userData any) hook.Token {
	p, ok := s.lookup(h)
	if !ok {
		s.reportError(h, 6, "")
		return 0
	}
	return p.Hook(t, fn, userData)
}

// ObjUnhook removes the registration tok from the proxy h.
func (s *Session) ObjUnhook(h Handle, tok hook.Token) {
	p, ok := s.lookup(h)
	if !ok {
		s.reportError(h, 6, "")
		return
	}
	p.Unhook(tok)
}

// ObjControl changes a setting of the proxy h.
func (s *Session) ObjControl(h Handle, ct protocol.ControlType, value int64) {
	p, ok := s.lookup(h)
	if !ok {
		s.reportError(h, 6, "")
		return
	}
	p.Control(ct, value)
}

// ObjInquire returns a setting of the proxy h. Names, member lists and
// payloads are returned as their own types.
func (s *Session) ObjInquire(h Handle, it protocol.InquireType) any {
	p, ok := s.lookup(h)
	if !ok {
		s.reportError(h, 6, "")
		return protocol.Null
	}
	switch it {
	case protocol.InquireObjectName:
		return p.Name()
	case protocol.InquireComponentIDList:
		if g, ok := p.(*Group); ok {
			return g.Members()
		}
	case protocol.InquireImageHostAddress:
		return p.Data()
	}
	return p.Inquire(it)
}

// MessageRead returns the last message of the mailbox h.
func (s *Session) MessageRead(h Handle) (MessageData, bool) {
	p, ok := s.lookup(h)
	if !ok {
		return MessageData{}, false
	}
	m, ok := p.(*Message)
	if !ok {
		s.reportError(h, 7, "")
		return MessageData{}, false
	}
	return m.Read()
}

// MessageWrite sends the first length bytes, or characters of a string,
// of data to the mailbox h.
func (s *Session) MessageWrite(h Handle, data any, length int, tag, flag int64) {
	p, _ := s.lookup(h)
	m, ok := p.(*Message)
	if !ok {
		s.reportError(h, 7, "")
		return
	}
	switch v := data.(type) {
	case []byte:
		if length >= 0 && length < len(v) {
			data = v[:length]
		}
	case string:
		if r := []rune(v); length >= 0 && length < len(r) {
			data = string(r[:length])
		}
	}
	m.Write(data, tag, flag)
}

// HookInfo returns the entry it of info.
func (s *Session) HookInfo(info hook.Info, it protocol.InfoType) any {
	if info == nil {
		s.reportError(Null, 2, "")
		return nil
	}
	v, _ := info.Get(it)
	return v
}
