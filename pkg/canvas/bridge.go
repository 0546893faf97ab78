package canvas

import (
	"fmt"
	"math"

	"github.com/milweb-dev/milweb/pkg/protocol"
)

// Sink receives the display events produced by a Bridge.
type Sink interface {
	MouseEnabled() bool
	KeyboardEnabled() bool
	SendEvent(ev protocol.DisplayEvent)
}

// Point is a position in client coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Modifiers is the state of the modifier keys during an input event.
type Modifiers struct {
	Alt   bool `json:"alt,omitempty"`
	Ctrl  bool `json:"ctrl,omitempty"`
	Shift bool `json:"shift,omitempty"`
	Meta  bool `json:"meta,omitempty"`
}

// Combination returns the modifier bits of m.
func (m Modifiers) Combination() protocol.Combination {
	var c protocol.Combination
	if m.Alt {
		c |= protocol.CombAlt
	}
	if m.Ctrl {
		c |= protocol.CombCtrl
	}
	if m.Shift {
		c |= protocol.CombShift
	}
	if m.Meta {
		c |= protocol.CombWin
	}
	return c
}

// Mouse buttons as numbered by pointer events.
const (
	ButtonLeft   = 0
	ButtonMiddle = 1
	ButtonRight  = 2
)

const defaultValue = float64(protocol.Default)

// Bridge translates surface input into display events.
// A Bridge is not safe for concurrent use; drive it from the goroutine that
// owns its sink.
type Bridge struct {
	surface *Surface
	sink    Sink

	panning bool
	zooming bool

	lastTouch     Point
	pinchCenter   Point
	startDistance float64
	ratio         float64
}

// NewBridge creates a bridge forwarding input on s to sink.
func NewBridge(s *Surface, sink Sink) *Bridge {
	return &Bridge{surface: s, sink: sink, ratio: 1}
}

// Surface returns the surface the bridge listens on.
func (b *Bridge) Surface() *Surface {
	return b.surface
}

func (b *Bridge) local(p Point) (float64, float64) {
	ox, oy := b.surface.origin()
	return math.Round(p.X - ox), math.Round(p.Y - oy)
}

func (b *Bridge) emit(t protocol.EventType, x, y, value float64, c protocol.Combination) {
	b.sink.SendEvent(protocol.DisplayEvent{Type: t, X: x, Y: y, Value: value, Combination: c})
}

// buttonCombination maps a button number to its combination bit. Button 1
// reports the left button, matching what servers have always received.
func buttonCombination(button int) protocol.Combination {
	switch button {
	case 1:
		return protocol.CombLeftButton
	case 2:
		return protocol.CombRightButton
	default:
		return protocol.CombMiddleButton
	}
}

// MouseDown handles a button press.
func (b *Bridge) MouseDown(button int, p Point, mods Modifiers) {
	b.surface.Focus()
	b.mouseButton(button, p, mods, protocol.EventLeftButtonDown, protocol.EventRightButtonDown, protocol.EventMiddleButtonDown)
}

// MouseUp handles a button release.
func (b *Bridge) MouseUp(button int, p Point, mods Modifiers) {
	b.mouseButton(button, p, mods, protocol.EventLeftButtonUp, protocol.EventRightButtonUp, protocol.EventMiddleButtonUp)
}

func (b *Bridge) mouseButton(button int, p Point, mods Modifiers, left, right, middle protocol.EventType) {
	if button < ButtonLeft || button > ButtonRight {
		return
	}
	t := middle
	switch button {
	case ButtonLeft:
		t = left
	case ButtonRight:
		t = right
	}
	if !b.sink.MouseEnabled() {
		return
	}
	x, y := b.local(p)
	b.emit(t, x, y, defaultValue, buttonCombination(button)|mods.Combination())
}

// dragCombination maps the pressed-buttons mask of a move to its
// combination bit. Only single-button drags are forwarded.
func dragCombination(buttons int) (protocol.Combination, bool) {
	switch buttons {
	case 1:
		return protocol.CombLeftButton, true
	case 2:
		return protocol.CombRightButton, true
	case 4:
		return protocol.CombMiddleButton, true
	}
	return 0, false
}

// MouseMove handles pointer motion with buttons held.
func (b *Bridge) MouseMove(buttons int, p Point, mods Modifiers) {
	b.drag(protocol.EventMouseMove, buttons, p, mods)
}

// MouseLeave handles the pointer leaving the surface with buttons held.
func (b *Bridge) MouseLeave(buttons int, p Point, mods Modifiers) {
	b.drag(protocol.EventMouseLeave, buttons, p, mods)
}

func (b *Bridge) drag(t protocol.EventType, buttons int, p Point, mods Modifiers) {
	c, ok := dragCombination(buttons)
	if !ok {
		return
	}
	x, y := b.local(p)
	b.emit(t, x, y, defaultValue, c|mods.Combination())
}

// Wheel handles a wheel step. Scrolling up (negative deltaY) sends +1.
func (b *Bridge) Wheel(deltaY float64, p Point, mods Modifiers) {
	if !b.sink.MouseEnabled() {
		return
	}
	value := -1.0
	if deltaY < 0 {
		value = 1
	}
	x, y := b.local(p)
	b.emit(protocol.EventMouseWheel, x, y, value, mods.Combination())
}

// KeyDown handles a key press.
func (b *Bridge) KeyDown(keyCode int, mods Modifiers) {
	b.key(protocol.EventKeyDown, keyCode, mods)
}

// KeyUp handles a key release.
func (b *Bridge) KeyUp(keyCode int, mods Modifiers) {
	b.key(protocol.EventKeyUp, keyCode, mods)
}

func (b *Bridge) key(t protocol.EventType, keyCode int, mods Modifiers) {
	if !b.sink.KeyboardEnabled() {
		return
	}
	b.emit(t, defaultValue, defaultValue, float64(keyCode), mods.Combination())
}

// TouchStart begins a one-finger drag or a two-finger pinch.
func (b *Bridge) TouchStart(touches []Point) {
	b.panning = false
	b.zooming = false
	b.surface.Focus()

	switch len(touches) {
	case 1:
		b.panning = true
		x, y := b.local(touches[0])
		b.lastTouch = Point{x, y}
		if b.sink.MouseEnabled() {
			b.emit(protocol.EventLeftButtonDown, x, y, defaultValue, protocol.CombLeftButton)
		}
	case 2:
		b.zooming = true
		x0, y0 := b.local(touches[0])
		x1, y1 := b.local(touches[1])
		b.pinchCenter = Point{(x0 + x1) / 2, (y0 + y1) / 2}
		b.startDistance = math.Hypot(x1-x0, y1-y0)
		b.ratio = 1
	}
}

// TouchMove continues the current gesture.
func (b *Bridge) TouchMove(touches []Point) {
	b.surface.Focus()
	switch {
	case b.panning && len(touches) >= 1:
		x, y := b.local(touches[0])
		b.lastTouch = Point{x, y}
		if b.sink.MouseEnabled() {
			b.emit(protocol.EventMouseMove, x, y, defaultValue, protocol.CombLeftButton)
		}
	case b.zooming && len(touches) >= 2:
		x0, y0 := b.local(touches[0])
		x1, y1 := b.local(touches[1])
		b.pinchCenter = Point{(x0 + x1) / 2, (y0 + y1) / 2}
		if b.startDistance > 0 {
			b.ratio = math.Hypot(x1-x0, y1-y0) / b.startDistance
		}
	}
}

// TouchEnd ends the current gesture. A drag releases the left button at
// the remaining touch, or at the last known position when no touch is
// left. A pinch sends one wheel event at the pinch center whose value is
// the zoom ratio minus one.
func (b *Bridge) TouchEnd(touches []Point) {
	b.surface.Focus()
	switch {
	case b.panning:
		b.panning = false
		x, y := b.lastTouch.X, b.lastTouch.Y
		if len(touches) > 0 {
			x, y = b.local(touches[0])
		}
		if b.sink.MouseEnabled() {
			b.emit(protocol.EventLeftButtonUp, x, y, defaultValue, protocol.CombLeftButton)
		}
	case b.zooming:
		b.zooming = false
		if b.sink.MouseEnabled() {
			b.emit(protocol.EventMouseWheel, b.pinchCenter.X, b.pinchCenter.Y, b.ratio-1, protocol.Combination(protocol.Default))
		}
	}
}

// TouchCancel abandons the current gesture without sending anything.
func (b *Bridge) TouchCancel() {
	b.surface.Focus()
	b.panning = false
	b.zooming = false
}

// Input is one recorded input event, as replayed by Apply.
type Input struct {
	// Kind is one of mousedown, mouseup, mousemove, mouseleave, wheel,
	// keydown, keyup, touchstart, touchmove, touchend, touchcancel.
	Kind    string  `json:"kind"`
	Button  int     `json:"button,omitempty"`
	Buttons int     `json:"buttons,omitempty"`
	X       float64 `json:"x,omitempty"`
	Y       float64 `json:"y,omitempty"`
	DeltaY  float64 `json:"deltaY,omitempty"`
	KeyCode int     `json:"keyCode,omitempty"`
	Touches []Point `json:"touches,omitempty"`
	Modifiers
}

// Apply feeds a recorded input event to the bridge.
func (b *Bridge) Apply(in Input) error {
	p := Point{in.X, in.Y}
	switch in.Kind {
	case "mousedown":
		b.MouseDown(in.Button, p, in.Modifiers)
	case "mouseup":
		b.MouseUp(in.Button, p, in.Modifiers)
	case "mousemove":
		b.MouseMove(in.Buttons, p, in.Modifiers)
	case "mouseleave":
		b.MouseLeave(in.Buttons, p, in.Modifiers)
	case "wheel":
		b.Wheel(in.DeltaY, p, in.Modifiers)
	case "keydown":
		b.KeyDown(in.KeyCode, in.Modifiers)
	case "keyup":
		b.KeyUp(in.KeyCode, in.Modifiers)
	case "touchstart":
		b.TouchStart(in.Touches)
	case "touchmove":
		b.TouchMove(in.Touches)
	case "touchend":
		b.TouchEnd(in.Touches)
	case "touchcancel":
		b.TouchCancel()
	default:
		return fmt.Errorf("canvas: unknown input kind %q", in.Kind)
	}
	return nil
}
