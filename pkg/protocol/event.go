package protocol

// EventType identifies a display input event.
type EventType int64

const (
	EventLeftButtonDown   EventType = 56
	EventRightButtonDown  EventType = 57
	EventLeftButtonUp     EventType = 58
	EventRightButtonUp    EventType = 59
	EventMouseMove        EventType = 64
	EventMouseWheel       EventType = 65
	EventMiddleButtonDown EventType = 66
	EventMiddleButtonUp   EventType = 67
	EventKeyDown          EventType = 68
	EventKeyUp            EventType = 69
	EventMouseLeave       EventType = 85
)

// String returns the string representation of the event type.
func (et EventType) String() string {
	switch et {
	case EventLeftButtonDown:
		return "LeftButtonDown"
	case EventRightButtonDown:
		return "RightButtonDown"
	case EventLeftButtonUp:
		return "LeftButtonUp"
	case EventRightButtonUp:
		return "RightButtonUp"
	case EventMouseMove:
		return "MouseMove"
	case EventMouseWheel:
		return "MouseWheel"
	case EventMiddleButtonDown:
		return "MiddleButtonDown"
	case EventMiddleButtonUp:
		return "MiddleButtonUp"
	case EventKeyDown:
		return "KeyDown"
	case EventKeyUp:
		return "KeyUp"
	case EventMouseLeave:
		return "MouseLeave"
	default:
		return "Unknown"
	}
}

// Valid reports whether et is a known display event.
func (et EventType) Valid() bool {
	return et.String() != "Unknown"
}

// Hook returns the hook type fired when this event is forwarded.
func (et EventType) Hook() HookType {
	return HookType(et)
}

// Combination is the button and modifier-key bitmask of a display event.
type Combination int64

const (
	CombShift        Combination = 0x00010000
	CombCtrl         Combination = 0x00020000
	CombAlt          Combination = 0x00040000
	CombLeftButton   Combination = 0x00080000
	CombMiddleButton Combination = 0x00100000
	CombRightButton  Combination = 0x00200000
	CombWin          Combination = 0x00400000
)

// Has returns true if every bit of flag is set.
func (c Combination) Has(flag Combination) bool {
	return c&flag == flag
}

// DisplayEvent is one input event forwarded to a remote display.
type DisplayEvent struct {
	Type        EventType
	X           float64
	Y           float64
	Value       float64
	Combination Combination
}
