package hook

import "github.com/milweb-dev/milweb/pkg/protocol"

// Entry is one typed value of hook information.
type Entry struct {
	Type  protocol.InfoType
	Value any
}

// Info is the information passed to a handler, in a fixed order.
type Info []Entry

// ObjectInfo returns the info carried by most hooks: the firing object.
func ObjectInfo(h int64) Info {
	return Info{{Type: protocol.InfoObjectID, Value: h}}
}

// Get returns the first value of type t.
func (in Info) Get(t protocol.InfoType) (any, bool) {
	for _, e := range in {
		if e.Type == t {
			return e.Value, true
		}
	}
	return nil, false
}

// Int returns the value of type t as an int64.
func (in Info) Int(t protocol.InfoType) (int64, bool) {
	v, ok := in.Get(t)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}

// Float returns the value of type t as a float64.
func (in Info) Float(t protocol.InfoType) (float64, bool) {
	v, ok := in.Get(t)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

// String returns the value of type t as a string.
func (in Info) String(t protocol.InfoType) (string, bool) {
	v, ok := in.Get(t)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
