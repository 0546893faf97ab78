// Package hook implements the per-object observer registry.
//
// Each registration returns a Token; removal requires that exact token, so
// registering the same function twice yields two independent hooks.
// Handlers of one hook type run in registration order.
package hook

import "github.com/milweb-dev/milweb/pkg/protocol"

// Handler is called when a hook fires. userData is the value given at
// registration.
type Handler func(t protocol.HookType, info Info, userData any)

// Token identifies one registration.
type Token uint64

type entry struct {
	token    Token
	typ      protocol.HookType
	fn       Handler
	userData any
}

// Registry holds the hooks of one object. It is not safe for concurrent
// use.
type Registry struct {
	entries []entry
	next    Token
}

// Add registers fn for hooks of type t.
func (r *Registry) Add(t protocol.HookType, fn Handler, userData any) Token {
	if fn == nil {
		return 0
	}
	r.next++
	r.entries = append(r.entries, entry{token: r.next, typ: t, fn: fn, userData: userData})
	return r.next
}

// Remove unregisters the hook identified by tok and returns its type.
func (r *Registry) Remove(tok Token) (protocol.HookType, bool) {
	for i, e := range r.entries {
		if e.token == tok {
			r.entries = append(r.entries[:i:i], r.entries[i+1:]...)
			return e.typ, true
		}
	}
	return 0, false
}

// Fire calls every handler registered for t. Handlers may add or remove
// hooks; changes take effect on the next Fire.
func (r *Registry) Fire(t protocol.HookType, info Info) int {
	var matched []entry
	for _, e := range r.entries {
		if e.typ == t {
			matched = append(matched, e)
		}
	}
	for _, e := range matched {
		e.fn(t, info, e.userData)
	}
	return len(matched)
}

// Has reports whether at least one handler is registered for t.
func (r *Registry) Has(t protocol.HookType) bool {
	for _, e := range r.entries {
		if e.typ == t {
			return true
		}
	}
	return false
}

// Count returns the number of handlers registered for t.
func (r *Registry) Count(t protocol.HookType) int {
	n := 0
	for _, e := range r.entries {
		if e.typ == t {
			n++
		}
	}
	return n
}

// Len returns the total number of registrations.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Clear removes every registration.
func (r *Registry) Clear() {
	r.entries = nil
}
