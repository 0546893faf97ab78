package registry

import "fmt"

// Handle identifies an object registered in a Table.
type Handle int64

const (
	// Null means "no object".
	Null Handle = 0

	// First is the first handle issued by a Table.
	First Handle = 100
)

// Table is a handle arena. It is not safe for concurrent use; the owning
// session serializes access on its event loop.
type Table[T comparable] struct {
	objects map[Handle]T
	handles map[T]Handle
	next    Handle
	debug   bool
}

// New creates an empty table. When debug is true, Lookup and Unregister
// panic on handles that were never issued.
func New[T comparable](debug bool) *Table[T] {
	return &Table[T]{
		objects: make(map[Handle]T),
		handles: make(map[T]Handle),
		next:    First,
		debug:   debug,
	}
}

// Register returns the handle of obj, assigning the next free one if obj
// is not registered yet.
func (t *Table[T]) Register(obj T) Handle {
	if h, ok := t.handles[obj]; ok {
		return h
	}
	h := t.next
	t.next++
	t.objects[h] = obj
	t.handles[obj] = h
	return h
}

// Lookup returns the object registered under h.
func (t *Table[T]) Lookup(h Handle) (T, bool) {
	var zero T
	if !t.issued(h) {
		if t.debug && h != Null {
			panic(fmt.Sprintf("registry: invalid handle %d", h))
		}
		return zero, false
	}
	obj, ok := t.objects[h]
	return obj, ok
}

// Unregister releases h. Releasing an already released handle is a no-op.
func (t *Table[T]) Unregister(h Handle) {
	if !t.issued(h) {
		if t.debug {
			panic(fmt.Sprintf("registry: invalid handle %d", h))
		}
		return
	}
	if obj, ok := t.objects[h]; ok {
		delete(t.handles, obj)
		delete(t.objects, h)
	}
}

// Filter returns the registered objects accepted by pred, in handle order.
func (t *Table[T]) Filter(pred func(Handle, T) bool) []T {
	var out []T
	for h := First; h < t.next; h++ {
		obj, ok := t.objects[h]
		if ok && pred(h, obj) {
			out = append(out, obj)
		}
	}
	return out
}

// Len returns the number of registered objects.
func (t *Table[T]) Len() int {
	return len(t.objects)
}

// Next returns the handle the next registration will receive.
func (t *Table[T]) Next() Handle {
	return t.next
}

func (t *Table[T]) issued(h Handle) bool {
	return h >= First && h < t.next
}
