// Package registry maps opaque integer handles to objects.
//
// A Table is an arena owned by one client session. Handles start at
// First, grow by one per registration and are never reused, so a stale
// handle can only ever miss:
//
//	tbl := registry.New[*Display](false)
//	h := tbl.Register(d)     // 100
//	obj, ok := tbl.Lookup(h) // d, true
//	tbl.Unregister(h)
//	_, ok = tbl.Lookup(h)    // nil, false
//
// Looking up a handle that was never issued is a caller error. In debug
// mode it panics; otherwise Lookup reports a miss.
package registry
