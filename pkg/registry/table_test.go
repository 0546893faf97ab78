package registry

import "testing"

type item struct{ name string }

func TestRegisterMonotonic(t *testing.T) {
	tbl := New[*item](false)

	var last Handle
	for i := 0; i < 50; i++ {
		h := tbl.Register(&item{})
		if i == 0 && h != First {
			t.Fatalf("first handle = %d, want %d", h, First)
		}
		if h <= last {
			t.Fatalf("handle %d not greater than previous %d", h, last)
		}
		last = h
		if i%3 == 0 {
			tbl.Unregister(h)
		}
	}

	// Released handles are never issued again.
	h := tbl.Register(&item{})
	if h != last+1 {
		t.Errorf("handle after releases = %d, want %d", h, last+1)
	}
}

func TestRegisterExisting(t *testing.T) {
	tbl := New[*item](false)
	a := &item{name: "a"}

	h1 := tbl.Register(a)
	h2 := tbl.Register(a)
	if h1 != h2 {
		t.Errorf("Register twice = %d, %d; want same handle", h1, h2)
	}
	if tbl.Len() != 1 {
		t.Errorf("Len = %d, want 1", tbl.Len())
	}
}

func TestLookup(t *testing.T) {
	tbl := New[*item](false)
	a := &item{name: "a"}
	h := tbl.Register(a)

	got, ok := tbl.Lookup(h)
	if !ok || got != a {
		t.Fatalf("Lookup(%d) = %v, %v", h, got, ok)
	}

	tbl.Unregister(h)
	if _, ok := tbl.Lookup(h); ok {
		t.Error("Lookup after Unregister should miss")
	}

	// Out of range handles miss in release mode.
	for _, bad := range []Handle{Null, 5, h + 10} {
		if _, ok := tbl.Lookup(bad); ok {
			t.Errorf("Lookup(%d) should miss", bad)
		}
	}
}

func TestLookupDebugPanics(t *testing.T) {
	tbl := New[*item](true)
	tbl.Register(&item{})

	defer func() {
		if recover() == nil {
			t.Error("expected panic for handle that was never issued")
		}
	}()
	tbl.Lookup(500)
}

func TestLookupDebugNull(t *testing.T) {
	tbl := New[*item](true)
	if _, ok := tbl.Lookup(Null); ok {
		t.Error("Lookup(Null) should miss")
	}
}

func TestFilterOrder(t *testing.T) {
	tbl := New[*item](false)
	names := []string{"a", "b", "c", "d"}
	for _, n := range names {
		tbl.Register(&item{name: n})
	}
	tbl.Unregister(First + 1)

	got := tbl.Filter(func(h Handle, it *item) bool { return it.name != "d" })
	if len(got) != 2 || got[0].name != "a" || got[1].name != "c" {
		t.Errorf("Filter = %v, want [a c]", got)
	}
}
