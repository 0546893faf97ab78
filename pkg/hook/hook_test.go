package hook

import (
	"testing"

	"github.com/milweb-dev/milweb/pkg/protocol"
)

func TestFireOrder(t *testing.T) {
	var r Registry
	var order []int

	r.Add(protocol.HookUpdateWeb, func(protocol.HookType, Info, any) { order = append(order, 1) }, nil)
	r.Add(protocol.HookConnect, func(protocol.HookType, Info, any) { order = append(order, 99) }, nil)
	r.Add(protocol.HookUpdateWeb, func(protocol.HookType, Info, any) { order = append(order, 2) }, nil)

	if n := r.Fire(protocol.HookUpdateWeb, nil); n != 2 {
		t.Fatalf("Fire returned %d, want 2", n)
	}
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Errorf("order = %v, want [1 2]", order)
	}
}

func TestSameHandlerTwice(t *testing.T) {
	var r Registry
	calls := 0
	fn := func(protocol.HookType, Info, any) { calls++ }

	a := r.Add(protocol.HookUpdateWeb, fn, nil)
	b := r.Add(protocol.HookUpdateWeb, fn, nil)
	if a == b {
		t.Fatal("tokens should be distinct")
	}

	r.Fire(protocol.HookUpdateWeb, nil)
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}

	if _, ok := r.Remove(a); !ok {
		t.Fatal("Remove(a) failed")
	}
	if _, ok := r.Remove(a); ok {
		t.Error("Remove(a) twice should fail")
	}
	if r.Count(protocol.HookUpdateWeb) != 1 {
		t.Errorf("Count = %d, want 1", r.Count(protocol.HookUpdateWeb))
	}
}

func TestUserData(t *testing.T) {
	var r Registry
	var got any
	r.Add(protocol.HookError, func(_ protocol.HookType, _ Info, ud any) { got = ud }, "ctx")
	r.Fire(protocol.HookError, nil)
	if got != "ctx" {
		t.Errorf("userData = %v, want ctx", got)
	}
}

func TestRemoveDuringFire(t *testing.T) {
	var r Registry
	calls := 0
	var second Token
	r.Add(protocol.HookUpdateEnd, func(protocol.HookType, Info, any) {
		calls++
		r.Remove(second)
	}, nil)
	second = r.Add(protocol.HookUpdateEnd, func(protocol.HookType, Info, any) { calls++ }, nil)

	r.Fire(protocol.HookUpdateEnd, nil)
	if calls != 2 {
		t.Errorf("first Fire calls = %d, want 2", calls)
	}
	r.Fire(protocol.HookUpdateEnd, nil)
	if calls != 3 {
		t.Errorf("second Fire calls = %d, want 3", calls)
	}
}

func TestInfoAccessors(t *testing.T) {
	info := Info{
		{Type: protocol.InfoObjectID, Value: int64(101)},
		{Type: protocol.InfoEventValue, Value: 0.5},
		{Type: protocol.InfoCurrentSub1 + protocol.InfoMessage, Value: "boom"},
	}

	if id, ok := info.Int(protocol.InfoObjectID); !ok || id != 101 {
		t.Errorf("Int(ObjectID) = %d, %v", id, ok)
	}
	if v, ok := info.Float(protocol.InfoEventValue); !ok || v != 0.5 {
		t.Errorf("Float(EventValue) = %v, %v", v, ok)
	}
	if s, ok := info.String(protocol.InfoCurrentSub1 + protocol.InfoMessage); !ok || s != "boom" {
		t.Errorf("String = %q, %v", s, ok)
	}
	if _, ok := info.Get(protocol.InfoDisplay); ok {
		t.Error("Get(Display) should miss")
	}
}
