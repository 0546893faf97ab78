package client

import (
	"fmt"
	"sort"

	"github.com/milweb-dev/milweb/pkg/hook"
	"github.com/milweb-dev/milweb/pkg/protocol"
)

// Group releases the frames of its members together. A round ends when
// every requested member reached the group counter; UpdateEnd then fires
// and the counter advances.
type Group struct {
	object

	members          []variant
	lastGroupCounter int64
}

func newGroup(s *Session, url, name string) *Group {
	g := &Group{}
	g.init(s, g, protocol.TypeGroup, name, url)
	g.groupName = name
	g.initialized = true
	return g
}

// Members returns the member handles ordered by payload size.
func (g *Group) Members() []Handle {
	out := make([]Handle, 0, len(g.members))
	for _, m := range g.members {
		out = append(out, m.Handle())
	}
	return out
}

// Counter returns the group counter of the current round.
func (g *Group) Counter() int64 {
	return g.lastGroupCounter
}

// Hook registers fn. Groups accept UpdateEnd, ComponentAdd and
// ComponentRemove only.
func (g *Group) Hook(t protocol.HookType, fn hook.Handler, userData any) hook.Token {
	switch t {
	case protocol.HookUpdateEnd, protocol.HookComponentAdd, protocol.HookComponentRemove:
		return g.object.Hook(t, fn, userData)
	}
	g.reportError(13)
	return 0
}

// Inquire returns a group setting.
func (g *Group) Inquire(it protocol.InquireType) int64 {
	if it == protocol.InquireObjectType {
		return int64(protocol.TypeGroup)
	}
	return protocol.Null
}

func (g *Group) isMember(p variant) bool {
	return g.indexOf(p.Name()) >= 0
}

func (g *Group) indexOf(name string) int {
	for i, m := range g.members {
		if m.Name() == name {
			return i
		}
	}
	return -1
}

func (g *Group) addToGroup(p variant) {
	b := p.base()
	switch b.kind {
	case protocol.TypeDisplay, protocol.TypeImage, protocol.TypeArray, protocol.TypeMessageMailbox:
	default:
		g.logger.Warn("object cannot join a group", "member", b.name, "kind", b.kind.String())
		return
	}
	if b.groupName != g.name {
		g.logger.Warn("group name mismatch", "member", b.name, "group", b.groupName)
		return
	}
	if g.isMember(p) {
		return
	}
	g.members = append(g.members, p)
	sort.SliceStable(g.members, func(i, j int) bool {
		return g.members[i].base().sizeByte < g.members[j].base().sizeByte
	})
	b.group = g.handle
	g.hooks.Fire(protocol.HookComponentAdd, hook.Info{
		{Type: protocol.InfoObjectID, Value: int64(g.handle)},
		{Type: protocol.InfoComponentAdd, Value: int64(b.handle)},
	})
}

// removeFromGroup drops p. The member keeps its group handle so that a
// reconnect joins the group again.
func (g *Group) removeFromGroup(p variant, fromUser bool) {
	i := g.indexOf(p.Name())
	if i < 0 {
		return
	}
	g.members = append(g.members[:i:i], g.members[i+1:]...)
	if !fromUser {
		g.hooks.Fire(protocol.HookComponentRemove, hook.Info{
			{Type: protocol.InfoObjectID, Value: int64(g.handle)},
			{Type: protocol.InfoComponentRemove, Value: int64(p.base().handle)},
		})
	}
	if len(g.members) == 0 {
		g.lastGroupCounter = 0
	}
}

// updateData records the counter of a member frame and checks the round.
func (g *Group) updateData(p variant) {
	b := p.base()
	if b.groupName != g.name {
		g.logger.Warn("group name mismatch", "member", b.name, "group", b.groupName)
	}
	if b.groupCounter > g.lastGroupCounter {
		g.lastGroupCounter = b.groupCounter
	}
	g.poll.reset(0)
}

// ready reports whether at least one member was requested and every
// requested member is connected and initialized.
func (g *Group) ready() bool {
	requested := false
	for _, m := range g.members {
		b := m.base()
		if !b.requested {
			continue
		}
		if !b.connected || !b.initialized {
			return false
		}
		requested = true
	}
	return requested
}

func (g *Group) allDataAvailable() bool {
	for _, m := range g.members {
		b := m.base()
		if b.requested && !b.serverDataAvailable {
			return false
		}
	}
	return true
}

// checkSync verifies that every requested member is at the group counter.
func (g *Group) checkSync() bool {
	for _, m := range g.members {
		b := m.base()
		if b.requested && b.groupCounter != g.lastGroupCounter {
			msg := fmt.Sprintf("buffers in group %s are not in sync: %s at %d, group at %d",
				g.name, b.name, b.groupCounter, g.lastGroupCounter)
			g.logger.Error(msg)
			if g.sess.config.Debug {
				panic(msg)
			}
			return false
		}
	}
	return true
}

func (g *Group) onUpdate() {
	if !g.hooks.Has(protocol.HookUpdateEnd) {
		return
	}
	if !g.ready() {
		g.poll.reset(g.sess.config.GroupRetryDelay)
		return
	}
	sync := true
	for _, m := range g.members {
		b := m.base()
		if !b.initialized {
			continue
		}
		if b.groupCounter < g.lastGroupCounter {
			sync = false
			b.retrieveData()
		}
	}
	if !g.allDataAvailable() {
		sync = false
	}
	if !sync {
		return
	}
	g.checkSync()
	g.hooks.Fire(protocol.HookUpdateEnd, g.hookInfo())
	g.lastGroupCounter++
	g.sess.observer.GroupRound(g.name)
	g.poll.reset(g.interval())
}

func (g *Group) onConnect()                         {}
func (g *Group) onCommand(protocol.Command, []byte) {}
