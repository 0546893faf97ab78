package mockserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/milweb-dev/milweb/pkg/client"
	"github.com/milweb-dev/milweb/pkg/hook"
	"github.com/milweb-dev/milweb/pkg/protocol"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type env struct {
	t    *testing.T
	srv  *Server
	url  string
	sess *client.Session
}

func newEnv(t *testing.T, buffers []Buffer, opts ...Option) *env {
	t.Helper()
	srv := New(buffers, append([]Option{WithLogger(quiet)}, opts...)...)
	ts := httptest.NewServer(srv.Handler())
	sess := client.NewSession(nil, client.WithLogger(quiet))
	sess.Start()
	t.Cleanup(func() {
		sess.Close()
		srv.Close()
		ts.Close()
	})
	return &env{t: t, srv: srv, url: "ws" + strings.TrimPrefix(ts.URL, "http"), sess: sess}
}

func (e *env) connect() *client.App {
	e.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	app, err := e.sess.Connect(ctx, e.url)
	if err != nil {
		e.t.Fatalf("Connect: %v", err)
	}
	return app
}

func (e *env) do(fn func()) {
	e.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := e.sess.Do(ctx, fn); err != nil {
		e.t.Fatalf("Do: %v", err)
	}
}

func (e *env) waitCommand(cmd protocol.Command, n int) {
	e.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.srv.WaitCommand(ctx, cmd, n); err != nil {
		e.t.Fatalf("waiting for %d %v: %v", n, cmd, err)
	}
}

func hookChan() (chan hook.Info, hook.Handler) {
	ch := make(chan hook.Info, 16)
	return ch, func(_ protocol.HookType, info hook.Info, _ any) {
		select {
		case ch <- info:
		default:
		}
	}
}

func waitHook(t *testing.T, ch chan hook.Info) hook.Info {
	t.Helper()
	select {
	case info := <-ch:
		return info
	case <-time.After(5 * time.Second):
		t.Fatal("hook did not fire")
		return nil
	}
}

func TestDisplayFrames(t *testing.T) {
	e := newEnv(t, []Buffer{Display("Disp", 2, 1)})
	app := e.connect()

	updates, fn := hookChan()
	var h client.Handle
	e.do(func() {
		h = app.Connect("Disp")
		e.sess.DispHook(h, protocol.HookUpdateWeb, fn, nil)
	})
	e.waitCommand(protocol.CmdRequestObjectData, 1)

	frame := Pattern(2, 1, 3)
	if err := e.srv.Publish("Disp", frame); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	waitHook(t, updates)
	e.do(func() {
		if got := e.sess.BufGet(h); !bytes.Equal(got, frame) {
			t.Errorf("BufGet = %v, want %v", got, frame)
		}
		if got := e.sess.DispInquire(h, protocol.InquireSizeX); got != 2 {
			t.Errorf("SizeX = %d, want 2", got)
		}
	})

	// The client asks again right away and waits for the next publish.
	e.waitCommand(protocol.CmdRequestObjectData, 2)
	if err := e.srv.Publish("Disp", Pattern(2, 1, 4)); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	waitHook(t, updates)
}

func TestGroupRound(t *testing.T) {
	e := newEnv(t, []Buffer{
		Image("Big", "G", 4, 4),
		Image("Small", "G", 2, 2),
	})
	app := e.connect()

	ends, fn := hookChan()
	e.do(func() {
		g := app.Connect("G")
		e.sess.ObjHook(g, protocol.HookUpdateEnd, fn, nil)
		app.Connect("Big")
		app.Connect("Small")
	})
	e.waitCommand(protocol.CmdRequestObjectData, 2)

	err := e.srv.PublishGroup("G", map[string][]byte{
		"Big":   make([]byte, 16),
		"Small": make([]byte, 4),
	})
	if err != nil {
		t.Fatalf("PublishGroup: %v", err)
	}
	waitHook(t, ends)
	select {
	case <-ends:
		t.Error("UpdateEnd fired twice for one round")
	case <-time.After(50 * time.Millisecond):
	}

	if err := e.srv.PublishGroup("G", map[string][]byte{"Nope": nil}); err == nil {
		t.Error("PublishGroup with a foreign buffer should fail")
	}
}

func TestMailboxWrite(t *testing.T) {
	e := newEnv(t, []Buffer{
		Mailbox("Inbox", 16, true, true),
		Mailbox("Status", 16, false, false),
	})
	app := e.connect()

	var inbox, status client.Handle
	e.do(func() {
		inbox = app.Connect("Inbox")
		status = app.Connect("Status")
	})
	e.waitCommand(protocol.CmdSetParameters, 2)

	e.do(func() {
		e.sess.MessageWrite(inbox, "hello", 5, 3, 0)
		e.sess.MessageWrite(inbox, []byte{9, 8, 7}, 3, 4, 0)
	})
	e.waitCommand(protocol.CmdSendMessage, 2)

	b, _ := e.srv.Buffer("Inbox")
	if !bytes.Equal(b.Data, []byte{9, 8, 7}) || b.Tag != 4 {
		t.Errorf("Inbox = %v tag %d, want [9 8 7] tag 4", b.Data, b.Tag)
	}
	log := e.srv.Received()
	var text *protocol.SendMessage
	for _, r := range log {
		if r.Command == protocol.CmdSendMessage && r.Raw != nil {
			var msg protocol.SendMessage
			if err := json.Unmarshal(r.Raw, &msg); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			text = &msg
		}
	}
	if text == nil || text.MessageData == nil || *text.MessageData != "hello" {
		t.Errorf("text message = %+v, want hello", text)
	}

	// A read-only mailbox refuses client writes before they are sent.
	errs, fn := hookChan()
	e.do(func() {
		app.Hook(protocol.HookError, fn, nil)
		e.sess.MessageWrite(status, "x", 1, 0, 0)
	})
	if code, _ := waitHook(t, errs).Int(protocol.InfoCurrentSub1); code != 8 {
		t.Errorf("error code = %d, want 8", code)
	}
}

func TestTextMailboxDelivery(t *testing.T) {
	e := newEnv(t, []Buffer{Mailbox("Inbox", 32, true, true)})
	app := e.connect()

	updates, fn := hookChan()
	var h client.Handle
	e.do(func() {
		h = app.Connect("Inbox")
		e.sess.ObjHook(h, protocol.HookUpdateWeb, fn, nil)
	})
	e.waitCommand(protocol.CmdRequestObjectData, 1)
	if err := e.srv.Publish("Inbox", []byte("ready")); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	waitHook(t, updates)
	e.do(func() {
		md, ok := e.sess.MessageRead(h)
		if !ok || !md.Text || string(md.Data) != "ready" {
			t.Errorf("MessageRead = %+v, %v; want text ready", md, ok)
		}
	})
}

func TestVersionMismatch(t *testing.T) {
	e := newEnv(t, nil, WithVersion(0x2000000))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := e.sess.Connect(ctx, e.url)
	if !errors.Is(err, client.ErrVersionMismatch) {
		t.Errorf("Connect = %v, want ErrVersionMismatch", err)
	}
	for _, r := range e.srv.Received() {
		if r.Command == protocol.CmdGetObjectList {
			t.Error("object list requested after a version mismatch")
		}
	}
}

func TestInteractiveState(t *testing.T) {
	e := newEnv(t, []Buffer{Display("Disp", 2, 2)})
	app := e.connect()

	states, fn := hookChan()
	var h client.Handle
	e.do(func() {
		h = app.Connect("Disp")
		e.sess.DispHook(h, protocol.HookUpdateInteractiveState, fn, nil)
	})
	e.waitCommand(protocol.CmdSetParameters, 1)

	if err := e.srv.SetInteractive("Disp", false); err != nil {
		t.Fatalf("SetInteractive: %v", err)
	}
	waitHook(t, states)
	e.do(func() {
		if got := e.sess.DispInquire(h, protocol.InquireInteractive); got != protocol.Disable {
			t.Errorf("Interactive = %d, want Disable", got)
		}
	})

	// The client takes ownership back.
	e.do(func() {
		e.sess.DispControl(h, protocol.ControlInteractive, protocol.Enable)
	})
	waitHook(t, states)
	if b, _ := e.srv.Buffer("Disp"); !b.interactive {
		t.Error("server display should be interactive again")
	}
	if err := e.srv.SetInteractive("Nope", true); err == nil {
		t.Error("SetInteractive on an unknown display should fail")
	}
}

func TestRefresh(t *testing.T) {
	e := newEnv(t, []Buffer{Array("Stats", "", 4, 1)})
	app := e.connect()

	published, fn := hookChan()
	e.do(func() {
		app.Hook(protocol.HookObjectPublishWeb, fn, nil)
	})
	e.srv.Add(Image("Cam", "", 2, 2))
	e.srv.Refresh()
	waitHook(t, published)

	e.do(func() {
		if h := app.Connect("Cam"); h == client.Null {
			t.Error("Cam should be published after refresh")
		}
		if n := len(app.Published()); n != 2 {
			t.Errorf("Published() = %d, want 2", n)
		}
	})
}

func TestBuffersEndpoint(t *testing.T) {
	srv := New([]Buffer{Display("Disp", 2, 2), Image("Cam", "G", 1, 1)}, WithLogger(quiet))
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/buffers")
	if err != nil {
		t.Fatalf("GET /buffers: %v", err)
	}
	defer resp.Body.Close()
	var list []protocol.BufferEntry
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(list) != 2 || list[0].ExchangeBufferId != "Cam" || list[0].ExchangeGroupId != "G" {
		t.Errorf("buffers = %+v, want Cam then Disp", list)
	}
}

func TestPattern(t *testing.T) {
	data := Pattern(3, 2, 1)
	if len(data) != 3*2*4 {
		t.Fatalf("len = %d, want 24", len(data))
	}
	if data[3] != 255 || data[4] != 2 {
		t.Errorf("pixel 1 = %v, want x+frame=2 and alpha 255", data[4:8])
	}
}

func TestMalformedRequestIgnored(t *testing.T) {
	srv := New([]Buffer{Image("Cam", "", 1, 1)}, WithLogger(quiet))
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()
	defer srv.Close()

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer ws.Close()

	bad := `{"Command":` + strconv.Itoa(int(protocol.CmdRequestObjectData)) + `,"ExchangeBufferId":5}`
	if err := ws.WriteMessage(websocket.TextMessage, []byte(bad)); err != nil {
		t.Fatalf("write: %v", err)
	}
	start, _ := protocol.Encode(protocol.NewAppStart(protocol.ClientVersion))
	if err := ws.WriteMessage(websocket.TextMessage, start); err != nil {
		t.Fatalf("write: %v", err)
	}

	ws.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if cmd, _ := protocol.Decode(data); cmd != protocol.CmdConnectionInfo {
		t.Errorf("first reply = %v, want CONNECTION_INFO", cmd)
	}
	for _, r := range srv.Received() {
		if r.Command == protocol.CmdRequestObjectData {
			t.Error("malformed request should not be logged")
		}
	}
}

func TestSlowClientDisconnected(t *testing.T) {
	srv := New(nil, WithLogger(quiet))
	c := newConn(srv, nil, 1)
	for i := 0; i < outQueue; i++ {
		c.write(websocket.TextMessage, []byte("x"))
	}
	select {
	case <-c.done:
		t.Fatal("connection closed before the queue was full")
	default:
	}
	c.write(websocket.TextMessage, []byte("x"))
	select {
	case <-c.done:
	default:
		t.Error("a full queue should close the connection")
	}
}
