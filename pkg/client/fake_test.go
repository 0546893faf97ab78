package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/milweb-dev/milweb/pkg/hook"
	"github.com/milweb-dev/milweb/pkg/protocol"
)

const testURL = "ws://mil.test"

var errFakeClosed = errors.New("fake: closed")

type frame struct {
	mt   int
	data []byte
}

// fakeConn is the client end of an in-memory connection. Tests play the
// server through in and out.
type fakeConn struct {
	url    string
	in     chan frame
	out    chan frame
	closed chan struct{}
	once   sync.Once
}

func newFakeConn(url string) *fakeConn {
	return &fakeConn{
		url:    url,
		in:     make(chan frame, 64),
		out:    make(chan frame, 256),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case <-c.closed:
		return 0, nil, errFakeClosed
	default:
	}
	select {
	case f := <-c.in:
		return f.mt, f.data, nil
	case <-c.closed:
		return 0, nil, errFakeClosed
	}
}

func (c *fakeConn) WriteMessage(mt int, data []byte) error {
	select {
	case <-c.closed:
		return errFakeClosed
	default:
	}
	c.out <- frame{mt: mt, data: append([]byte(nil), data...)}
	return nil
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// send plays a server text message.
func (c *fakeConn) send(t *testing.T, msg any) {
	t.Helper()
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	c.in <- frame{mt: TextMessage, data: data}
}

func (c *fakeConn) sendRaw(mt int, data []byte) {
	c.in <- frame{mt: mt, data: data}
}

// next returns the next frame written by the client.
func (c *fakeConn) next(t *testing.T) frame {
	t.Helper()
	select {
	case f := <-c.out:
		return f
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a client frame")
		return frame{}
	}
}

// expect reads the next frame and checks that it is the command cmd.
func (c *fakeConn) expect(t *testing.T, cmd protocol.Command) []byte {
	t.Helper()
	f := c.next(t)
	if f.mt != TextMessage {
		t.Fatalf("frame type = %d, want text frame for %v", f.mt, cmd)
	}
	got, err := protocol.Decode(f.data)
	if err != nil {
		t.Fatalf("Decode(%s): %v", f.data, err)
	}
	if got != cmd {
		t.Fatalf("command = %v, want %v (%s)", got, cmd, f.data)
	}
	return f.data
}

// expectNone checks that the client writes nothing for d.
func (c *fakeConn) expectNone(t *testing.T, d time.Duration) {
	t.Helper()
	select {
	case f := <-c.out:
		t.Fatalf("unexpected client frame %s", f.data)
	case <-time.After(d):
	}
}

func decodeAs[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("unmarshal %s: %v", data, err)
	}
	return v
}

type fakeDialer struct {
	mu    sync.Mutex
	err   error
	conns chan *fakeConn
}

func (d *fakeDialer) Dial(ctx context.Context, url string) (Conn, error) {
	d.mu.Lock()
	err := d.err
	d.mu.Unlock()
	if err != nil {
		return nil, err
	}
	c := newFakeConn(url)
	d.conns <- c
	return c, nil
}

type harness struct {
	t      *testing.T
	sess   *Session
	dialer *fakeDialer
}

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.UpdateDelay = time.Millisecond
	cfg.GroupRetryDelay = time.Millisecond
	cfg.AppCloseTimeout = 10 * time.Millisecond
	cfg.PrintErrors = false
	return cfg
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	d := &fakeDialer{conns: make(chan *fakeConn, 16)}
	opts = append([]Option{
		WithDialer(d),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}, opts...)
	s := NewSession(testConfig(), opts...)
	s.Start()
	t.Cleanup(func() { s.Close() })
	return &harness{t: t, sess: s, dialer: d}
}

// do runs fn on the event loop.
func (h *harness) do(fn func()) {
	h.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.sess.Do(ctx, fn); err != nil {
		h.t.Fatalf("Do: %v", err)
	}
}

// waitFor polls cond on the event loop until it holds.
func (h *harness) waitFor(what string, cond func() bool) {
	h.t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		var ok bool
		h.do(func() { ok = cond() })
		if ok {
			return
		}
		if time.Now().After(deadline) {
			h.t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func (h *harness) nextConn() *fakeConn {
	h.t.Helper()
	select {
	case c := <-h.dialer.conns:
		return c
	case <-time.After(2 * time.Second):
		h.t.Fatal("timed out waiting for a dial")
		return nil
	}
}

// openApp opens an application and publishes objects.
func (h *harness) openApp(objects ...protocol.BufferEntry) (*App, *fakeConn) {
	h.t.Helper()
	var app *App
	h.do(func() { app = h.sess.Open(testURL) })
	c := h.nextConn()
	c.expect(h.t, protocol.CmdAppStart)
	c.send(h.t, protocol.ConnectionInfo{
		Command:       protocol.CmdConnectionInfo,
		ClientId:      7,
		ServerVersion: protocol.ClientVersion,
	})
	c.expect(h.t, protocol.CmdGetObjectList)
	c.send(h.t, protocol.ObjectList{
		Command:      protocol.CmdObjectList,
		NumBufInList: len(objects),
		BufferList:   objects,
	})
	h.waitFor("object list", func() bool { return app.Listed() })
	return app, c
}

// connect connects the published buffer name.
func (h *harness) connect(app *App, name string) (Handle, *fakeConn) {
	h.t.Helper()
	var hd Handle
	h.do(func() { hd = app.Connect(name) })
	if hd == Null {
		h.t.Fatalf("Connect(%q) = Null", name)
	}
	c := h.nextConn()
	req := decodeAs[protocol.BufferRequest](h.t, c.expect(h.t, protocol.CmdRequestObjectInfo))
	if req.ExchangeBufferId != name {
		h.t.Fatalf("RequestObjectInfo buffer = %q, want %q", req.ExchangeBufferId, name)
	}
	return hd, c
}

func displayInfo(sizeX, sizeY int64) protocol.ObjectInfo {
	return protocol.ObjectInfo{
		Command:            protocol.CmdObjectInfo,
		BufferType:         protocol.TypeDisplay,
		ClientId:           7,
		DisplayInteractive: true,
		DisplayStruct: &protocol.DisplayStruct{
			SizeX:      sizeX,
			SizeY:      sizeY,
			Format:     protocol.FormatRGB32,
			Enabled:    true,
			AccessType: protocol.AccessReadWrite | protocol.AccessWebMouseUse | protocol.AccessWebKeyboardUse,
		},
	}
}

func imageInfo(sizeX, sizeY int64) protocol.ObjectInfo {
	return protocol.ObjectInfo{
		Command:    protocol.CmdObjectInfo,
		BufferType: protocol.TypeImage,
		ClientId:   7,
		ImageStruct: &protocol.ImageStruct{
			SizeX:  sizeX,
			SizeY:  sizeY,
			Format: protocol.FormatMono8,
		},
	}
}

// initialize answers OBJECT_INFO and expects the subscription.
func initialize(t *testing.T, c *fakeConn, info protocol.ObjectInfo) protocol.SetParameters {
	t.Helper()
	c.send(t, info)
	return decodeAs[protocol.SetParameters](t, c.expect(t, protocol.CmdSetParameters))
}

// serve answers the next data request with one frame.
func serve(t *testing.T, c *fakeConn, name string, kind protocol.ObjectType, serial, groupCounter int64, payload []byte) protocol.RequestObjectData {
	t.Helper()
	req := decodeAs[protocol.RequestObjectData](t, c.expect(t, protocol.CmdRequestObjectData))
	c.send(t, protocol.ObjectData{
		Command:        protocol.CmdObjectData,
		BufferDataSize: int64(len(payload)),
		BufferStruct: &protocol.BufferStruct{
			Name:               name,
			Type:               kind,
			Changed:            true,
			SerialCounter:      serial,
			GroupCounter:       groupCounter,
			DisplayInteractive: true,
		},
	})
	c.sendRaw(BinaryMessage, payload)
	return req
}

// recorder collects hook firings from the event loop.
type recorder struct {
	ch chan hookCall
}

type hookCall struct {
	typ  protocol.HookType
	info hook.Info
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan hookCall, 64)}
}

func (r *recorder) handler(t protocol.HookType, info hook.Info, _ any) {
	select {
	case r.ch <- hookCall{typ: t, info: info}:
	default:
	}
}

func (r *recorder) wait(t *testing.T) hookCall {
	t.Helper()
	select {
	case c := <-r.ch:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a hook")
		return hookCall{}
	}
}

func (r *recorder) none(t *testing.T, d time.Duration) {
	t.Helper()
	select {
	case c := <-r.ch:
		t.Fatalf("unexpected hook %v", c.typ)
	case <-time.After(d):
	}
}
