package record

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/milweb-dev/milweb/internal/mockserver"
	"github.com/milweb-dev/milweb/pkg/client"
	"github.com/milweb-dev/milweb/pkg/protocol"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// memorySink collects frames and signals each write.
type memorySink struct {
	mu     sync.Mutex
	frames []Frame
	wrote  chan struct{}
	closed bool
}

func newMemorySink() *memorySink {
	return &memorySink{wrote: make(chan struct{}, 64)}
}

func (m *memorySink) Write(_ context.Context, f Frame) error {
	m.mu.Lock()
	m.frames = append(m.frames, f)
	m.mu.Unlock()
	m.wrote <- struct{}{}
	return nil
}

func (m *memorySink) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *memorySink) wait(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-m.wrote:
		case <-time.After(5 * time.Second):
			t.Fatalf("got %d of %d frames", i, n)
		}
	}
}

func (m *memorySink) snapshot() []Frame {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Frame(nil), m.frames...)
}

func startServer(t *testing.T, buffers ...mockserver.Buffer) (*mockserver.Server, *client.Session, *client.App) {
	t.Helper()
	srv := mockserver.New(buffers, mockserver.WithLogger(quiet))
	ts := httptest.NewServer(srv.Handler())
	sess := client.NewSession(nil, client.WithLogger(quiet))
	sess.Start()
	t.Cleanup(func() {
		sess.Close()
		srv.Close()
		ts.Close()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	app, err := sess.Connect(ctx, "ws"+strings.TrimPrefix(ts.URL, "http"))
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	return srv, sess, app
}

func connectBuffer(t *testing.T, sess *client.Session, app *client.App, name string) client.Handle {
	t.Helper()
	var h client.Handle
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := sess.Do(ctx, func() { h = app.Connect(name) }); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if h == client.Null {
		t.Fatalf("Connect(%s) = Null", name)
	}
	return h
}

func waitRequests(t *testing.T, srv *mockserver.Server, n int) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.WaitCommand(ctx, protocol.CmdRequestObjectData, n); err != nil {
		t.Fatalf("waiting for %d data requests: %v", n, err)
	}
}

func TestRecorderWritesFrames(t *testing.T) {
	srv, sess, app := startServer(t, mockserver.Array("Stats", "", 3, 1))
	h := connectBuffer(t, sess, app, "Stats")

	sink := newMemorySink()
	rec := New(sess, sink, WithLogger(quiet), WithSessionID("run-1"))
	if err := rec.Attach(context.Background(), h); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	waitRequests(t, srv, 1)

	for i := byte(1); i <= 2; i++ {
		if err := srv.Publish("Stats", []byte{i, i, i}); err != nil {
			t.Fatalf("Publish: %v", err)
		}
		sink.wait(t, 1)
		waitRequests(t, srv, int(i)+1)
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	frames := sink.snapshot()
	if len(frames) != 2 {
		t.Fatalf("frames = %d, want 2", len(frames))
	}
	for i, f := range frames {
		if f.Session != "run-1" || f.Buffer != "Stats" || f.Kind != protocol.TypeArray {
			t.Errorf("frames[%d] = %+v", i, f)
		}
		if f.Serial != int64(i+1) || f.Data[0] != byte(i+1) {
			t.Errorf("frames[%d] serial %d data %v, want serial %d", i, f.Serial, f.Data, i+1)
		}
	}
	if rec.Written() != 2 || rec.Dropped() != 0 {
		t.Errorf("Written/Dropped = %d/%d, want 2/0", rec.Written(), rec.Dropped())
	}
	if !sink.closed {
		t.Error("Close should close the sink")
	}
	if err := rec.Attach(context.Background(), h); !errors.Is(err, ErrClosed) {
		t.Errorf("Attach after Close = %v, want ErrClosed", err)
	}
}

func TestRecorderGroupToBolt(t *testing.T) {
	srv, sess, app := startServer(t,
		mockserver.Image("Big", "G", 2, 2),
		mockserver.Image("Small", "G", 1, 1),
	)
	g := connectBuffer(t, sess, app, "G")
	connectBuffer(t, sess, app, "Big")
	connectBuffer(t, sess, app, "Small")

	path := filepath.Join(t.TempDir(), "frames.db")
	sink, err := OpenBolt(path)
	if err != nil {
		t.Fatalf("OpenBolt: %v", err)
	}
	rec := New(sess, sink, WithLogger(quiet))
	if err := rec.Attach(context.Background(), g); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	waitRequests(t, srv, 2)

	err = srv.PublishGroup("G", map[string][]byte{
		"Big":   {1, 2, 3, 4},
		"Small": {9},
	})
	if err != nil {
		t.Fatalf("PublishGroup: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for rec.Written() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("Written() = %d, want 2", rec.Written())
		}
		time.Sleep(5 * time.Millisecond)
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := OpenBolt(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	for _, name := range []string{"Big", "Small"} {
		frames, err := reopened.Frames(name)
		if err != nil {
			t.Fatalf("Frames(%s): %v", name, err)
		}
		if len(frames) != 1 || frames[0].GroupCounter != 1 || frames[0].Group != "G" {
			t.Errorf("Frames(%s) = %+v, want one frame at group counter 1", name, frames)
		}
	}
}

func TestAttachUnknownHandle(t *testing.T) {
	_, sess, _ := startServer(t)
	rec := New(sess, newMemorySink(), WithLogger(quiet))
	defer rec.Close()
	if err := rec.Attach(context.Background(), client.Handle(9999)); err == nil {
		t.Error("Attach of an unknown handle should fail")
	}
}
