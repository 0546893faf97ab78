package record

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/milweb-dev/milweb/pkg/client"
	"github.com/milweb-dev/milweb/pkg/hook"
	"github.com/milweb-dev/milweb/pkg/protocol"
)

// DefaultQueueSize is the number of frames buffered between the event
// loop and the sink.
const DefaultQueueSize = 256

// Option configures a Recorder.
type Option func(*Recorder)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Recorder) {
		r.logger = l
	}
}

// WithQueueSize sets the frame queue size.
func WithQueueSize(n int) Option {
	return func(r *Recorder) {
		if n > 0 {
			r.queueSize = n
		}
	}
}

// WithSessionID overrides the generated recording session id.
func WithSessionID(id string) Option {
	return func(r *Recorder) {
		r.id = id
	}
}

// Recorder writes the frames of hooked proxies to a Sink.
//
// Hook handlers run on the session's event loop and only enqueue a copy of
// the frame; a worker goroutine writes it. Frames are dropped when the
// queue is full.
type Recorder struct {
	sess      *client.Session
	sink      Sink
	id        string
	logger    *slog.Logger
	queueSize int

	frames chan Frame
	quit   chan struct{}
	done   chan struct{}
	closed atomic.Bool

	// Loop-confined.
	tokens map[client.Handle]hook.Token

	written atomic.Uint64
	dropped atomic.Uint64
	failed  atomic.Uint64

	closeOnce sync.Once
	closeErr  error
}

// New creates a recorder and starts its writer.
func New(sess *client.Session, sink Sink, opts ...Option) *Recorder {
	r := &Recorder{
		sess:      sess,
		sink:      sink,
		id:        uuid.NewString(),
		logger:    slog.Default(),
		queueSize: DefaultQueueSize,
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
		tokens:    make(map[client.Handle]hook.Token),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("recording", r.id)
	r.frames = make(chan Frame, r.queueSize)
	go r.run()
	return r
}

// ID returns the recording session id.
func (r *Recorder) ID() string {
	return r.id
}

// Written returns the number of frames stored.
func (r *Recorder) Written() uint64 { return r.written.Load() }

// Dropped returns the number of frames lost to a full queue.
func (r *Recorder) Dropped() uint64 { return r.dropped.Load() }

// Failed returns the number of frames the sink rejected.
func (r *Recorder) Failed() uint64 { return r.failed.Load() }

// Attach records every update of the proxy h. Attaching a group records
// the frames of all its members at the end of each round. Attach must not
// be called from the event loop.
func (r *Recorder) Attach(ctx context.Context, h client.Handle) error {
	if r.closed.Load() {
		return ErrClosed
	}
	var err error
	doErr := r.sess.Do(ctx, func() {
		err = r.attach(h)
	})
	if doErr != nil {
		return doErr
	}
	return err
}

// attach runs on the event loop.
func (r *Recorder) attach(h client.Handle) error {
	p, ok := r.sess.Lookup(h)
	if !ok {
		return fmt.Errorf("record: unknown handle %d", h)
	}
	if _, ok := r.tokens[h]; ok {
		return nil
	}
	t := protocol.HookUpdateWeb
	if p.Kind() == protocol.TypeGroup {
		t = protocol.HookUpdateEnd
	}
	tok := p.Hook(t, r.onUpdate, nil)
	if tok == 0 {
		return fmt.Errorf("record: %s cannot be hooked", p.Name())
	}
	r.tokens[h] = tok
	r.logger.Info("recording", "buffer", p.Name(), "kind", p.Kind().String())
	return nil
}

// onUpdate runs on the event loop.
func (r *Recorder) onUpdate(t protocol.HookType, info hook.Info, _ any) {
	id, _ := info.Int(protocol.InfoObjectID)
	p, ok := r.sess.Lookup(client.Handle(id))
	if !ok {
		return
	}
	if g, ok := p.(*client.Group); ok {
		for _, m := range g.Members() {
			if mp, ok := r.sess.Lookup(m); ok {
				r.enqueue(mp.Snapshot())
			}
		}
		return
	}
	r.enqueue(p.Snapshot())
}

func (r *Recorder) enqueue(s client.Snapshot) {
	if r.closed.Load() || s.Data == nil {
		return
	}
	f := Frame{
		Session:      r.id,
		Buffer:       s.Name,
		Group:        s.Group,
		Kind:         s.Kind,
		Serial:       s.Serial,
		GroupCounter: s.GroupCounter,
		Format:       s.Format,
		Width:        s.Width,
		Height:       s.Height,
		Text:         s.Text,
		Data:         s.Data,
		Time:         time.Now(),
	}
	select {
	case r.frames <- f:
	default:
		r.dropped.Add(1)
		r.logger.Warn("frame queue full, discarding frame", "buffer", f.Buffer, "serial", f.Serial)
	}
}

func (r *Recorder) run() {
	defer close(r.done)
	ctx := context.Background()
	for {
		select {
		case f := <-r.frames:
			r.store(ctx, f)
		case <-r.quit:
			for {
				select {
				case f := <-r.frames:
					r.store(ctx, f)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) store(ctx context.Context, f Frame) {
	if err := r.sink.Write(ctx, f); err != nil {
		r.failed.Add(1)
		r.logger.Error("frame write failed", "buffer", f.Buffer, "serial", f.Serial, "error", err)
		return
	}
	r.written.Add(1)
}

// Close unhooks the recorder, writes the queued frames and closes the
// sink. Close must not be called from the event loop.
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() {
		r.closed.Store(true)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = r.sess.Do(ctx, func() {
			for h, tok := range r.tokens {
				if p, ok := r.sess.Lookup(h); ok {
					p.Unhook(tok)
				}
				delete(r.tokens, h)
			}
		})
		cancel()
		close(r.quit)
		<-r.done
		r.closeErr = r.sink.Close()
		r.logger.Info("recording closed",
			"written", r.written.Load(),
			"dropped", r.dropped.Load(),
			"failed", r.failed.Load())
	})
	return r.closeErr
}
