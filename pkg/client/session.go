package client

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/milweb-dev/milweb/internal/errors"
	"github.com/milweb-dev/milweb/pkg/hook"
	"github.com/milweb-dev/milweb/pkg/protocol"
	"github.com/milweb-dev/milweb/pkg/registry"
)

// TracerName is the instrumentation name of the default tracer.
const TracerName = "github.com/milweb-dev/milweb/pkg/client"

// Session owns the proxies of one client and the event loop they run on.
type Session struct {
	config   *Config
	logger   *slog.Logger
	dialer   Dialer
	observer Observer
	tracer   trace.Tracer

	objects *registry.Table[variant]

	dispatchCh chan func()
	done       chan struct{}
	closed     atomic.Bool
	started    atomic.Bool
	closeOnce  sync.Once

	// ctx is cancelled on Close and aborts pending dials.
	ctx    context.Context
	cancel context.CancelFunc

	errDepth int
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithDialer replaces the WebSocket dialer.
func WithDialer(d Dialer) Option {
	return func(s *Session) { s.dialer = d }
}

// WithObserver sets the observer notified of client activity.
func WithObserver(o Observer) Option {
	return func(s *Session) { s.observer = o }
}

// WithTracer sets the tracer used for data requests.
func WithTracer(t trace.Tracer) Option {
	return func(s *Session) { s.tracer = t }
}

// NewSession creates a session. Call Start before using it.
func NewSession(config *Config, opts ...Option) *Session {
	if config == nil {
		config = DefaultConfig()
	} else {
		config = config.Clone()
	}
	s := &Session{
		config:     config,
		logger:     slog.Default(),
		observer:   nopObserver{},
		objects:    registry.New[variant](config.Debug),
		dispatchCh: make(chan func(), config.MaxEventQueue),
		done:       make(chan struct{}),
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	for _, opt := range opts {
		opt(s)
	}
	if s.dialer == nil {
		s.dialer = NewWebSocketDialer(config)
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(TracerName)
	}
	s.logger = s.logger.With("component", "milweb")
	return s
}

// Config returns the session configuration.
func (s *Session) Config() *Config {
	return s.config
}

// Start runs the event loop.
func (s *Session) Start() {
	if s.started.Swap(true) {
		return
	}
	go s.loop()
}

// Close releases every proxy and stops the event loop. It must not be
// called from the loop.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if s.started.Load() {
			finished := make(chan struct{})
			s.dispatchCh <- func() {
				defer close(finished)
				s.shutdown()
			}
			<-finished
		}
		s.closed.Store(true)
		s.cancel()
		close(s.done)
	})
	return nil
}

// Done returns a channel closed when the session is closed.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) loop() {
	for {
		select {
		case fn := <-s.dispatchCh:
			s.executeDispatch(fn)
		case <-s.done:
			return
		}
	}
}

// executeDispatch runs fn with panic recovery.
func (s *Session) executeDispatch(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("dispatch panic",
				"panic", r,
				"stack", string(debug.Stack()))
			if s.config.Debug {
				panic(r)
			}
		}
	}()
	fn()
}

// Dispatch queues fn on the event loop without waiting. It is safe to call
// from any goroutine.
func (s *Session) Dispatch(fn func()) {
	if s.closed.Load() {
		return
	}
	select {
	case s.dispatchCh <- fn:
	case <-s.done:
	default:
		s.logger.Warn("dispatch queue full, discarding callback")
	}
}

// post queues fn, waiting for room. It returns false once the session is
// closed. It must not be called from the loop.
func (s *Session) post(fn func()) bool {
	if s.closed.Load() {
		return false
	}
	select {
	case s.dispatchCh <- fn:
		return true
	case <-s.done:
		return false
	}
}

// Do runs fn on the event loop and waits for it to return.
// It must not be called from the loop.
func (s *Session) Do(ctx context.Context, fn func()) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	result := make(chan struct{})
	select {
	case s.dispatchCh <- func() {
		defer close(result)
		fn()
	}:
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-result:
		return nil
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) shutdown() {
	for _, p := range s.objects.Filter(func(Handle, variant) bool { return true }) {
		if a, ok := p.(*App); ok && a.connected && a.conn != nil {
			a.write(protocol.CmdAppEnd, TextMessage, protocol.Simple{Command: protocol.CmdAppEnd})
		}
		p.base().shutdown()
		s.unregister(p.Handle())
	}
}

// =============================================================================
// Registry
// =============================================================================

func (s *Session) register(p variant) Handle {
	h := s.objects.Register(p)
	s.observer.ProxyAdded(p.Kind())
	return h
}

func (s *Session) unregister(h Handle) {
	if h == Null {
		return
	}
	p, ok := s.objects.Lookup(h)
	if !ok {
		return
	}
	s.objects.Unregister(h)
	s.observer.ProxyRemoved(p.Kind())
}

// Lookup returns the proxy registered under h.
func (s *Session) Lookup(h Handle) (Proxy, bool) {
	p, ok := s.objects.Lookup(h)
	if !ok {
		return nil, false
	}
	return p, true
}

func (s *Session) lookup(h Handle) (variant, bool) {
	return s.objects.Lookup(h)
}

// Proxies returns the registered proxies in handle order.
func (s *Session) Proxies() []Proxy {
	var out []Proxy
	for _, p := range s.objects.Filter(func(Handle, variant) bool { return true }) {
		out = append(out, p)
	}
	return out
}

// Apps returns the registered applications.
func (s *Session) Apps() []*App {
	var out []*App
	for _, p := range s.objects.Filter(func(_ Handle, p variant) bool { return p.Kind() == protocol.TypeApplication }) {
		out = append(out, p.(*App))
	}
	return out
}

func (s *Session) app(h Handle) *App {
	if h == Null {
		return nil
	}
	p, ok := s.objects.Lookup(h)
	if !ok {
		return nil
	}
	a, _ := p.(*App)
	return a
}

func (s *Session) group(h Handle) *Group {
	if h == Null {
		return nil
	}
	p, ok := s.objects.Lookup(h)
	if !ok {
		return nil
	}
	g, _ := p.(*Group)
	return g
}

// =============================================================================
// Applications
// =============================================================================

// Open returns the live application connected to url, or creates one and
// connects it.
func (s *Session) Open(url string) *App {
	for _, a := range s.Apps() {
		if a.url == url {
			return a
		}
	}
	a := newApp(s, url)
	a.connect()
	return a
}

// Connect opens url and waits until the application has its object list.
func (s *Session) Connect(ctx context.Context, url string) (*App, error) {
	ready := make(chan error, 1)
	var a *App
	err := s.Do(ctx, func() {
		a = s.Open(url)
		if a.listed {
			ready <- nil
			return
		}
		var toks []hook.Token
		finish := func(err error) {
			for _, tok := range toks {
				a.Unhook(tok)
			}
			select {
			case ready <- err:
			default:
			}
		}
		toks = append(toks,
			a.Hook(protocol.HookConnect, func(protocol.HookType, hook.Info, any) {
				finish(nil)
			}, nil),
			a.Hook(protocol.HookDisconnect, func(protocol.HookType, hook.Info, any) {
				finish(ErrDisconnected)
			}, nil),
			a.Hook(protocol.HookError, func(protocol.HookType, hook.Info, any) {
				if a.err != nil {
					finish(a.err)
				}
			}, nil),
		)
	})
	if err != nil {
		return nil, err
	}
	select {
	case err := <-ready:
		if err != nil {
			return nil, err
		}
		return a, nil
	case <-ctx.Done():
		s.Dispatch(func() { a.onFree(true) })
		return nil, ctx.Err()
	case <-s.done:
		return nil, ErrSessionClosed
	}
}

// CloseConnection ends the application h. Its proxies are released and
// APP_END is sent. Other handles report error 1.
func (s *Session) CloseConnection(h Handle) {
	if a := s.appOf(h); a != nil {
		a.terminate()
	}
}

// =============================================================================
// Errors
// =============================================================================

// reportError fires the Error hook of the application owning h and logs
// the message. code selects a client error message in 1..15; other codes
// use text. Errors raised while an error is being reported are dropped.
func (s *Session) reportError(h Handle, code int, text string) {
	s.errDepth++
	defer func() { s.errDepth-- }()
	if s.errDepth != 1 {
		return
	}

	var a *App
	if p, ok := s.objects.Lookup(h); ok {
		if app, isApp := p.(*App); isApp {
			a = app
		} else {
			a = s.app(p.base().app)
		}
	}
	if a == nil {
		if apps := s.Apps(); len(apps) > 0 {
			a = apps[0]
		}
	}

	msg := text
	id := 0
	if code > 0 && code <= errors.ClientErrorCount {
		msg = errors.Client(code).Message
		id = code
	}
	s.observer.Error(id)

	if a != nil {
		a.hooks.Fire(protocol.HookError, errorInfo(h, id, msg))
		if a.printDisabled {
			return
		}
	}
	if msg == "" || !s.config.PrintErrors {
		return
	}
	s.logger.Error("milweb error", "object", int64(h), "code", id, "message", msg)
}

func errorInfo(h Handle, code int, msg string) hook.Info {
	return hook.Info{
		{Type: protocol.InfoObjectID, Value: int64(h)},
		{Type: protocol.InfoCurrent, Value: int64(1)},
		{Type: protocol.InfoCurrentSub1, Value: int64(code)},
		{Type: protocol.InfoCurrentSubNb, Value: int64(1)},
		{Type: protocol.InfoCurrent + protocol.InfoMessage, Value: "MilWeb Error"},
		{Type: protocol.InfoCurrentSub1 + protocol.InfoMessage, Value: msg},
	}
}
