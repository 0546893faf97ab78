// Package mockserver implements a scripted exchange server for tests and
// demos. It speaks the client protocol over WebSocket, publishes a fixed
// set of buffers and answers data requests when a buffer is published.
package mockserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/milweb-dev/milweb/pkg/protocol"
)

// Received is a client message logged by the server.
type Received struct {
	Buffer  string
	Command protocol.Command
	Raw     []byte

	// Payload is the binary frame that followed a binary SEND_MESSAGE.
	Payload []byte
}

// Option configures a Server.
type Option func(*Server)

// WithVersion sets the server version sent in CONNECTION_INFO.
func WithVersion(v int64) Option {
	return func(s *Server) {
		s.version = v
	}
}

// WithProcessName sets the server process name.
func WithProcessName(name string) Option {
	return func(s *Server) {
		s.processName = name
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// Server is a mock exchange server.
type Server struct {
	version     int64
	processName string
	logger      *slog.Logger
	upgrader    websocket.Upgrader
	router      chi.Router

	mu       sync.Mutex
	buffers  map[string]*Buffer
	groups   map[string]int64
	conns    map[*conn]struct{}
	received []Received
	changed  chan struct{}
	nextID   int64
}

// New creates a server publishing buffers.
func New(buffers []Buffer, opts ...Option) *Server {
	s := &Server{
		version:     protocol.ClientVersion,
		processName: "mockserver",
		logger:      slog.Default(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		buffers: make(map[string]*Buffer),
		groups:  make(map[string]int64),
		conns:   make(map[*conn]struct{}),
		changed: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, b := range buffers {
		s.addLocked(b)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/", s.handleWebSocket)
	r.Get("/buffers", s.handleBuffers)
	s.router = r
	return s
}

// Handler returns the HTTP handler. "/" is the WebSocket endpoint and
// "/buffers" lists the published buffers as JSON.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) addLocked(b Buffer) {
	nb := b
	nb.Data = append([]byte(nil), b.Data...)
	if len(nb.Data) > 0 {
		nb.serial = 1
	}
	if b.Group != "" {
		nb.groupCounter = s.groups[b.Group]
	}
	s.buffers[b.Name] = &nb
}

// Add publishes a new buffer. Clients see it after Refresh.
func (s *Server) Add(b Buffer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addLocked(b)
}

// Remove unpublishes a buffer and closes its object connections. Clients
// see the change after Refresh.
func (s *Server) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.buffers, name)
	for c := range s.conns {
		if c.buffer == name {
			c.close()
		}
	}
}

// Refresh pushes REFRESH_LIST to every application connection.
func (s *Server) Refresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.listLocked()
	list.Command = protocol.CmdRefreshList
	for c := range s.conns {
		if c.app {
			c.send(list)
		}
	}
}

// Publish stores a new payload for name, bumps its serial counter and
// answers waiting data requests. The group counter is left unchanged.
func (s *Server) Publish(name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.buffers[name]
	if !ok {
		return fmt.Errorf("mockserver: unknown buffer %q", name)
	}
	b.Data = append([]byte(nil), data...)
	b.serial++
	s.wakeLocked(b)
	return nil
}

// PublishGroup publishes one payload per member and advances the group
// counter once.
func (s *Server) PublishGroup(group string, data map[string][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var members []*Buffer
	for name := range data {
		b, ok := s.buffers[name]
		if !ok || b.Group != group {
			return fmt.Errorf("mockserver: %q is not a member of %q", name, group)
		}
		members = append(members, b)
	}
	s.groups[group]++
	counter := s.groups[group]
	for _, b := range members {
		b.Data = append([]byte(nil), data[b.Name]...)
		b.serial++
		b.groupCounter = counter
	}
	for _, b := range members {
		s.wakeLocked(b)
	}
	return nil
}

// SetInteractive changes the interactive state of a display and pushes
// DISPLAY_INTERACTIVE_STATE to its subscribers.
func (s *Server) SetInteractive(name string, interactive bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.buffers[name]
	if !ok || b.Type != protocol.TypeDisplay {
		return fmt.Errorf("mockserver: unknown display %q", name)
	}
	b.interactive = interactive
	s.pushInteractiveLocked(b)
	return nil
}

func (s *Server) pushInteractiveLocked(b *Buffer) {
	msg := protocol.InteractiveState{
		Command:            protocol.CmdDisplayInteractiveState,
		BufferType:         b.Type,
		DisplayInteractive: protocol.Flag(b.interactive),
	}
	for c := range s.conns {
		if c.buffer == b.Name && c.subscribed {
			c.send(msg)
		}
	}
}

// Buffer returns a copy of a published buffer.
func (s *Server) Buffer(name string) (Buffer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.buffers[name]
	if !ok {
		return Buffer{}, false
	}
	out := *b
	out.Data = append([]byte(nil), b.Data...)
	return out, true
}

// Received returns the client messages received so far.
func (s *Server) Received() []Received {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Received(nil), s.received...)
}

// Wait blocks until cond holds for the received log or ctx is done.
func (s *Server) Wait(ctx context.Context, cond func([]Received) bool) error {
	for {
		s.mu.Lock()
		ok := cond(s.received)
		changed := s.changed
		s.mu.Unlock()
		if ok {
			return nil
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// WaitCommand waits for n messages with command cmd.
func (s *Server) WaitCommand(ctx context.Context, cmd protocol.Command, n int) error {
	return s.Wait(ctx, func(log []Received) bool {
		count := 0
		for _, r := range log {
			if r.Command == cmd {
				count++
			}
		}
		return count >= n
	})
}

func (s *Server) logLocked(r Received) {
	s.received = append(s.received, r)
	close(s.changed)
	s.changed = make(chan struct{})
}

// Close closes every client connection.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.conns {
		c.close()
	}
}

func (s *Server) listLocked() protocol.ObjectList {
	names := make([]string, 0, len(s.buffers))
	for name := range s.buffers {
		names = append(names, name)
	}
	sort.Strings(names)
	list := protocol.ObjectList{Command: protocol.CmdObjectList, BufferList: make([]protocol.BufferEntry, 0, len(names))}
	for _, name := range names {
		list.BufferList = append(list.BufferList, s.buffers[name].entry())
	}
	list.NumBufInList = len(list.BufferList)
	return list
}

func (s *Server) wakeLocked(b *Buffer) {
	for c := range s.conns {
		if c.buffer == b.Name && c.pending {
			c.deliver(b, true)
		}
	}
}

func (s *Server) handleBuffers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	list := s.listLocked()
	s.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(list.BufferList); err != nil {
		s.logger.Warn("buffer list write failed", "error", err)
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	s.mu.Lock()
	s.nextID++
	c := newConn(s, ws, s.nextID)
	s.conns[c] = struct{}{}
	s.mu.Unlock()

	go c.writeLoop()
	c.serve()

	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
}
