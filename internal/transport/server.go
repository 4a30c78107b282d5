package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"

	"github.com/DavidWenzler/reAM250-sub000/internal/engine"
	"github.com/DavidWenzler/reAM250-sub000/internal/protocol"
)

const (
	// DefaultAddress is the listen address of the controller.
	DefaultAddress = ":12200"

	// DefaultMaxConnections is the number of concurrent client sessions.
	DefaultMaxConnections = 8

	// DefaultOutboxSize is the number of responses buffered per session.
	DefaultOutboxSize = 64
)

// Engine is the part of the engine the transport talks to.
type Engine interface {
	NewSession() string
	Enqueue(r engine.Request) bool
}

// Server accepts client connections and feeds their frames to an engine.
type Server struct {
	engine   Engine
	logger   *slog.Logger
	maxConns int
	outbox   int

	mu      sync.Mutex
	conns   map[string]*session
	wg      sync.WaitGroup
	refused atomic.Uint64
	dropped atomic.Uint64
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMaxConnections sets the number of concurrent sessions.
func WithMaxConnections(n int) Option {
	return func(s *Server) { s.maxConns = n }
}

// WithOutboxSize sets the number of responses buffered per session before
// further responses are dropped.
func WithOutboxSize(n int) Option {
	return func(s *Server) { s.outbox = n }
}

// New creates a server for eng.
func New(eng Engine, opts ...Option) *Server {
	s := &Server{
		engine:   eng,
		logger:   slog.Default(),
		maxConns: DefaultMaxConnections,
		outbox:   DefaultOutboxSize,
		conns:    make(map[string]*session),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.maxConns < 1 {
		s.maxConns = 1
	}
	if s.outbox < 1 {
		s.outbox = 1
	}
	return s
}

// ListenAndServe listens on addr and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled. It closes ln and
// all open sessions before returning, and returns nil on cancellation.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info("transport listening", "address", ln.Addr().String(), "max_connections", s.maxConns)

	stop := context.AfterFunc(ctx, func() {
		ln.Close()
		s.closeAll()
	})
	defer stop()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				s.closeAll()
				s.wg.Wait()
				s.logger.Info("transport stopped")
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}

		sess, ok := s.admit(conn)
		if !ok {
			s.refused.Add(1)
			s.logger.Warn("connection refused", "remote", conn.RemoteAddr().String(), "max_connections", s.maxConns)
			conn.Close()
			continue
		}

		s.wg.Add(2)
		go s.read(sess)
		go s.write(sess)
	}
}

// Connections returns the number of open sessions.
// Thread-safe: may be called from any goroutine.
func (s *Server) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Refused returns the number of connections closed for exceeding the limit.
func (s *Server) Refused() uint64 { return s.refused.Load() }

// Dropped returns the number of frames or responses discarded because a
// queue was full.
func (s *Server) Dropped() uint64 { return s.dropped.Load() }

func (s *Server) admit(conn net.Conn) (*session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.conns) >= s.maxConns {
		return nil, false
	}
	sess := &session{
		id:     s.engine.NewSession(),
		conn:   conn,
		outbox: make(chan []byte, s.outbox),
		done:   make(chan struct{}),
	}
	s.conns[sess.id] = sess
	s.logger.Info("session opened", "session", sess.id, "remote", conn.RemoteAddr().String())
	return sess, true
}

func (s *Server) remove(sess *session) {
	s.mu.Lock()
	_, ok := s.conns[sess.id]
	delete(s.conns, sess.id)
	s.mu.Unlock()
	if ok {
		s.logger.Info("session closed", "session", sess.id)
	}
}

func (s *Server) closeAll() {
	s.mu.Lock()
	open := make([]*session, 0, len(s.conns))
	for _, sess := range s.conns {
		open = append(open, sess)
	}
	s.mu.Unlock()
	for _, sess := range open {
		sess.close()
	}
}

// read cuts the stream into frames. A short read at EOF ends the session.
func (s *Server) read(sess *session) {
	defer s.wg.Done()
	defer s.remove(sess)
	defer sess.close()

	for {
		frame := make([]byte, protocol.FrameSize)
		if _, err := io.ReadFull(sess.conn, frame); err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				s.logger.Debug("session read ended", "session", sess.id, "error", err)
			}
			return
		}
		ok := s.engine.Enqueue(engine.Request{
			Session: sess.id,
			Frame:   frame,
			Reply:   func(resp []byte) { s.reply(sess, resp) },
		})
		if !ok {
			s.dropped.Add(1)
			s.logger.Warn("request queue full, frame dropped", "session", sess.id)
		}
	}
}

// reply runs on the tick goroutine and never blocks.
func (s *Server) reply(sess *session, resp []byte) {
	select {
	case <-sess.done:
	case sess.outbox <- resp:
	default:
		s.dropped.Add(1)
		s.logger.Warn("session outbox full, response dropped", "session", sess.id)
	}
}

func (s *Server) write(sess *session) {
	defer s.wg.Done()
	for {
		select {
		case <-sess.done:
			return
		case resp := <-sess.outbox:
			if _, err := sess.conn.Write(resp); err != nil {
				s.logger.Debug("session write failed", "session", sess.id, "error", err)
				sess.close()
				return
			}
		}
	}
}

type session struct {
	id     string
	conn   net.Conn
	outbox chan []byte
	done   chan struct{}
	once   sync.Once
}

func (s *session) close() {
	s.once.Do(func() {
		close(s.done)
		s.conn.Close()
	})
}
