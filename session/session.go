// File: session/session.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package session

import (
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/momentics/hioload-net/api"
	"github.com/momentics/hioload-net/control"
	"github.com/momentics/hioload-net/internal/logger"
	"github.com/momentics/hioload-net/ioctx"
	"github.com/momentics/hioload-net/pool"
	"github.com/momentics/hioload-net/transport/tcp"
)

// DataHandler receives the unconsumed received bytes and returns how many it
// consumed; the rest is handed back, with newer data appended, on the next
// call. data is only valid during the call.
type DataHandler func(s *Session, data []byte) int

// ClosedHandler runs once after the session is closed.
type ClosedHandler func(s *Session)

// EOFHandler runs when the peer half-closes, before ClosedHandler.
type EOFHandler func(s *Session)

// Handlers bundles the receive-side callbacks of a session.
type Handlers struct {
	Data   DataHandler
	Closed ClosedHandler
	EOF    EOFHandler
}

const (
	DefaultRecvBufferSize = 4096
	DefaultSendQueueSize  = 256
)

// Option configures a Session.
type Option func(*Session)

// WithSendQueueSize bounds the number of queued, unwritten Send calls.
func WithSendQueueSize(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.sendQ = make(chan []byte, n)
		}
	}
}

// WithRegistry tracks the session in r while its receive loop runs.
func WithRegistry(r *Registry) Option {
	return func(s *Session) { s.registry = r }
}

// WithMetrics updates the active sessions gauge.
func WithMetrics(m *control.Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

// WithBufferPool draws receive buffers from bp instead of pool.Default.
func WithBufferPool(bp *pool.BufferPool) Option {
	return func(s *Session) {
		if bp != nil {
			s.buffers = bp
		}
	}
}

// WithLogger overrides the "session" subsystem logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// Session is an established connection with a receive loop.
type Session struct {
	id       string
	conn     net.Conn
	ctx      *ioctx.Context
	recvSize int
	handlers Handlers

	lifeMu    sync.Mutex   // orders StartRecv against Close
	status    atomic.Int32 // api.SessionStatus
	started   atomic.Bool
	closeOnce sync.Once
	closeErr  error
	closed    chan struct{}
	sendQ     chan []byte

	registry *Registry
	metrics  *control.Metrics
	buffers  *pool.BufferPool
	log      *zap.Logger
}

// New takes ownership of sock's connection and returns a session that is not
// yet receiving. recvBufferSize <= 0 selects DefaultRecvBufferSize.
func New(sock *tcp.Socket, recvBufferSize int, h Handlers, opts ...Option) (*Session, error) {
	if sock == nil {
		return nil, api.ErrInvalidArgument
	}
	conn, ok := sock.Release()
	if !ok {
		return nil, api.NewError(api.ErrCodeInvalidArgument, "socket already handed off").
			WithContext("remote", sock.RemoteAddr().String())
	}
	if recvBufferSize <= 0 {
		recvBufferSize = DefaultRecvBufferSize
	}
	s := &Session{
		id:       uuid.NewString(),
		conn:     conn,
		ctx:      sock.Context(),
		recvSize: recvBufferSize,
		handlers: h,
		closed:   make(chan struct{}),
		sendQ:    make(chan []byte, DefaultSendQueueSize),
		buffers:  pool.Default(),
		log:      logger.Logger("session"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(zap.String("session", s.id))
	s.status.Store(int32(api.SessionEstablishing))
	return s, nil
}

// ID returns the unique session identifier.
func (s *Session) ID() string { return s.id }

// Context returns the execution context running the session's handlers.
func (s *Session) Context() *ioctx.Context { return s.ctx }

// Status returns the lifecycle state.
func (s *Session) Status() api.SessionStatus { return api.SessionStatus(s.status.Load()) }

// RemoteAddr returns the peer address.
func (s *Session) RemoteAddr() net.Addr { return s.conn.RemoteAddr() }

// LocalAddr returns the local address.
func (s *Session) LocalAddr() net.Addr { return s.conn.LocalAddr() }

// RecvBufferSize returns the initial receive buffer size.
func (s *Session) RecvBufferSize() int { return s.recvSize }

// Receiving reports whether StartRecv has been called.
func (s *Session) Receiving() bool { return s.started.Load() }

// Done is closed when the session closes.
func (s *Session) Done() <-chan struct{} { return s.closed }

// Post runs fn on the session's context.
func (s *Session) Post(fn func()) error { return s.ctx.Post(fn) }

// StartRecv starts the receive and send loops. Only the first call has an
// effect; it returns false for every later call or on a closed session.
func (s *Session) StartRecv() bool {
	s.lifeMu.Lock()
	if !s.started.CompareAndSwap(false, true) {
		s.lifeMu.Unlock()
		return false
	}
	select {
	case <-s.closed:
		s.lifeMu.Unlock()
		return false
	default:
	}
	s.status.CompareAndSwap(int32(api.SessionEstablishing), int32(api.SessionActive))
	s.metrics.SessionOpened()
	if s.registry != nil {
		s.registry.Add(s)
	}
	s.lifeMu.Unlock()
	go s.writeLoop()
	go s.readLoop()
	return true
}

// Send queues b for writing. The session takes ownership of b.
func (s *Session) Send(b []byte) error {
	select {
	case <-s.closed:
		return api.ErrSessionClosed
	default:
	}
	select {
	case s.sendQ <- b:
		return nil
	case <-s.closed:
		return api.ErrSessionClosed
	default:
		return api.ErrSendQueueFull
	}
}

// Close closes the connection and schedules the closed handler on the
// session's context. Safe to call more than once and from any goroutine.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		// registration and removal must not interleave with StartRecv
		s.lifeMu.Lock()
		s.status.Store(int32(api.SessionClosed))
		close(s.closed)
		if s.started.Load() {
			s.metrics.SessionClosed()
			if s.registry != nil {
				s.registry.Remove(s.id)
			}
		}
		s.lifeMu.Unlock()
		s.closeErr = s.conn.Close()
		s.log.Debug("session closed")
		if s.handlers.Closed != nil {
			s.run(func() { s.handlers.Closed(s) })
		}
	})
	return s.closeErr
}

// run executes fn on the session's context, or inline once the context no
// longer accepts work.
func (s *Session) run(fn func()) {
	if err := s.ctx.Post(fn); err == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("handler panicked", zap.Any("panic", r))
		}
	}()
	fn()
}

func (s *Session) readLoop() {
	buf := s.buffers.Get(s.recvSize)
	defer func() { s.buffers.Put(buf) }()
	n := 0
	for {
		if n == len(buf) {
			grown := s.buffers.Get(2 * len(buf))
			copy(grown, buf[:n])
			s.buffers.Put(buf)
			buf = grown
		}
		r, err := s.conn.Read(buf[n:])
		if r > 0 {
			n += r
			consumed, ok := s.deliver(buf[:n])
			if !ok {
				s.log.Warn("data handler panicked, closing session")
				_ = s.Close()
				return
			}
			if consumed > 0 {
				n = copy(buf, buf[consumed:n])
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) && s.handlers.EOF != nil {
				s.run(func() { s.handlers.EOF(s) })
			} else if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				s.log.Debug("read failed", zap.Error(err))
			}
			_ = s.Close()
			return
		}
	}
}

// deliver hands data to the data handler on the session's context and waits
// for the consumed count, clamped to [0, len(data)]. ok is false when the
// handler panicked.
func (s *Session) deliver(data []byte) (consumed int, ok bool) {
	if s.handlers.Data == nil {
		return len(data), true
	}
	type result struct {
		n  int
		ok bool
	}
	res := make(chan result, 1)
	s.run(func() {
		r := result{}
		defer func() { res <- r }()
		r.n = s.handlers.Data(s, data)
		r.ok = true
	})
	r := <-res
	switch {
	case !r.ok:
		return 0, false
	case r.n < 0:
		return 0, true
	case r.n > len(data):
		return len(data), true
	}
	return r.n, true
}

func (s *Session) writeLoop() {
	for {
		select {
		case b := <-s.sendQ:
			if _, err := s.conn.Write(b); err != nil {
				if !errors.Is(err, net.ErrClosed) {
					s.log.Debug("write failed", zap.Error(err))
				}
				_ = s.Close()
				return
			}
		case <-s.closed:
			return
		}
	}
}
