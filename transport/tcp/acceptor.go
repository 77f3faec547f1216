// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

package tcp

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	temperrcatcher "github.com/jbenet/go-temp-err-catcher"
	"go.uber.org/zap"

	"github.com/momentics/hioload-net/api"
	"github.com/momentics/hioload-net/control"
	"github.com/momentics/hioload-net/internal/logger"
	"github.com/momentics/hioload-net/ioctx"
)

// AcceptorOption configures an Acceptor.
type AcceptorOption func(*Acceptor)

// WithAcceptorLogger overrides the "acceptor" subsystem logger.
func WithAcceptorLogger(l *zap.Logger) AcceptorOption {
	return func(a *Acceptor) {
		if l != nil {
			a.log = l
		}
	}
}

// WithAcceptorMetrics records accepted connections and absorbed errors.
func WithAcceptorMetrics(m *control.Metrics) AcceptorOption {
	return func(a *Acceptor) { a.metrics = m }
}

// WithBackoffMax caps the pause between consecutive failing accepts.
func WithBackoffMax(d time.Duration) AcceptorOption {
	return func(a *Acceptor) {
		if d > 0 {
			a.backoffMax.Store(int64(d))
		}
	}
}

// WithAcceptedConnOptions sets TCP_NODELAY and keep-alive on accepted sockets.
func WithAcceptedConnOptions(noDelay bool, keepAlive time.Duration) AcceptorOption {
	return func(a *Acceptor) {
		a.noDelay = noDelay
		a.keepAlive = keepAlive
	}
}

// Acceptor owns one listening socket and feeds accepted connections to the
// contexts of a pool. It moves Open -> Accepting -> Closed; Closed is
// terminal and may be entered from any state.
type Acceptor struct {
	pool *ioctx.Pool
	ln   net.Listener

	state     atomic.Int32 // api.AcceptorState
	closeOnce sync.Once
	closeErr  error
	done      chan struct{}
	stop      chan struct{} // closed by Close, cuts a backoff wait short

	tec        temperrcatcher.TempErrCatcher
	backoffMax atomic.Int64 // time.Duration, read by the loop on every error
	noDelay    bool
	keepAlive  time.Duration
	log        *zap.Logger
	metrics    *control.Metrics
}

// NewAcceptor binds addr and returns an Acceptor in the Open state.
func NewAcceptor(pool *ioctx.Pool, addr string, cfg ListenConfig, opts ...AcceptorOption) (*Acceptor, error) {
	ln, err := Listen(context.Background(), addr, cfg)
	if err != nil {
		return nil, err
	}
	return NewAcceptorFromListener(pool, ln, opts...), nil
}

// NewAcceptorFromListener wraps an already listening socket. The acceptor
// takes ownership of ln.
func NewAcceptorFromListener(pool *ioctx.Pool, ln net.Listener, opts ...AcceptorOption) *Acceptor {
	a := &Acceptor{
		pool:    pool,
		ln:      ln,
		done:    make(chan struct{}),
		stop:    make(chan struct{}),
		noDelay: true,
		log:     logger.Logger("acceptor"),
	}
	a.backoffMax.Store(int64(time.Second))
	// Every error except a closed listener is worth retrying.
	a.tec.IsTemp = func(err error) bool { return !errors.Is(err, net.ErrClosed) }
	a.tec.Wait = a.backoff
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SetBackoffMax changes the backoff cap of a running acceptor. Values <= 0
// are ignored.
func (a *Acceptor) SetBackoffMax(d time.Duration) {
	if d > 0 {
		a.backoffMax.Store(int64(d))
	}
}

// BackoffMax returns the current backoff cap.
func (a *Acceptor) BackoffMax() time.Duration { return time.Duration(a.backoffMax.Load()) }

// Addr returns the bound listening address.
func (a *Acceptor) Addr() net.Addr { return a.ln.Addr() }

// State returns the current lifecycle state.
func (a *Acceptor) State() api.AcceptorState { return api.AcceptorState(a.state.Load()) }

// Done is closed when the accept loop has exited. It stays open if the loop
// was never started.
func (a *Acceptor) Done() <-chan struct{} { return a.done }

// StartAccept starts the accept loop and returns immediately. Each accepted
// connection is posted, as a Socket, to the context it was bound to and cb
// runs there. Calling it again is a no-op; after Close it returns
// api.ErrAcceptorClosed without doing anything.
func (a *Acceptor) StartAccept(cb EstablishHandler) error {
	if cb == nil {
		return api.ErrInvalidArgument
	}
	if !a.state.CompareAndSwap(int32(api.AcceptorOpen), int32(api.AcceptorAccepting)) {
		if a.State() == api.AcceptorClosed {
			return api.ErrAcceptorClosed
		}
		return nil
	}
	a.log.Info("accept loop started", zap.Stringer("addr", a.ln.Addr()), zap.Int("contexts", a.pool.Size()))
	go a.acceptLoop(cb)
	return nil
}

func (a *Acceptor) closed() bool {
	return a.State() == api.AcceptorClosed
}

// acceptLoop keeps exactly one accept outstanding and re-arms after every
// completion until the listener is closed.
func (a *Acceptor) acceptLoop(cb EstablishHandler) {
	defer close(a.done)
	for {
		if a.closed() {
			return
		}
		ctx := a.pool.Pick()
		conn, err := a.ln.Accept()
		if err != nil {
			if a.closed() || errors.Is(err, net.ErrClosed) {
				a.log.Debug("accept loop stopped", zap.Stringer("addr", a.ln.Addr()))
				return
			}
			a.metrics.IncAcceptError()
			if temperrcatcher.ErrIsTemporary(err) {
				a.log.Debug("temporary accept error", zap.Error(err))
			} else {
				a.log.Warn("accept error", zap.Error(err))
			}
			a.tec.Max = a.BackoffMax()
			a.tec.IsTemporary(err) // sleeps with growing backoff
			continue
		}
		if a.closed() {
			_ = conn.Close()
			return
		}
		a.tec.Reset()
		tuneConn(conn, a.noDelay, a.keepAlive)
		sock := NewSocket(conn, ctx)
		if err := ctx.Post(func() { cb(sock) }); err != nil {
			a.log.Warn("context refused accepted socket", zap.Int("context", ctx.ID()), zap.Error(err))
			_ = conn.Close()
			continue
		}
		a.metrics.IncAccepted()
	}
}

// backoff sleeps for d or until Close, whichever comes first.
func (a *Acceptor) backoff(d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-a.stop:
	}
}

// Close closes the listening socket. An accept in flight completes with an
// error that is discarded and the loop does not re-arm. Safe to call from
// any goroutine, any number of times.
func (a *Acceptor) Close() error {
	a.closeOnce.Do(func() {
		a.state.Store(int32(api.AcceptorClosed))
		close(a.stop)
		a.closeErr = a.ln.Close()
		a.log.Info("acceptor closed", zap.Stringer("addr", a.ln.Addr()))
	})
	return a.closeErr
}
