// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

package tcp

import (
	"net"
	"sync/atomic"
	"time"

	"github.com/momentics/hioload-net/ioctx"
)

// EstablishHandler receives a connected socket on the socket's own context.
type EstablishHandler func(*Socket)

// FailedConnectHandler receives the reason an outbound attempt failed.
type FailedConnectHandler func(error)

// ProcessingHandler runs on a freshly connected outbound socket before the
// attempt completes. A non-nil error aborts the attempt.
type ProcessingHandler func(*Socket) error

// Socket is a connected stream bound to one execution context.
type Socket struct {
	conn     net.Conn
	ctx      *ioctx.Context
	released atomic.Bool
}

// NewSocket binds conn to ctx.
func NewSocket(conn net.Conn, ctx *ioctx.Context) *Socket {
	return &Socket{conn: conn, ctx: ctx}
}

// Conn returns the underlying connection.
func (s *Socket) Conn() net.Conn { return s.conn }

// Context returns the execution context the socket is bound to.
func (s *Socket) Context() *ioctx.Context { return s.ctx }

// Post runs fn on the socket's context.
func (s *Socket) Post(fn func()) error { return s.ctx.Post(fn) }

// RemoteAddr returns the peer address.
func (s *Socket) RemoteAddr() net.Addr { return s.conn.RemoteAddr() }

// LocalAddr returns the local address.
func (s *Socket) LocalAddr() net.Addr { return s.conn.LocalAddr() }

// Release transfers ownership of the connection to the caller. Only the
// first call succeeds; afterwards the socket must not be used.
func (s *Socket) Release() (net.Conn, bool) {
	if !s.released.CompareAndSwap(false, true) {
		return nil, false
	}
	return s.conn, true
}

// Released reports whether ownership was transferred.
func (s *Socket) Released() bool { return s.released.Load() }

// Close closes the connection.
func (s *Socket) Close() error { return s.conn.Close() }

// tuneConn applies TCP options to accepted and dialed connections.
// keepAlive > 0 sets the period, < 0 disables keep-alive, 0 keeps OS defaults.
func tuneConn(conn net.Conn, noDelay bool, keepAlive time.Duration) {
	tc, ok := conn.(*net.TCPConn)
	if !ok {
		return
	}
	_ = tc.SetNoDelay(noDelay)
	switch {
	case keepAlive > 0:
		_ = tc.SetKeepAlive(true)
		_ = tc.SetKeepAlivePeriod(keepAlive)
	case keepAlive < 0:
		_ = tc.SetKeepAlive(false)
	}
}
