package tcp

import (
	"context"
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/momentics/hioload-net/ioctx"
)

func newTestPool(t *testing.T, size int) *ioctx.Pool {
	t.Helper()
	p := ioctx.NewPool(size, ioctx.WithLogger(zaptest.NewLogger(t)))
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func listenLoopback(t *testing.T) net.Listener {
	t.Helper()
	ln, err := Listen(context.Background(), "127.0.0.1:0", ListenConfig{ReuseAddr: true})
	require.NoError(t, err)
	return ln
}

// freeAddr returns an address nobody listens on.
func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

type tempError struct{}

func (tempError) Error() string   { return "accept: too many open files" }
func (tempError) Temporary() bool { return true }
func (tempError) Timeout() bool   { return false }

type acceptResult struct {
	conn net.Conn
	err  error
}

// scriptedListener replays queued accept results and reports net.ErrClosed
// once closed.
type scriptedListener struct {
	results chan acceptResult
	closed  chan struct{}
	once    sync.Once
}

func newScriptedListener() *scriptedListener {
	return &scriptedListener{
		results: make(chan acceptResult, 16),
		closed:  make(chan struct{}),
	}
}

func (l *scriptedListener) Accept() (net.Conn, error) {
	select {
	case r := <-l.results:
		return r.conn, r.err
	case <-l.closed:
		return nil, net.ErrClosed
	}
}

func (l *scriptedListener) Close() error {
	l.once.Do(func() { close(l.closed) })
	return nil
}

func (l *scriptedListener) Addr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 1}
}
