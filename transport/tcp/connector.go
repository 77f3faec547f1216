// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

package tcp

import (
	"context"
	"net"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/momentics/hioload-net/api"
	"github.com/momentics/hioload-net/control"
	"github.com/momentics/hioload-net/internal/logger"
	"github.com/momentics/hioload-net/ioctx"
)

// ConnectOptions describe one outbound attempt.
type ConnectOptions struct {
	Endpoint           string
	Timeout            time.Duration // 0 disables the deadline
	ProcessingHandlers []ProcessingHandler
}

// Connector performs asynchronous outbound connects. For every call exactly
// one of onConnected or onFailed runs, once. Processing handlers run in
// order before the attempt is complete and may fail it. Exceeding the
// timeout cancels the attempt and fails it with api.ErrConnectTimeout.
type Connector interface {
	AsyncConnect(opts ConnectOptions, onConnected EstablishHandler, onFailed FailedConnectHandler)
}

// DialFunc opens a connection; it must honour ctx cancellation.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// ConnectorOption configures a TCPConnector.
type ConnectorOption func(*TCPConnector)

// WithDialer replaces the dial function.
func WithDialer(d DialFunc) ConnectorOption {
	return func(c *TCPConnector) {
		if d != nil {
			c.dial = d
		}
	}
}

// WithClock replaces the clock driving connect deadlines.
func WithClock(clk clock.Clock) ConnectorOption {
	return func(c *TCPConnector) {
		if clk != nil {
			c.clock = clk
		}
	}
}

// WithDialedConnOptions sets TCP_NODELAY and keep-alive on dialed sockets.
func WithDialedConnOptions(noDelay bool, keepAlive time.Duration) ConnectorOption {
	return func(c *TCPConnector) {
		c.noDelay = noDelay
		c.keepAlive = keepAlive
	}
}

// WithConnectorLogger overrides the "connector" subsystem logger.
func WithConnectorLogger(l *zap.Logger) ConnectorOption {
	return func(c *TCPConnector) {
		if l != nil {
			c.log = l
		}
	}
}

// WithConnectorMetrics records attempts and their outcomes.
func WithConnectorMetrics(m *control.Metrics) ConnectorOption {
	return func(c *TCPConnector) { c.metrics = m }
}

// TCPConnector dials TCP endpoints and binds each new socket to the next
// context of its pool. Outcome callbacks and processing handlers run on that
// context.
type TCPConnector struct {
	pool      *ioctx.Pool
	dial      DialFunc
	clock     clock.Clock
	noDelay   bool
	keepAlive time.Duration
	log       *zap.Logger
	metrics   *control.Metrics
}

var _ Connector = (*TCPConnector)(nil)

// NewTCPConnector returns a connector bound to pool.
func NewTCPConnector(pool *ioctx.Pool, opts ...ConnectorOption) *TCPConnector {
	c := &TCPConnector{
		pool:    pool,
		clock:   clock.New(),
		noDelay: true,
		log:     logger.Logger("connector"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.dial == nil {
		d := &net.Dialer{KeepAlive: c.keepAlive}
		c.dial = d.DialContext
	}
	return c
}

// AsyncConnect starts one attempt and returns immediately.
func (c *TCPConnector) AsyncConnect(opts ConnectOptions, onConnected EstablishHandler, onFailed FailedConnectHandler) {
	ctx, cancel := context.WithCancel(context.Background())
	at := &attempt{
		c:           c,
		ioc:         c.pool.Pick(),
		opts:        opts,
		onConnected: onConnected,
		onFailed:    onFailed,
		cancel:      cancel,
	}
	c.metrics.IncConnectAttempt()

	if opts.Endpoint == "" {
		at.fail(errors.WithStack(api.ErrNoEndpoint), control.ReasonDial)
		return
	}
	if opts.Timeout > 0 {
		at.timer = c.clock.AfterFunc(opts.Timeout, func() {
			err := api.WrapError(api.ErrCodeTimeout, api.ErrConnectTimeout, "connect "+opts.Endpoint).
				WithContext("timeout", opts.Timeout.String())
			at.fail(err, control.ReasonTimeout)
		})
	}
	go at.run(ctx)
}

// attempt carries the state of a single AsyncConnect call. done flips
// exactly once, whichever of success, failure or timeout gets there first.
type attempt struct {
	c           *TCPConnector
	ioc         *ioctx.Context
	opts        ConnectOptions
	onConnected EstablishHandler
	onFailed    FailedConnectHandler

	cancel context.CancelFunc
	timer  *clock.Timer
	sock   atomic.Pointer[Socket]
	done   atomic.Bool
}

func (at *attempt) run(ctx context.Context) {
	conn, err := at.c.dial(ctx, "tcp", at.opts.Endpoint)
	if err != nil {
		at.fail(errors.Wrapf(err, "connect %s", at.opts.Endpoint), control.ReasonDial)
		return
	}
	if at.done.Load() {
		_ = conn.Close()
		return
	}
	tuneConn(conn, at.c.noDelay, at.c.keepAlive)
	sock := NewSocket(conn, at.ioc)
	at.sock.Store(sock)
	if at.done.Load() {
		// a timeout may have fired between the check above and the store
		_ = conn.Close()
		return
	}
	if err := at.ioc.Post(func() { at.establish(sock) }); err != nil {
		at.fail(err, control.ReasonClosed)
	}
}

// establish runs on the socket's context.
func (at *attempt) establish(sock *Socket) {
	for i, h := range at.opts.ProcessingHandlers {
		if at.done.Load() {
			return
		}
		if err := h(sock); err != nil {
			at.fail(errors.Wrapf(err, "processing handler %d on %s", i, at.opts.Endpoint), control.ReasonProcessing)
			return
		}
	}
	if !at.finish() {
		_ = sock.Close()
		return
	}
	at.c.metrics.IncConnected()
	at.c.log.Debug("connected", zap.String("endpoint", at.opts.Endpoint), zap.Int("context", at.ioc.ID()))
	if at.onConnected != nil {
		at.onConnected(sock)
	}
}

func (at *attempt) finish() bool {
	if !at.done.CompareAndSwap(false, true) {
		return false
	}
	if at.timer != nil {
		at.timer.Stop()
	}
	at.cancel()
	return true
}

func (at *attempt) fail(err error, reason string) {
	if !at.finish() {
		return
	}
	if sock := at.sock.Load(); sock != nil {
		_ = sock.Close()
	}
	at.c.metrics.IncConnectFailure(reason)
	at.c.log.Debug("connect failed", zap.String("endpoint", at.opts.Endpoint), zap.String("reason", reason), zap.Error(err))
	if at.onFailed == nil {
		return
	}
	if at.ioc.InLoop() {
		at.onFailed(err)
		return
	}
	if perr := at.ioc.Post(func() { at.onFailed(err) }); perr != nil {
		// the pool is gone; the callback still has to run once
		at.onFailed(err)
	}
}
