// File: facade/server.go
// Unified facade layer for hioload-net.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Server aggregates the execution context pool, the acceptor, the connector,
// the session registry, metrics and debug probes behind a single value built
// from control.Config. Serve and Dial hand out builders preconfigured with the
// server's session options.

package facade

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/momentics/hioload-net/api"
	"github.com/momentics/hioload-net/builder"
	"github.com/momentics/hioload-net/control"
	"github.com/momentics/hioload-net/internal/logger"
	"github.com/momentics/hioload-net/ioctx"
	"github.com/momentics/hioload-net/pool"
	"github.com/momentics/hioload-net/session"
	"github.com/momentics/hioload-net/transport/tcp"
)

// Option customizes New.
type Option func(*options)

type options struct {
	registerer prometheus.Registerer
	log        *zap.Logger
	dialer     tcp.DialFunc
}

// WithRegisterer registers the server's metrics with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithLogger replaces the "facade" subsystem logger; component loggers are
// derived from it.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithDialer replaces the connector's dial function.
func WithDialer(d tcp.DialFunc) Option {
	return func(o *options) { o.dialer = d }
}

// Server is the main facade type.
type Server struct {
	cfg       control.Config
	pool      *ioctx.Pool
	acceptor  *tcp.Acceptor
	connector *tcp.TCPConnector
	registry  *session.Registry
	metrics   *control.Metrics
	store     *control.Store
	probes    *control.DebugProbes
	log       *zap.Logger

	closeOnce sync.Once
	closeErr  error
}

var _ api.GracefulShutdown = (*Server)(nil)

// New validates cfg and builds every component. The acceptor is only
// created, and its port bound, when cfg.ListenAddr is not empty. A nil cfg
// selects control.DefaultConfig with an empty ListenAddr.
func New(cfg *control.Config, opts ...Option) (*Server, error) {
	if cfg == nil {
		cfg = control.DefaultConfig()
		cfg.ListenAddr = ""
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "facade config")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	log := logger.OrDefault(o.log, "facade")

	s := &Server{
		cfg:      *cfg,
		registry: session.NewRegistry(16),
		metrics:  control.NewMetrics(o.registerer),
		store:    control.NewStore(),
		probes:   control.NewDebugProbes(),
		log:      log,
	}
	s.pool = ioctx.NewPool(cfg.PoolSize,
		ioctx.WithCPUPinning(cfg.PinCPUs),
		ioctx.WithLogger(log.Named("ioctx")),
	)

	copts := []tcp.ConnectorOption{
		tcp.WithConnectorLogger(log.Named("connector")),
		tcp.WithConnectorMetrics(s.metrics),
		tcp.WithDialedConnOptions(cfg.NoDelay, cfg.KeepAlive),
	}
	if o.dialer != nil {
		copts = append(copts, tcp.WithDialer(o.dialer))
	}
	s.connector = tcp.NewTCPConnector(s.pool, copts...)

	if cfg.ListenAddr != "" {
		a, err := tcp.NewAcceptor(s.pool, cfg.ListenAddr,
			tcp.ListenConfig{ReuseAddr: true, ReusePort: cfg.ReusePort},
			tcp.WithAcceptorLogger(log.Named("acceptor")),
			tcp.WithAcceptorMetrics(s.metrics),
			tcp.WithBackoffMax(cfg.AcceptBackoffMax),
			tcp.WithAcceptedConnOptions(cfg.NoDelay, cfg.KeepAlive),
		)
		if err != nil {
			_ = s.pool.Close()
			return nil, errors.Wrapf(err, "listen %s", cfg.ListenAddr)
		}
		s.acceptor = a
	}

	s.store.Seed(cfg)
	s.store.OnReload(s.reload)
	s.registerProbes()
	log.Info("server ready",
		zap.Int("contexts", s.pool.Size()),
		zap.String("listen", cfg.ListenAddr))
	return s, nil
}

func (s *Server) reload(changed map[string]any) {
	if _, ok := changed[control.KeyAcceptBackoffMax]; ok && s.acceptor != nil {
		d := s.store.Duration(control.KeyAcceptBackoffMax, s.cfg.AcceptBackoffMax)
		s.acceptor.SetBackoffMax(d)
		s.log.Info("accept backoff updated", zap.Duration("max", d))
	}
}

func (s *Server) registerProbes() {
	s.probes.RegisterProbe("pool.size", func() any { return s.pool.Size() })
	s.probes.RegisterProbe("pool.pending", func() any { return s.pool.Pending() })
	s.probes.RegisterProbe("sessions.active", func() any { return s.registry.Len() })
	s.probes.RegisterProbe("buffers", func() any { return pool.Default().Stats() })
	if s.acceptor != nil {
		s.probes.RegisterProbe("acceptor.state", func() any { return s.acceptor.State().String() })
		s.probes.RegisterProbe("acceptor.addr", func() any { return s.acceptor.Addr().String() })
	}
}

// Serve returns an AcceptorBuilder bound to the server's acceptor. Its Start
// fails with api.ErrNoAcceptor when the server does not listen.
func (s *Server) Serve() *builder.AcceptorBuilder {
	b := builder.NewAcceptorBuilder().
		WithRecvBufferSize(s.cfg.RecvBufferSize).
		WithSessionOptions(s.sessionOptions()...)
	if s.acceptor != nil {
		b.WithAcceptor(s.acceptor)
	}
	return b
}

// Dial returns a ConnectorBuilder targeting endpoint with the current dial
// timeout.
func (s *Server) Dial(endpoint string) *builder.ConnectorBuilder {
	return builder.NewConnectorBuilder().
		WithConnector(s.connector).
		WithEndpoint(endpoint).
		WithTimeout(s.store.Duration(control.KeyDialTimeout, s.cfg.DialTimeout)).
		WithRecvBufferSize(s.cfg.RecvBufferSize).
		WithSessionOptions(s.sessionOptions()...)
}

func (s *Server) sessionOptions() []session.Option {
	return []session.Option{
		session.WithRegistry(s.registry),
		session.WithMetrics(s.metrics),
		session.WithSendQueueSize(s.cfg.SendQueueSize),
		session.WithLogger(s.log.Named("session")),
	}
}

// Config returns a copy of the configuration the server was built with.
func (s *Server) Config() control.Config { return s.cfg }

// Pool returns the execution context pool.
func (s *Server) Pool() *ioctx.Pool { return s.pool }

// Acceptor returns the acceptor, or nil when the server does not listen.
func (s *Server) Acceptor() *tcp.Acceptor { return s.acceptor }

// Connector returns the outbound connector.
func (s *Server) Connector() *tcp.TCPConnector { return s.connector }

// Sessions returns the registry of live sessions.
func (s *Server) Sessions() *session.Registry { return s.registry }

// Metrics returns the server's counters.
func (s *Server) Metrics() *control.Metrics { return s.metrics }

// Store returns the runtime-tunable settings.
func (s *Server) Store() *control.Store { return s.store }

// Debug returns the probe registry.
func (s *Server) Debug() api.Debug { return s.probes }

// Shutdown closes the acceptor, then every live session, then the pool.
func (s *Server) Shutdown() error {
	s.closeOnce.Do(func() {
		var err error
		if s.acceptor != nil {
			err = multierr.Append(err, s.acceptor.Close())
		}
		err = multierr.Append(err, s.registry.CloseAll())
		err = multierr.Append(err, s.pool.Close())
		s.closeErr = err
		s.log.Info("server stopped", zap.Error(err))
	})
	return s.closeErr
}
