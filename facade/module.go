// File: facade/module.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package facade

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/momentics/hioload-net/control"
	"github.com/momentics/hioload-net/ioctx"
	"github.com/momentics/hioload-net/session"
	"github.com/momentics/hioload-net/transport/tcp"
)

// Params are the optional dependencies of the server.
type Params struct {
	fx.In

	Config     *control.Config       `optional:"true"`
	Registerer prometheus.Registerer `optional:"true"`
	Logger     *zap.Logger           `optional:"true"`
}

// Module provides *Server and its components to an fx application and shuts
// the server down when the application stops.
var Module = fx.Module("hioload",
	fx.Provide(
		ProvideServer,
		func(s *Server) *ioctx.Pool { return s.Pool() },
		func(s *Server) *session.Registry { return s.Sessions() },
		func(s *Server) *control.Metrics { return s.Metrics() },
		fx.Annotate(
			func(s *Server) *tcp.TCPConnector { return s.Connector() },
			fx.As(new(tcp.Connector)),
		),
	),
	fx.Invoke(registerLifecycle),
)

// ProvideServer builds a Server from p.
func ProvideServer(p Params) (*Server, error) {
	var opts []Option
	if p.Registerer != nil {
		opts = append(opts, WithRegisterer(p.Registerer))
	}
	if p.Logger != nil {
		opts = append(opts, WithLogger(p.Logger))
	}
	return New(p.Config, opts...)
}

func registerLifecycle(lc fx.Lifecycle, s *Server) {
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return s.Shutdown()
		},
	})
}
