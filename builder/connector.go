// File: builder/connector.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package builder

import (
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/momentics/hioload-net/api"
	"github.com/momentics/hioload-net/session"
	"github.com/momentics/hioload-net/transport/tcp"
)

// ConnectorBuilder accumulates the parameters of one outbound session. All
// mutators return the builder for chaining; AsyncConnect consumes it.
type ConnectorBuilder struct {
	connector tcp.Connector
	connect   tcp.ConnectOptions
	failed    tcp.FailedConnectHandler
	opts      sessionOptions
	log       *zap.Logger
}

// NewConnectorBuilder returns an empty builder.
func NewConnectorBuilder() *ConnectorBuilder {
	return &ConnectorBuilder{log: builderLogger()}
}

// WithConnector binds the connector that performs the dial.
func (b *ConnectorBuilder) WithConnector(c tcp.Connector) *ConnectorBuilder {
	b.connector = c
	return b
}

// WithEndpoint sets the host:port to dial.
func (b *ConnectorBuilder) WithEndpoint(endpoint string) *ConnectorBuilder {
	b.connect.Endpoint = endpoint
	return b
}

// WithTimeout sets the connect deadline; 0 disables it.
func (b *ConnectorBuilder) WithTimeout(d time.Duration) *ConnectorBuilder {
	b.connect.Timeout = d
	return b
}

// WithFailedHandler sets the handler told about a failed or timed out connect.
func (b *ConnectorBuilder) WithFailedHandler(h tcp.FailedConnectHandler) *ConnectorBuilder {
	b.failed = h
	return b
}

// AddProcessingHandler appends a pre-establish step, e.g. a handshake.
func (b *ConnectorBuilder) AddProcessingHandler(h tcp.ProcessingHandler) *ConnectorBuilder {
	b.connect.ProcessingHandlers = append(b.connect.ProcessingHandlers, h)
	return b
}

// WithRecvBufferSize sets the initial receive buffer of the session.
func (b *ConnectorBuilder) WithRecvBufferSize(n int) *ConnectorBuilder {
	b.opts.recvSize = n
	return b
}

// AddEstablishHandler appends a handler run with the new session.
func (b *ConnectorBuilder) AddEstablishHandler(h EstablishHandler) *ConnectorBuilder {
	b.opts.establish = append(b.opts.establish, h)
	return b
}

// WithDataHandler sets the session data handler.
func (b *ConnectorBuilder) WithDataHandler(h session.DataHandler) *ConnectorBuilder {
	b.opts.handlers.Data = h
	return b
}

// WithClosedHandler sets the session closed handler.
func (b *ConnectorBuilder) WithClosedHandler(h session.ClosedHandler) *ConnectorBuilder {
	b.opts.handlers.Closed = h
	return b
}

// WithEOFHandler sets the session EOF handler.
func (b *ConnectorBuilder) WithEOFHandler(h session.EOFHandler) *ConnectorBuilder {
	b.opts.handlers.EOF = h
	return b
}

// WithSessionOptions appends options applied to the created session.
func (b *ConnectorBuilder) WithSessionOptions(opts ...session.Option) *ConnectorBuilder {
	b.opts.extra = append(b.opts.extra, opts...)
	return b
}

// AsyncConnect validates the builder, snapshots its options and starts the
// connect. It fails before any network activity when no connector or no
// establish handler is configured. On success the accumulated options are
// cleared; only the connector binding survives.
func (b *ConnectorBuilder) AsyncConnect() error {
	if b.connector == nil {
		return errors.WithStack(api.ErrNoConnector)
	}
	if len(b.opts.establish) == 0 {
		return errors.WithStack(api.ErrNoEstablishHandler)
	}

	snap := b.opts.clone()
	connect := b.connect
	connect.ProcessingHandlers = append([]tcp.ProcessingHandler(nil), b.connect.ProcessingHandlers...)
	log := b.log.With(zap.String("endpoint", connect.Endpoint))

	b.connector.AsyncConnect(connect, func(sock *tcp.Socket) {
		snap.establishSession(sock, log)
	}, b.failed)

	b.connect = tcp.ConnectOptions{}
	b.failed = nil
	b.opts = sessionOptions{}
	return nil
}
