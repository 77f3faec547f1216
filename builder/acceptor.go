// File: builder/acceptor.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package builder

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/momentics/hioload-net/api"
	"github.com/momentics/hioload-net/session"
	"github.com/momentics/hioload-net/transport/tcp"
)

// AcceptorBuilder turns every connection accepted by an Acceptor into a
// session configured with the accumulated handlers.
type AcceptorBuilder struct {
	acceptor *tcp.Acceptor
	opts     sessionOptions
	log      *zap.Logger
}

// NewAcceptorBuilder returns an empty builder.
func NewAcceptorBuilder() *AcceptorBuilder {
	return &AcceptorBuilder{log: builderLogger()}
}

// WithAcceptor binds the acceptor whose connections become sessions.
func (b *AcceptorBuilder) WithAcceptor(a *tcp.Acceptor) *AcceptorBuilder {
	b.acceptor = a
	return b
}

// WithRecvBufferSize sets the initial receive buffer of each session.
func (b *AcceptorBuilder) WithRecvBufferSize(n int) *AcceptorBuilder {
	b.opts.recvSize = n
	return b
}

// AddEstablishHandler appends a handler run with each new session.
func (b *AcceptorBuilder) AddEstablishHandler(h EstablishHandler) *AcceptorBuilder {
	b.opts.establish = append(b.opts.establish, h)
	return b
}

// WithDataHandler sets the session data handler.
func (b *AcceptorBuilder) WithDataHandler(h session.DataHandler) *AcceptorBuilder {
	b.opts.handlers.Data = h
	return b
}

// WithClosedHandler sets the session closed handler.
func (b *AcceptorBuilder) WithClosedHandler(h session.ClosedHandler) *AcceptorBuilder {
	b.opts.handlers.Closed = h
	return b
}

// WithEOFHandler sets the session EOF handler.
func (b *AcceptorBuilder) WithEOFHandler(h session.EOFHandler) *AcceptorBuilder {
	b.opts.handlers.EOF = h
	return b
}

// WithSessionOptions appends options applied to every created session.
func (b *AcceptorBuilder) WithSessionOptions(opts ...session.Option) *AcceptorBuilder {
	b.opts.extra = append(b.opts.extra, opts...)
	return b
}

// Start validates the builder and starts the acceptor's loop. Like
// ConnectorBuilder.AsyncConnect it consumes the accumulated options.
func (b *AcceptorBuilder) Start() error {
	if b.acceptor == nil {
		return errors.WithStack(api.ErrNoAcceptor)
	}
	if len(b.opts.establish) == 0 {
		return errors.WithStack(api.ErrNoEstablishHandler)
	}
	snap := b.opts.clone()
	log := b.log.With(zap.Stringer("listen", b.acceptor.Addr()))
	if err := b.acceptor.StartAccept(func(sock *tcp.Socket) {
		snap.establishSession(sock, log)
	}); err != nil {
		return errors.Wrap(err, "start accept")
	}
	b.opts = sessionOptions{}
	return nil
}
