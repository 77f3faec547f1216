// File: builder/options.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package builder

import (
	"go.uber.org/zap"

	"github.com/momentics/hioload-net/internal/logger"
	"github.com/momentics/hioload-net/session"
	"github.com/momentics/hioload-net/transport/tcp"
)

// EstablishHandler runs once a session exists and before it receives.
type EstablishHandler func(*session.Session)

// sessionOptions is the option set shared by both builders.
type sessionOptions struct {
	establish []EstablishHandler
	handlers  session.Handlers
	recvSize  int
	extra     []session.Option
}

// clone returns a copy that later builder mutations cannot reach.
func (o *sessionOptions) clone() sessionOptions {
	c := *o
	c.establish = append([]EstablishHandler(nil), o.establish...)
	c.extra = append([]session.Option(nil), o.extra...)
	return c
}

// establishSession builds the session for sock, runs every establish handler
// in order and only then starts receiving.
func (o sessionOptions) establishSession(sock *tcp.Socket, log *zap.Logger) {
	s, err := session.New(sock, o.recvSize, o.handlers, o.extra...)
	if err != nil {
		log.Warn("session construction failed", zap.Error(err))
		_ = sock.Close()
		return
	}
	for _, h := range o.establish {
		h(s)
	}
	s.StartRecv()
}

func builderLogger() *zap.Logger {
	return logger.Logger("builder")
}
