// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

package tcp

import (
	"context"
	"net"
	"syscall"

	"github.com/pkg/errors"
)

// ListenConfig holds socket options applied before bind.
type ListenConfig struct {
	ReuseAddr bool // SO_REUSEADDR
	ReusePort bool // SO_REUSEPORT, ignored where unsupported
}

// Listen binds and listens on addr with the configured socket options.
func Listen(ctx context.Context, addr string, cfg ListenConfig) (net.Listener, error) {
	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var serr error
			if err := c.Control(func(fd uintptr) {
				serr = setListenOptions(fd, cfg)
			}); err != nil {
				return err
			}
			return serr
		},
	}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "tcp listen %s", addr)
	}
	return ln, nil
}
