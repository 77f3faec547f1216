//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

package tcp

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

func setListenOptions(fd uintptr, cfg ListenConfig) error {
	if cfg.ReuseAddr {
		if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
			return errors.Wrap(err, "setsockopt SO_REUSEADDR")
		}
	}
	if cfg.ReusePort {
		if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1); err != nil {
			return errors.Wrap(err, "setsockopt SO_REUSEPORT")
		}
	}
	return nil
}
