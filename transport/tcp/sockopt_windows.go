//go:build windows

// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

package tcp

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/windows"
)

// Windows has no SO_REUSEPORT; ReusePort is ignored.
func setListenOptions(fd uintptr, cfg ListenConfig) error {
	if cfg.ReuseAddr {
		if err := windows.SetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_REUSEADDR, 1); err != nil {
			return errors.Wrap(err, "setsockopt SO_REUSEADDR")
		}
	}
	return nil
}
