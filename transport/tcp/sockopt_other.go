//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd && !dragonfly && !windows

// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

package tcp

func setListenOptions(uintptr, ListenConfig) error { return nil }
