//go:build linux

package concurrency

import "golang.org/x/sys/unix"

// CurrentThreadID returns the kernel id of the calling OS thread.
func CurrentThreadID() int64 { return int64(unix.Gettid()) }
