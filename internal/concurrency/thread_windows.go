//go:build windows

package concurrency

import "golang.org/x/sys/windows"

// CurrentThreadID returns the id of the calling OS thread.
func CurrentThreadID() int64 { return int64(windows.GetCurrentThreadId()) }
