//go:build !linux && !windows

package concurrency

// CurrentThreadID is unknown on this platform.
func CurrentThreadID() int64 { return -1 }
