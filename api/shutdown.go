// File: api/shutdown.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// GracefulShutdown is implemented by components that own goroutines or
// sockets and must release them exactly once.
type GracefulShutdown interface {
	// Shutdown stops accepting new work, releases resources and reports the
	// combined close errors. Later calls return the first result.
	Shutdown() error
}
