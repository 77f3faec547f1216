// Package api
// Author: momentics
//
// Executor contract for callback dispatch onto an event loop.

package api

// Executor runs callbacks on a single event loop.
type Executor interface {
	// Post schedules task for execution on the loop. It never blocks and
	// returns ErrContextClosed once the loop stopped accepting work.
	Post(task func()) error

	// Pending returns the number of queued, not yet executed tasks.
	Pending() int
}
