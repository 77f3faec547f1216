// File: ioctx/context.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package ioctx

import (
	"github.com/momentics/hioload-net/api"
	"github.com/momentics/hioload-net/internal/concurrency"
)

// Context is one execution context. Every callback posted to it runs on the
// same OS thread, one at a time, in post order.
type Context struct {
	loop *concurrency.EventLoop
}

var _ api.Executor = (*Context)(nil)

// ID returns the position of the context inside its pool.
func (c *Context) ID() int { return c.loop.ID() }

// Post schedules fn on the context. It never blocks; it fails with
// api.ErrContextClosed once the owning pool is closed.
func (c *Context) Post(fn func()) error { return c.loop.Post(fn) }

// Pending returns the number of queued callbacks.
func (c *Context) Pending() int { return c.loop.Pending() }

// Executed returns the number of callbacks run so far.
func (c *Context) Executed() uint64 { return c.loop.Executed() }

// InLoop reports whether the caller is running on this context's thread.
func (c *Context) InLoop() bool { return c.loop.InLoop() }
