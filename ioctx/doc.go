// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package ioctx provides execution contexts, single-threaded event loops that
// run I/O completion callbacks, and a fixed-size pool that spreads sockets
// across them in strict round-robin order.
package ioctx
