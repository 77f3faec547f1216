// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package tcp establishes TCP connections for hioload-net.
//
// An Acceptor runs a self re-arming accept loop over one listening socket and
// hands every accepted connection to the next execution context of an
// ioctx.Pool. A Connector dials outbound connections under a deadline, runs
// pre-establish processing handlers and reports exactly one outcome per
// attempt. Both deliver a Socket: a connection bound to the context that
// runs all of its callbacks.
package tcp
