// Package pool
// Author: momentics <momentics@gmail.com>
//
// Byte buffer pooling for session receive buffers.
// Buffers come in power-of-two size classes, each backed by its own
// sync.Pool, with allocation counters for debug probes.
package pool
