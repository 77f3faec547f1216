// File: internal/concurrency/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package concurrency holds the single-threaded event loop that backs every
// execution context, plus per-platform CPU pinning for loop threads.
package concurrency
