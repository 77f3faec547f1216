// File: internal/concurrency/affinity.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Cross-platform CPU affinity for loop threads.

package concurrency

import (
	"errors"
	"runtime"
)

// ErrAffinityUnsupported is returned where the OS offers no thread pinning.
var ErrAffinityUnsupported = errors.New("affinity: not supported on this platform")

// PinCurrentThread binds the calling OS thread to cpu. The caller must have
// locked the goroutine to its thread.
func PinCurrentThread(cpu int) error {
	if cpu < 0 {
		return nil
	}
	return platformPinCurrentThread(cpu % NumCPUs())
}

// NumCPUs returns the number of logical CPUs.
func NumCPUs() int {
	return runtime.NumCPU()
}
