//go:build linux

// File: internal/concurrency/affinity_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// platformPinCurrentThread uses sched_setaffinity on the calling thread.
func platformPinCurrentThread(cpu int) error {
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return errors.Wrapf(err, "sched_setaffinity cpu %d", cpu)
	}
	return nil
}
