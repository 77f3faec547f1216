//go:build windows

// File: internal/concurrency/affinity_windows.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/windows"
)

var (
	modkernel32               = windows.NewLazySystemDLL("kernel32.dll")
	procSetThreadAffinityMask = modkernel32.NewProc("SetThreadAffinityMask")
)

// platformPinCurrentThread sets a single-CPU affinity mask on the calling thread.
func platformPinCurrentThread(cpu int) error {
	mask := uintptr(1) << uint(cpu)
	old, _, err := procSetThreadAffinityMask.Call(uintptr(windows.CurrentThread()), mask)
	if old == 0 {
		return errors.Wrapf(err, "SetThreadAffinityMask cpu %d", cpu)
	}
	return nil
}
