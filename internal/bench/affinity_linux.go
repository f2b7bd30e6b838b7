// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build linux

package bench

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

// pin locks the calling goroutine to its OS thread and binds that thread to
// one CPU, chosen round-robin by slot. The returned func undoes the lock and
// is safe to call even when pinning failed.
func pin(slot int, enabled bool) (func(), error) {
	if !enabled {
		return func() {}, nil
	}
	runtime.LockOSThread()

	cpu := slot % runtime.NumCPU()
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return runtime.UnlockOSThread, fmt.Errorf("bench: pin to cpu %d: %w", cpu, err)
	}
	return runtime.UnlockOSThread, nil
}
