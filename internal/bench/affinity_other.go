// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !linux

package bench

import "runtime"

// pin only locks the goroutine to its OS thread: CPU binding needs
// sched_setaffinity.
func pin(slot int, enabled bool) (func(), error) {
	if !enabled {
		return func() {}, nil
	}
	runtime.LockOSThread()
	return runtime.UnlockOSThread, nil
}
