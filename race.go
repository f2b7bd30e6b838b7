// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build race

package lossy

// RaceEnabled is true when the race detector is active.
// Used by tests to shorten or skip long-running concurrent stress tests,
// which run orders of magnitude slower under the detector.
const RaceEnabled = true
