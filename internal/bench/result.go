// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bench

import (
	"time"

	"github.com/rs/zerolog"
)

// Result is the accounting of one run. Every sent item ends up in exactly
// one of Received, Dropped or ReleasedAtClose.
type Result struct {
	Sent     uint64
	Received uint64

	// Dropped counts items lost while running: overwritten by the lossy
	// producer, or rejected by a full ring.
	Dropped uint64

	// ReleasedAtClose counts items still queued when the run ended. The
	// harness drains before closing, so this is normally zero.
	ReleasedAtClose uint64

	// Stale counts SPMC claims that lost to an overwrite. Those items are
	// already included in Dropped.
	Stale uint64

	Elapsed time.Duration
}

// MPPS returns the producer rate in millions of puts per second.
func (r Result) MPPS() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Sent) / r.Elapsed.Seconds() / 1e6
}

// LossRate returns the fraction of sent items that were never received.
func (r Result) LossRate() float64 {
	if r.Sent == 0 {
		return 0
	}
	return float64(r.Sent-r.Received) / float64(r.Sent)
}

// MarshalZerologObject lets a Result be logged as one structured object.
func (r Result) MarshalZerologObject(e *zerolog.Event) {
	e.Uint64("sent", r.Sent).
		Uint64("received", r.Received).
		Uint64("dropped", r.Dropped).
		Uint64("released_at_close", r.ReleasedAtClose).
		Uint64("stale", r.Stale).
		Dur("elapsed", r.Elapsed).
		Float64("mpps", r.MPPS()).
		Float64("loss_rate", r.LossRate())
}
