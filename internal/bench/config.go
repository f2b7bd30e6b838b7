// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bench

import (
	"errors"
	"fmt"
	"time"
)

// Queue implementations selectable with Config.Impl.
const (
	// ImplLossy runs lossy.SPSC for one consumer and lossy.SPMC otherwise.
	ImplLossy = "lossy"

	// ImplRing runs the lossless sharded ring baseline with a producer that
	// drops the newest item when the ring is full.
	ImplRing = "ring"
)

// Config describes one benchmark run.
type Config struct {
	Impl      string
	Capacity  int
	Consumers int

	// Batch is the number of items a consumer takes per call. 1 uses Get.
	Batch int

	Duration time.Duration

	// Jitter is the upper bound of a random pause a consumer takes after
	// each delivery, simulating a slow reader. Zero disables it.
	Jitter time.Duration

	// Pin locks each goroutine to its own OS thread and CPU (linux only).
	Pin bool
}

// DefaultConfig matches the reference loss-rate measurement: one producer,
// one consumer, 1024 slots, ten seconds.
func DefaultConfig() Config {
	return Config{
		Impl:      ImplLossy,
		Capacity:  1024,
		Consumers: 1,
		Batch:     1,
		Duration:  10 * time.Second,
	}
}

var errInvalidConfig = errors.New("bench: invalid config")

// Validate reports the first invalid field.
func (c Config) Validate() error {
	switch c.Impl {
	case ImplLossy, ImplRing:
	default:
		return fmt.Errorf("%w: unknown impl %q", errInvalidConfig, c.Impl)
	}
	if c.Capacity < 1 || c.Capacity&(c.Capacity-1) != 0 {
		return fmt.Errorf("%w: capacity %d is not a power of two", errInvalidConfig, c.Capacity)
	}
	if c.Consumers < 1 {
		return fmt.Errorf("%w: consumers must be >= 1, got %d", errInvalidConfig, c.Consumers)
	}
	if c.Impl == ImplRing && c.Consumers != 1 {
		return fmt.Errorf("%w: impl %q supports exactly one consumer", errInvalidConfig, ImplRing)
	}
	if c.Batch < 1 {
		return fmt.Errorf("%w: batch must be >= 1, got %d", errInvalidConfig, c.Batch)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %v", errInvalidConfig, c.Duration)
	}
	if c.Jitter < 0 {
		return fmt.Errorf("%w: jitter must not be negative, got %v", errInvalidConfig, c.Jitter)
	}
	return nil
}

// IsInvalidConfig reports whether err came from Validate.
func IsInvalidConfig(err error) bool {
	return errors.Is(err, errInvalidConfig)
}
