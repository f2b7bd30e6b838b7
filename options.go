// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lossy

import (
	"fmt"
	"unsafe"
)

// Options configures queue creation and algorithm selection.
type Options struct {
	// Consumer constraint (determines queue type). Producers are always
	// single: multi-producer lossy queues are not provided.
	singleConsumer bool

	// Capacity (must be a power of 2)
	capacity int
}

// Builder creates queues with fluent configuration.
//
// Capacity is validated when a queue is built, not when the builder is
// created, so every Build function reports [ErrInvalidCapacity] itself.
//
// Example:
//
//	// SPSC queue (one sampling loop, one reader)
//	q, err := lossy.BuildSPSC[Sample](lossy.New(1024).SingleConsumer(), nil)
//
//	// SPMC queue (default: one producer, many readers)
//	q, err := lossy.BuildSPMC[*Frame](lossy.New(64), releaseFrame)
//
//	// Handle queue
//	q, err := lossy.New(4096).BuildIndirect(releaseIndex)
type Builder struct {
	opts Options
}

// New creates a queue builder with the given capacity.
//
// The capacity is used as is: it must be a power of 2 (1, 2, 4, ...).
//
// Example:
//
//	b := lossy.New(1024)
//	q, err := lossy.Build[int](b.SingleConsumer(), nil)
func New(capacity int) *Builder {
	return &Builder{opts: Options{capacity: capacity}}
}

// SingleConsumer declares that only one goroutine will call Get.
// Selects the SPSC engine, which never reports [ErrStale].
func (b *Builder) SingleConsumer() *Builder {
	b.opts.singleConsumer = true
	return b
}

// Build creates a Queue[T] with automatic algorithm selection.
//
// Algorithm selection:
//
//	SingleConsumer → SPSC (take-then-advance, no stale outcome)
//	Default        → SPMC (CAS claim, sequence-validated take)
//
// release may be nil when dropped items need no cleanup.
func Build[T any](b *Builder, release func(T)) (Queue[T], error) {
	if b.opts.singleConsumer {
		q, err := NewSPSC[T](b.opts.capacity, release)
		if err != nil {
			return nil, err
		}
		return q, nil
	}
	q, err := NewSPMC[T](b.opts.capacity, release)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// BuildSPSC creates an SPSC queue with compile-time type safety.
// Panics if builder is not configured with SingleConsumer().
func BuildSPSC[T any](b *Builder, release func(T)) (*SPSC[T], error) {
	if !b.opts.singleConsumer {
		panic("lossy: BuildSPSC requires SingleConsumer()")
	}
	return NewSPSC[T](b.opts.capacity, release)
}

// BuildSPMC creates an SPMC queue with compile-time type safety.
// Panics if builder is configured with SingleConsumer().
func BuildSPMC[T any](b *Builder, release func(T)) (*SPMC[T], error) {
	if b.opts.singleConsumer {
		panic("lossy: BuildSPMC requires no SingleConsumer()")
	}
	return NewSPMC[T](b.opts.capacity, release)
}

// BuildIndirect creates a QueueIndirect for uintptr handles.
//
// Algorithm selection follows [Build]. release may be nil.
func (b *Builder) BuildIndirect(release func(uintptr)) (QueueIndirect, error) {
	if b.opts.singleConsumer {
		q, err := NewSPSCIndirect(b.opts.capacity, release)
		if err != nil {
			return nil, err
		}
		return q, nil
	}
	q, err := NewSPMCIndirect(b.opts.capacity, release)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// BuildIndirectSPSC creates an SPSC queue for uintptr handles.
// Panics if builder is not configured with SingleConsumer().
func (b *Builder) BuildIndirectSPSC(release func(uintptr)) (*SPSCIndirect, error) {
	if !b.opts.singleConsumer {
		panic("lossy: BuildIndirectSPSC requires SingleConsumer()")
	}
	return NewSPSCIndirect(b.opts.capacity, release)
}

// BuildIndirectSPMC creates an SPMC queue for uintptr handles.
// Panics if builder is configured with SingleConsumer().
func (b *Builder) BuildIndirectSPMC(release func(uintptr)) (*SPMCIndirect, error) {
	if b.opts.singleConsumer {
		panic("lossy: BuildIndirectSPMC requires no SingleConsumer()")
	}
	return NewSPMCIndirect(b.opts.capacity, release)
}

// validateCapacity returns capacity as a slot count, or an error wrapping
// ErrInvalidCapacity. The bitmask index scheme needs an exact power of 2.
func validateCapacity(capacity int) (uint64, error) {
	if capacity < 1 || capacity&(capacity-1) != 0 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}
	return uint64(capacity), nil
}

// ptrSize is the size of a pointer in bytes.
const ptrSize = int(unsafe.Sizeof(uintptr(0)))

// pad is cache line padding to prevent false sharing.
type pad [64]byte

// padShort is padding to fill cache line after 8-byte field.
type padShort [64 - 8]byte

// padPtr is padding to fill cache line after pointer-sized field.
type padPtr [64 - ptrSize]byte
