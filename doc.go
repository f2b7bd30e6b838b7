// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package lossy provides fixed-capacity lock-free ring buffers that never
// block the producer.
//
// A lossy queue trades completeness for forward progress. When every slot
// holds an unread item, Put overwrites the oldest one instead of failing or
// waiting, so a soft-real-time producer (a sampling loop, a frame grabber,
// a telemetry tap) never stalls on a slow consumer.
//
// Two access patterns are offered:
//
//   - SPSC: Single-Producer Single-Consumer
//   - SPMC: Single-Producer Multi-Consumer
//
// Multiple producers are not supported.
//
// # Quick Start
//
// Direct constructors:
//
//	q, err := lossy.NewSPSC[Sample](1024, nil)
//	q, err := lossy.NewSPMC[*Frame](64, func(f *Frame) { f.Free() })
//
// Builder API selects the engine from constraints:
//
//	q, err := lossy.Build[Sample](lossy.New(1024).SingleConsumer(), nil) // → SPSC
//	q, err := lossy.Build[Sample](lossy.New(1024), nil)                  // → SPMC
//
// # Basic Usage
//
//	q, err := lossy.NewSPSC[int](64, nil)
//	if err != nil {
//	    return err // capacity not a power of 2
//	}
//	defer q.Close()
//
//	// Producer: always succeeds
//	q.Put(42)
//
//	// Consumer: non-blocking
//	v, err := q.Get()
//	if lossy.IsWouldBlock(err) {
//	    // Queue is empty - try again later
//	}
//
// # Overwrite Policy
//
// Positions are unbounded 64-bit cursors mapped to slots with
// cursor&(capacity-1). With capacity C, after Put has been called N >= C
// times without any Get, the unread items are exactly the last C ones and
// the next Get returns item N-C. Items are never reordered: survivors are
// delivered in the order they were put.
//
// # Ownership and Release
//
// Each queue takes an optional release callback. Every element put into a
// queue leaves it exactly once, in one of three ways:
//
//   - delivered by Get: the caller now owns it; release is not called
//   - overwritten by Put: release is called by the producer goroutine
//   - still unread at Close: release is called by Close
//
// This is the hook for returning buffers to a pool, decrementing a
// reference count, or closing a handle:
//
//	pool := sync.Pool{New: func() any { return new(Frame) }}
//	q, _ := lossy.NewSPMC[*Frame](64, func(f *Frame) { pool.Put(f) })
//
// Close must not race with Put or Get. After Close, Put releases its
// argument immediately and Get reports an empty queue.
//
// # Queue Variants
//
//	SPSC[T], SPMC[T]           - any element type; one small allocation per Put
//	SPSCIndirect, SPMCIndirect - uintptr handles; no allocation after construction
//
// The generic variants box each element in an immutable node and move the
// node pointer with a single atomic swap or CAS, which keeps payloads
// visible to the garbage collector. The Indirect variants pack a sequence
// stamp and the handle into one 128-bit entry.
//
// # Error Handling
//
// Put has no error. Get returns:
//
//	nil            - an element was delivered
//	ErrWouldBlock  - empty (alias of [code.hybscloud.com/iox.ErrWouldBlock])
//	ErrStale       - SPMC only: the claimed element was overwritten first
//
// Both non-nil outcomes are control flow signals:
//
//	lossy.IsWouldBlock(err)  // true if empty
//	lossy.IsStale(err)       // true if the claim lost to an overwrite
//	lossy.IsNonFailure(err)  // true if nil, ErrWouldBlock or ErrStale
//
// Constructors fail with an error wrapping [ErrInvalidCapacity] when the
// capacity is not a power of 2 >= 1 (42 is rejected, 64 and 1 are
// accepted). Capacities are never rounded.
//
// # Blocking Receive
//
// Get never blocks. [Receive] and [ReceiveIndirect] wait with
// [code.hybscloud.com/iox.Backoff] until an element arrives or the context
// is done:
//
//	v, err := lossy.Receive(ctx, q)
//
// # Batches
//
// GetBatch removes up to len(buf) elements at once. On SPMC queues the
// whole range is claimed with one CAS; positions overwritten before they
// are taken are skipped and counted in [Stats].Stale.
//
// # Thread Safety
//
//   - SPSC: one producer goroutine, one consumer goroutine
//   - SPMC: one producer goroutine, multiple consumer goroutines
//
// Violating these constraints (e.g., two producers) causes undefined
// behavior including lost and duplicated items.
//
// # Dependencies
//
// This package uses [code.hybscloud.com/iox] for semantic errors and
// backoff, [code.hybscloud.com/atomix] for atomic primitives with explicit
// memory ordering, and [code.hybscloud.com/spin] for CPU pause in retry
// loops.
package lossy
