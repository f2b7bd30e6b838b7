// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lossy

import "code.hybscloud.com/spin"

// SPSC is a single-producer single-consumer lossy ring buffer.
//
// The producer never waits: when all slots hold unread items, Put swaps
// out the oldest one, moves the read cursor past it and hands it to the
// release callback. The consumer takes a slot by swapping its node pointer
// to nil and only then advances the read cursor, so the two sides never
// touch the same payload.
//
// Surviving items are delivered in strict FIFO order. Get never reports
// [ErrStale].
//
// Memory: one cache line per slot plus one small allocation per Put
type SPSC[T any] struct {
	ring[T]
}

// NewSPSC creates a new SPSC lossy queue.
//
// capacity must be a power of 2 >= 1, otherwise the error wraps
// [ErrInvalidCapacity]. release is called exactly once for every item
// dropped by an overwrite or left in the queue at Close; it may be nil.
func NewSPSC[T any](capacity int, release func(T)) (*SPSC[T], error) {
	q := &SPSC[T]{}
	if err := q.init(capacity, release); err != nil {
		return nil, err
	}
	return q, nil
}

// Put adds an element (producer only). Never blocks, never fails.
func (q *SPSC[T]) Put(elem T) {
	q.put(elem)
}

// Get removes and returns the oldest unread element (consumer only).
// Returns (zero-value, ErrWouldBlock) if the queue is empty.
func (q *SPSC[T]) Get() (T, error) {
	sw := spin.Wait{}
	for {
		head := q.head.LoadAcquire()
		if head >= q.tail.LoadAcquire() {
			var zero T
			return zero, ErrWouldBlock
		}

		s, n := q.load(head)
		if n != nil && s.ref.CompareAndSwap(n, nil) {
			q.advanceHead(head + 1)
			return n.val, nil
		}
		// Lost the slot to an overwrite; head has moved on.
		sw.Once()
	}
}

// GetBatch removes up to len(buf) elements (consumer only).
// Returns (0, ErrWouldBlock) if the queue is empty.
func (q *SPSC[T]) GetBatch(buf []T) (int, error) {
	n := 0
	for n < len(buf) {
		elem, err := q.Get()
		if err != nil {
			break
		}
		buf[n] = elem
		n++
	}
	if n == 0 && len(buf) > 0 {
		return 0, ErrWouldBlock
	}
	return n, nil
}

// Cap returns the queue capacity.
func (q *SPSC[T]) Cap() int {
	return int(q.mask + 1)
}

// Stats returns a snapshot of the queue counters.
func (q *SPSC[T]) Stats() Stats {
	return q.stats()
}

// Close releases every unread element. Must not race with Put or Get.
func (q *SPSC[T]) Close() {
	q.close()
}
