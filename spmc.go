// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lossy

import "code.hybscloud.com/spin"

// SPMC is a single-producer multi-consumer lossy ring buffer.
//
// The producer path is the same as [SPSC]. Consumers share the read cursor
// and claim a position with CAS before taking its slot:
//
//  1. load head, check it is behind tail
//  2. load the slot's node and check its stamp equals head
//  3. CAS head from head to head+1 (on failure another consumer won, retry)
//  4. CAS the slot from the node to nil
//
// If step 4 fails the producer overwrote the slot between steps 2 and 4
// and has already released the item: Get reports [ErrStale] and delivers
// nothing. Each surviving item goes to exactly one consumer, in cursor
// order, with no guarantee which consumer receives it.
//
// Memory: one cache line per slot plus one small allocation per Put
type SPMC[T any] struct {
	ring[T]
}

// NewSPMC creates a new SPMC lossy queue.
//
// capacity must be a power of 2 >= 1, otherwise the error wraps
// [ErrInvalidCapacity]. release is called exactly once for every item
// dropped by an overwrite or left in the queue at Close; it may be nil.
func NewSPMC[T any](capacity int, release func(T)) (*SPMC[T], error) {
	q := &SPMC[T]{}
	if err := q.init(capacity, release); err != nil {
		return nil, err
	}
	return q, nil
}

// Put adds an element (single producer only). Never blocks, never fails.
func (q *SPMC[T]) Put(elem T) {
	q.put(elem)
}

// Get removes and returns the oldest unread element (multiple consumers safe).
// Returns (zero-value, ErrWouldBlock) if the queue is empty, or
// (zero-value, ErrStale) if the claimed element was overwritten.
func (q *SPMC[T]) Get() (T, error) {
	s, n, ok := q.claim()
	if !ok {
		var zero T
		return zero, ErrWouldBlock
	}
	return q.take(s, n)
}

// claim reserves the position at head. Returns ok=false when empty.
func (q *SPMC[T]) claim() (*slot[T], *node[T], bool) {
	sw := spin.Wait{}
	for {
		head := q.head.LoadAcquire()
		if head >= q.tail.LoadAcquire() {
			return nil, nil, false
		}

		s, n := q.load(head)
		if n != nil && q.head.CompareAndSwapAcqRel(head, head+1) {
			return s, n, true
		}
		sw.Once()
	}
}

// take validates a claim by removing exactly the node seen at claim time.
func (q *SPMC[T]) take(s *slot[T], n *node[T]) (T, error) {
	if s.ref.CompareAndSwap(n, nil) {
		return n.val, nil
	}
	q.stale.Add(1)
	var zero T
	return zero, ErrStale
}

// GetBatch claims up to len(buf) consecutive positions with a single CAS,
// then takes each one. Positions overwritten in the meantime are skipped
// and counted as stale (multiple consumers safe).
//
// Returns (0, ErrWouldBlock) if the queue is empty, or (0, ErrStale) if
// every claimed position was overwritten.
func (q *SPMC[T]) GetBatch(buf []T) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}

	sw := spin.Wait{}
	for {
		head := q.head.LoadAcquire()
		tail := q.tail.LoadAcquire()
		if head >= tail {
			return 0, ErrWouldBlock
		}
		end := min(tail, head+uint64(len(buf)))
		if !q.head.CompareAndSwapAcqRel(head, end) {
			sw.Once()
			continue
		}

		count := 0
		for pos := head; pos < end; pos++ {
			s := &q.buffer[pos&q.mask]
			n := s.ref.Load()
			if n != nil && n.seq == pos && s.ref.CompareAndSwap(n, nil) {
				buf[count] = n.val
				count++
				continue
			}
			q.stale.Add(1)
		}
		if count == 0 {
			return 0, ErrStale
		}
		return count, nil
	}
}

// Cap returns the queue capacity.
func (q *SPMC[T]) Cap() int {
	return int(q.mask + 1)
}

// Stats returns a snapshot of the queue counters.
func (q *SPMC[T]) Stats() Stats {
	return q.stats()
}

// Close releases every unread element. Must not race with Put or Get.
func (q *SPMC[T]) Close() {
	q.close()
}
