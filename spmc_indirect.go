// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lossy

import "code.hybscloud.com/spin"

// SPMCIndirect is a single-producer multi-consumer lossy queue for
// uintptr handles.
//
// Same claim protocol as [SPMC]. The take step is a 128-bit CAS from
// (head+1, handle) to (0, 0), which fails if the producer stamped the
// slot with a newer position in between.
//
// Memory: 64 bytes per slot
type SPMCIndirect struct {
	ringIndirect
}

// NewSPMCIndirect creates a new SPMC lossy queue for uintptr handles.
// capacity must be a power of 2 >= 1. release may be nil.
func NewSPMCIndirect(capacity int, release func(uintptr)) (*SPMCIndirect, error) {
	q := &SPMCIndirect{}
	if err := q.init(capacity, release); err != nil {
		return nil, err
	}
	return q, nil
}

// Put adds a handle (single producer only). Never blocks, never fails.
func (q *SPMCIndirect) Put(elem uintptr) {
	q.put(elem)
}

// Get removes and returns the oldest unread handle (multiple consumers safe).
// Returns (0, ErrWouldBlock) if the queue is empty, or (0, ErrStale) if the
// claimed handle was overwritten.
func (q *SPMCIndirect) Get() (uintptr, error) {
	sw := spin.Wait{}
	for {
		head := q.head.LoadAcquire()
		if head >= q.tail.LoadAcquire() {
			return 0, ErrWouldBlock
		}

		slot, val, ok := q.load(head)
		if !ok || !q.head.CompareAndSwapAcqRel(head, head+1) {
			sw.Once()
			continue
		}
		if q.take(slot, head, val) {
			return uintptr(val), nil
		}
		q.stale.Add(1)
		return 0, ErrStale
	}
}

// GetBatch claims up to len(buf) consecutive positions with a single CAS
// and takes each one, skipping positions overwritten in the meantime.
func (q *SPMCIndirect) GetBatch(buf []uintptr) (int, error) {
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
			slot, val, ok := q.peek(pos)
			if ok && q.take(slot, pos, val) {
				buf[count] = uintptr(val)
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

// peek is load without the lapped-slot help: positions inside a claimed
// range are already behind head.
func (q *SPMCIndirect) peek(pos uint64) (*indirectSlot, uint64, bool) {
	slot := &q.buffer[pos&q.mask]
	stamp, val := slot.entry.LoadAcquire()
	return slot, val, stamp == pos+1
}

// Cap returns the queue capacity.
func (q *SPMCIndirect) Cap() int {
	return int(q.mask + 1)
}

// Stats returns a snapshot of the queue counters.
func (q *SPMCIndirect) Stats() Stats {
	return q.stats()
}

// Close releases every unread handle. Must not race with Put or Get.
func (q *SPMCIndirect) Close() {
	q.close()
}
