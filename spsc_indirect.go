// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lossy

import "code.hybscloud.com/spin"

// SPSCIndirect is a single-producer single-consumer lossy queue for
// uintptr handles.
//
// Same protocol as [SPSC], with stamp and handle packed into one 128-bit
// entry instead of a heap node, so Put does not allocate.
//
// Memory: 64 bytes per slot
type SPSCIndirect struct {
	ringIndirect
}

// NewSPSCIndirect creates a new SPSC lossy queue for uintptr handles.
// capacity must be a power of 2 >= 1. release may be nil.
func NewSPSCIndirect(capacity int, release func(uintptr)) (*SPSCIndirect, error) {
	q := &SPSCIndirect{}
	if err := q.init(capacity, release); err != nil {
		return nil, err
	}
	return q, nil
}

// Put adds a handle (producer only). Never blocks, never fails.
func (q *SPSCIndirect) Put(elem uintptr) {
	q.put(elem)
}

// Get removes and returns the oldest unread handle (consumer only).
// Returns (0, ErrWouldBlock) if the queue is empty.
func (q *SPSCIndirect) Get() (uintptr, error) {
	sw := spin.Wait{}
	for {
		head := q.head.LoadAcquire()
		if head >= q.tail.LoadAcquire() {
			return 0, ErrWouldBlock
		}

		slot, val, ok := q.load(head)
		if ok && q.take(slot, head, val) {
			q.advanceHead(head + 1)
			return uintptr(val), nil
		}
		sw.Once()
	}
}

// GetBatch removes up to len(buf) handles (consumer only).
// Returns (0, ErrWouldBlock) if the queue is empty.
func (q *SPSCIndirect) GetBatch(buf []uintptr) (int, error) {
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
func (q *SPSCIndirect) Cap() int {
	return int(q.mask + 1)
}

// Stats returns a snapshot of the queue counters.
func (q *SPSCIndirect) Stats() Stats {
	return q.stats()
}

// Close releases every unread handle. Must not race with Put or Get.
func (q *SPSCIndirect) Close() {
	q.close()
}
