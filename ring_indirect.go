// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lossy

import (
	"code.hybscloud.com/atomix"
)

// indirectSlot packs the sequence stamp and the handle into one 128-bit
// entry so ownership changes hands with a single CAS.
//
// Entry format: [lo=stamp | hi=handle], stamp = position+1, 0 when empty.
type indirectSlot struct {
	entry atomix.Uint128
	_     [64 - 16]byte // Pad to cache line
}

// ringIndirect is the handle counterpart of ring. Nothing is allocated
// after construction.
type ringIndirect struct {
	cursors
	buffer  []indirectSlot
	release func(uintptr)
}

func (r *ringIndirect) init(capacity int, release func(uintptr)) error {
	n, err := validateCapacity(capacity)
	if err != nil {
		return err
	}
	r.buffer = make([]indirectSlot, n)
	r.mask = n - 1
	r.release = release
	return nil
}

func (r *ringIndirect) put(elem uintptr) {
	if r.closed.LoadAcquire() {
		r.drop(elem)
		return
	}

	tail := r.tail.LoadRelaxed()
	slot := &r.buffer[tail&r.mask]

	// A consumer may empty the slot between the load and the CAS. Only one
	// consumer can win that slot, so the second attempt always succeeds.
	var stamp, val uint64
	for {
		stamp, val = slot.entry.LoadAcquire()
		if slot.entry.CompareAndSwapAcqRel(stamp, val, tail+1, uint64(elem)) {
			break
		}
	}
	if stamp != 0 {
		r.advanceHead(stamp)
		r.countOverwrite()
	}
	r.tail.StoreRelease(tail + 1)

	if stamp != 0 {
		r.drop(uintptr(val))
	}
}

// load returns the handle stored for head, or ok=false if the slot was
// lapped or emptied under the caller. A lapped slot moves head forward.
func (r *ringIndirect) load(head uint64) (*indirectSlot, uint64, bool) {
	slot := &r.buffer[head&r.mask]
	stamp, val := slot.entry.LoadAcquire()
	switch {
	case stamp == 0:
		return slot, 0, false
	case stamp-1 > head:
		r.skipLapped(stamp - 1)
		return slot, 0, false
	case stamp-1 < head:
		return slot, 0, false
	}
	return slot, val, true
}

// take empties slot if it still holds (head, val).
func (r *ringIndirect) take(slot *indirectSlot, head, val uint64) bool {
	return slot.entry.CompareAndSwapAcqRel(head+1, val, 0, 0)
}

func (r *ringIndirect) drop(elem uintptr) {
	if r.release != nil {
		r.release(elem)
	}
}

func (r *ringIndirect) close() {
	if r.closed.LoadAcquire() {
		return
	}
	r.closed.StoreRelease(true)

	for i := range r.buffer {
		stamp, val := r.buffer[i].entry.LoadAcquire()
		if stamp == 0 {
			continue
		}
		r.buffer[i].entry.StoreRelease(0, 0)
		r.drop(uintptr(val))
	}
	r.head.StoreRelease(r.tail.LoadAcquire())
}
