// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lossy

import "sync/atomic"

// node boxes one payload together with the position it was written at.
// A node is immutable once published; the pointer to it is the unit of
// ownership, so whoever removes the pointer from its slot owns the payload.
type node[T any] struct {
	seq uint64
	val T
}

type slot[T any] struct {
	ref atomic.Pointer[node[T]] // nil when empty
	_   padPtr
}

// ring is the slot array and producer path shared by SPSC and SPMC.
type ring[T any] struct {
	cursors
	buffer  []slot[T]
	release func(T)
}

func (r *ring[T]) init(capacity int, release func(T)) error {
	n, err := validateCapacity(capacity)
	if err != nil {
		return err
	}
	r.buffer = make([]slot[T], n)
	r.mask = n - 1
	r.release = release
	return nil
}

// put installs elem at the write cursor. If the slot still holds an unread
// node it is displaced: head is moved past it before the new position is
// published, and its payload is released exactly once.
func (r *ring[T]) put(elem T) {
	if r.closed.LoadAcquire() {
		r.drop(elem)
		return
	}

	tail := r.tail.LoadRelaxed()
	old := r.buffer[tail&r.mask].ref.Swap(&node[T]{seq: tail, val: elem})
	if old != nil {
		r.advanceHead(old.seq + 1)
		r.countOverwrite()
	}
	r.tail.StoreRelease(tail + 1)

	if old != nil {
		r.drop(old.val)
	}
}

// load returns the node a consumer at head should take, or nil if the
// slot was lapped or emptied under it. A lapped slot moves head forward.
func (r *ring[T]) load(head uint64) (*slot[T], *node[T]) {
	s := &r.buffer[head&r.mask]
	n := s.ref.Load()
	switch {
	case n == nil:
		return s, nil
	case n.seq > head:
		r.skipLapped(n.seq)
		return s, nil
	case n.seq < head:
		return s, nil
	}
	return s, n
}

func (r *ring[T]) drop(elem T) {
	if r.release != nil {
		r.release(elem)
	}
}

func (r *ring[T]) close() {
	if r.closed.LoadAcquire() {
		return
	}
	r.closed.StoreRelease(true)

	for i := range r.buffer {
		if old := r.buffer[i].ref.Swap(nil); old != nil {
			r.drop(old.val)
		}
	}
	r.head.StoreRelease(r.tail.LoadAcquire())
}
