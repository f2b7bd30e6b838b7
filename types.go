// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lossy

// Queue is the combined producer-consumer interface for a lossy queue.
//
// Put always succeeds. When the queue already holds Cap() unread items the
// oldest one is dropped and passed to the release callback given at
// construction. Get is non-blocking; see [Receive] for a waiting variant.
//
// Example:
//
//	q, err := lossy.NewSPMC[*Frame](1024, func(f *Frame) { f.Free() })
//	if err != nil {
//	    return err
//	}
//	defer q.Close()
//
//	q.Put(frame) // never blocks
//
//	f, err := q.Get()
//	switch {
//	case err == nil:
//	    render(f)
//	    f.Free() // caller owns delivered items
//	case lossy.IsNonFailure(err):
//	    // empty, or claim lost to an overwrite
//	}
type Queue[T any] interface {
	Producer[T]
	Consumer[T]

	// Cap returns the fixed number of slots.
	Cap() int

	// Stats returns a snapshot of the cursor and loss counters.
	Stats() Stats

	// Close releases every item still held by the queue exactly once.
	// Close must not race with Put or Get. Calling Close more than once
	// is a no-op.
	Close()
}

// Producer is the interface for adding elements.
//
// Ownership of elem moves into the queue. It later leaves the queue in
// exactly one way: delivered by Get, passed to the release callback when
// overwritten, or passed to the release callback by Close.
type Producer[T any] interface {
	// Put adds an element, overwriting the oldest unread element when the
	// queue is full. Put never blocks and never fails.
	//
	// All queues in this package are single-producer: Put must only be
	// called from one goroutine at a time.
	Put(elem T)
}

// Consumer is the interface for removing elements.
//
// A delivered element is owned by the caller; the queue never passes it to
// the release callback.
type Consumer[T any] interface {
	// Get removes and returns the oldest unread element (non-blocking).
	// Returns (zero-value, ErrWouldBlock) if the queue is empty.
	// SPMC queues may return (zero-value, ErrStale) when the claimed
	// element was overwritten before it could be taken.
	//
	// Thread safety depends on queue type:
	//   - SPSC: single consumer only
	//   - SPMC: multiple consumers safe
	Get() (T, error)

	// GetBatch removes up to len(buf) elements in FIFO order and stores them
	// at the front of buf. Returns the number stored. Returns
	// (0, ErrWouldBlock) when empty and (0, ErrStale) when every claimed
	// element was overwritten.
	GetBatch(buf []T) (int, error)
}

// QueueIndirect is the combined interface for lossy queues of uintptr
// handles.
//
// Handles are opaque to the queue: pool indices, registry keys, or any
// other word-sized reference the caller knows how to release.
//
// Example (buffer pool):
//
//	pool := make([][]byte, 1024)
//	free := make(chan uintptr, 1024)
//	q, _ := lossy.NewSPSCIndirect(256, func(idx uintptr) { free <- idx })
//
//	idx := <-free
//	fill(pool[idx])
//	q.Put(idx) // a dropped index flows back to free
type QueueIndirect interface {
	ProducerIndirect
	ConsumerIndirect
	Cap() int
	Stats() Stats
	Close()
}

// ProducerIndirect adds uintptr handles (never blocks).
type ProducerIndirect interface {
	// Put adds a handle, overwriting the oldest unread handle when full.
	Put(elem uintptr)
}

// ConsumerIndirect removes uintptr handles (non-blocking).
type ConsumerIndirect interface {
	// Get removes and returns the oldest unread handle.
	// Returns (0, ErrWouldBlock) immediately if the queue is empty.
	Get() (uintptr, error)

	// GetBatch removes up to len(buf) handles in FIFO order.
	GetBatch(buf []uintptr) (int, error)
}
