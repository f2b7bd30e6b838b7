// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lossy

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// Stats is a point-in-time snapshot of a queue's cursors and loss counters.
//
// Fields are loaded independently, so a snapshot taken while producers and
// consumers are running is only approximately consistent.
type Stats struct {
	Capacity int

	// Written is the write cursor: the number of Put calls so far.
	Written uint64

	// Read is the read cursor: positions delivered, skipped after an
	// overwrite, or lost to a stale claim.
	Read uint64

	// Overwritten counts items dropped by Put because the queue was full.
	Overwritten uint64

	// Stale counts SPMC claims that lost to an overwrite.
	Stale uint64
}

// Len returns the approximate number of unread items.
func (s Stats) Len() int {
	if s.Written <= s.Read {
		return 0
	}
	return int(s.Written - s.Read)
}

// cursors holds the state shared by every engine: the logical read and
// write positions plus the loss counters. Positions grow without bound and
// map to a slot with pos&mask.
type cursors struct {
	_           pad
	head        atomix.Uint64 // Read cursor: consumers claim, producer skips past overwrites
	_           padShort
	tail        atomix.Uint64 // Write cursor: producer only
	_           padShort
	overwritten atomix.Uint64 // Producer only
	_           padShort
	stale       atomix.Uint64 // Consumers
	_           padShort
	closed      atomix.Bool
	mask        uint64
}

// advanceHead moves head forward to at least pos. head never moves back.
func (c *cursors) advanceHead(pos uint64) {
	sw := spin.Wait{}
	for {
		head := c.head.LoadAcquire()
		if head >= pos || c.head.CompareAndSwapAcqRel(head, pos) {
			return
		}
		sw.Once()
	}
}

// skipLapped is called by a consumer that found position seq in the slot
// it expected to hold head. Every position up to seq-capacity has left its
// slot, so head may jump there without waiting for the producer.
func (c *cursors) skipLapped(seq uint64) {
	c.advanceHead(seq - c.mask)
}

// countOverwrite is only called by the producer.
func (c *cursors) countOverwrite() {
	c.overwritten.StoreRelaxed(c.overwritten.LoadRelaxed() + 1)
}

func (c *cursors) stats() Stats {
	return Stats{
		Capacity:    int(c.mask + 1),
		Written:     c.tail.LoadAcquire(),
		Read:        c.head.LoadAcquire(),
		Overwritten: c.overwritten.LoadAcquire(),
		Stale:       c.stale.LoadAcquire(),
	}
}
