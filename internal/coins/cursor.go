// Copyright (c) 2025 The hodlinator developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coins

// Cursor is handed to a parent's BatchWrite by the CacheView that is
// flushing or syncing. It exposes the flushing view's flagged entries one
// at a time, in list order, and lets the parent advance past each one once
// it has absorbed it.
//
// A Cursor is single-use: once BatchWrite has driven it to the end, it must
// be discarded.
type Cursor struct {
	owner     *CacheView
	node      *entry
	willErase bool
}

// newCursor returns a Cursor over owner's flagged list. willErase records
// whether the caller is performing a Flush (entries are erased from owner
// as they are consumed) or a Sync (entries are only cleared to CLEAN).
func newCursor(owner *CacheView, willErase bool) *Cursor {
	return &Cursor{owner: owner, node: owner.flagged.sentinel.next, willErase: willErase}
}

// Done reports whether every flagged entry has been consumed.
func (c *Cursor) Done() bool {
	return c.node == &c.owner.flagged.sentinel
}

// Outpoint returns the outpoint of the entry the cursor currently points
// at. It must not be called when Done reports true.
func (c *Cursor) Outpoint() Outpoint {
	return c.node.op
}

// Coin returns the coin payload of the entry the cursor currently points
// at. It must not be called when Done reports true.
func (c *Cursor) Coin() Coin {
	return c.node.coin
}

// Fresh reports whether the entry the cursor currently points at carries
// the FRESH flag. It must not be called when Done reports true; every
// entry a Cursor yields carries DIRTY, since only flagged entries are
// linked onto the list it walks.
func (c *Cursor) Fresh() bool {
	return c.node.flags.isFresh()
}

// WillErase reports whether the parent driving this cursor should treat
// the coin payload as moved (Flush) rather than merely copied (Sync). Both
// CacheView.BatchWrite and LevelDBBaseView.BatchWrite consult it uniformly
// across the whole pass rather than per entry.
func (c *Cursor) WillErase() bool {
	return c.willErase
}

// Advance moves the cursor past the entry it currently points at. If erase
// is true, that entry is removed from the owning view's map entirely and
// its node is returned to the pool. If erase is false, the entry's flags
// are cleared to CLEAN and it remains in the owning view's map as an
// ordinary read-through cache copy. It must not be called when Done
// reports true.
func (c *Cursor) Advance(erase bool) {
	done := c.node
	c.node = done.next
	if erase {
		c.owner.usage -= done.size()
		c.owner.unlinkAndFree(done.op, done)
	} else {
		c.owner.setFlags(done, 0)
	}
}
