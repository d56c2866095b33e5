// Copyright (c) 2025 The hodlinator developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coins

// entryFlags records the two-bit per-entry DIRTY/FRESH state.
//
// The bit representation is:
//
//	bit 0 - DIRTY: the entry differs from what the parent view holds (or the
//	        parent's state is unknown) and must be propagated on flush.
//	bit 1 - FRESH: the parent view is known not to hold any entry for this
//	        outpoint.  Never set without DIRTY also set.
type entryFlags uint8

const (
	// flagDirty marks an entry that diverges from its parent and must be
	// written back on flush.
	flagDirty entryFlags = 1 << iota

	// flagFresh marks an entry the parent is known not to hold at all, so a
	// spent flagFresh entry can be dropped outright instead of written as a
	// tombstone.
	flagFresh
)

func (f entryFlags) isDirty() bool { return f&flagDirty != 0 }
func (f entryFlags) isFresh() bool { return f&flagFresh != 0 }

// isClean reports whether the entry carries no flags at all, i.e. it is a
// pure read-through cache copy that is always safe to drop.
func (f entryFlags) isClean() bool { return f == 0 }
