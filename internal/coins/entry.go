// Copyright (c) 2025 The hodlinator developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coins

// entry is a single cache map value: a coin payload, its flags, and the
// intrusive doubly-linked list pointers threading it onto the owning
// CacheView's flagged list.  prev/next are only meaningful while flags is
// non-zero; a CLEAN entry has both set to nil.
//
// The flagged list lets Flush/Sync walk exactly the entries that need to be
// written back without scanning the whole map.
type entry struct {
	op    Outpoint
	coin  Coin
	flags entryFlags
	prev  *entry
	next  *entry
}

// inFlaggedList reports whether the entry is currently linked onto a flagged
// list (true for any entry with flags set, since flagged entries are always
// linked and unflagged entries are never linked).
func (e *entry) inFlaggedList() bool {
	return e.next != nil
}

// size returns the entry's contribution to the running dynamic memory
// total: just the coin's payload cost. Flag and list-link overhead is
// constant per entry and is not tracked separately; it falls out of the
// map's own node overhead instead.
func (e *entry) size() uint64 {
	return e.coin.size()
}

// flaggedList is the intrusive, circular, sentinel-anchored list of entries
// with a non-empty flags field belonging to a single CacheView.  It supports
// O(1) linking, unlinking, and full iteration, which is the whole point of
// threading it through map values instead of keeping a second container.
type flaggedList struct {
	sentinel entry
	len      int
}

func (l *flaggedList) init() {
	l.sentinel.prev = &l.sentinel
	l.sentinel.next = &l.sentinel
	l.len = 0
}

// push links e onto the list immediately before the sentinel (i.e. at the
// tail).  e must not already be linked onto any flagged list.
func (l *flaggedList) push(e *entry) {
	tail := l.sentinel.prev
	e.prev = tail
	e.next = &l.sentinel
	tail.next = e
	l.sentinel.prev = e
	l.len++
}

// remove unlinks e from the list.  e must currently be linked onto this
// list.  After remove, e.prev and e.next are both nil so inFlaggedList
// reports false for it.
func (l *flaggedList) remove(e *entry) {
	e.prev.next = e.next
	e.next.prev = e.prev
	e.prev = nil
	e.next = nil
	l.len--
}

// forEach calls fn for every entry currently on the list, in list order.  fn
// must not link or unlink entries other than the one it was called with.
// The Cursor in cursor.go does not use forEach; it walks the list itself
// under the same rule, capturing next before unlinking the current entry.
func (l *flaggedList) forEach(fn func(*entry)) {
	for e := l.sentinel.next; e != &l.sentinel; {
		next := e.next
		fn(e)
		e = next
	}
}
