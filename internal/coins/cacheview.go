// Copyright (c) 2025 The hodlinator developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coins

import (
	"sync"
)

// CacheView is an in-memory cache of coins layered over a BaseView parent,
// which may itself be another CacheView (letting caches stack to arbitrary
// depth) or the terminal, persistent backend.
//
// A CacheView is safe for concurrent use. Every public method takes the
// same mutex, including the read-only ones, because a cache miss on a
// nominally read-only operation still mutates the map (the result is
// pulled in from the parent and cached) — the access pattern that matters
// for concurrency is "is anyone else touching this view right now", not
// "is this particular call a read or a write".
type CacheView struct {
	mu sync.Mutex

	parent    BaseView
	entries   map[Outpoint]*entry
	flagged   flaggedList
	bestBlock Hash
	usage     uint64
	pool      *entryPool

	hits, misses uint64
}

// NewCacheView returns an empty CacheView layered over parent.
func NewCacheView(parent BaseView) *CacheView {
	c := &CacheView{
		parent:  parent,
		entries: make(map[Outpoint]*entry),
		pool:    &entryPool{},
	}
	c.flagged.init()
	return c
}

// setFlags assigns newFlags to e, linking or unlinking it from the flagged
// list as needed. It is the single place that keeps e.flags and the
// flagged list's membership in sync; every mutator in this file goes
// through it rather than writing e.flags directly.
func (c *CacheView) setFlags(e *entry, newFlags entryFlags) {
	wasLinked := e.inFlaggedList()
	e.flags = newFlags
	linked := newFlags != 0
	if linked && !wasLinked {
		c.flagged.push(e)
	} else if !linked && wasLinked {
		c.flagged.remove(e)
	}
}

// unlinkAndFree removes op's entry from the map and flagged list and
// returns its node to the pool. e must be the map's current entry for op.
func (c *CacheView) unlinkAndFree(op Outpoint, e *entry) {
	delete(c.entries, op)
	if e.inFlaggedList() {
		c.flagged.remove(e)
	}
	c.pool.put(e)
}

// fetchEntry returns the entry for op, pulling it from the parent chain
// and caching a CLEAN copy locally if it is not already present. The
// returned bool is false only when op is absent at every level, in which
// case nothing is inserted.
func (c *CacheView) fetchEntry(op Outpoint) (*entry, bool) {
	if e, ok := c.entries[op]; ok {
		c.hits++
		return e, true
	}
	c.misses++
	coin, ok := c.parent.GetCoin(op)
	if !ok {
		return nil, false
	}
	e := c.pool.get()
	e.op = op
	e.coin = coin
	c.entries[op] = e
	c.usage += e.size()
	return e, true
}

// AccessCoin returns the coin at op, pulling it from the parent chain if
// necessary. If op is not present anywhere in the chain, it returns a
// canonical spent coin that is not linked to the cache in any way. The
// returned pointer aliases the cache's own storage and is only valid until
// the next mutating call on this CacheView.
func (c *CacheView) AccessCoin(op Outpoint) *Coin {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.fetchEntry(op)
	if !ok {
		spent := spentCoin()
		return &spent
	}
	return &e.coin
}

// HaveCoin reports whether op resolves to an unspent coin anywhere in the
// parent chain, pulling it into the cache if it wasn't already present.
func (c *CacheView) HaveCoin(op Outpoint) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.fetchEntry(op)
	return ok && !e.coin.IsSpent()
}

// HaveCoinInCache reports whether op resolves to an unspent coin without
// consulting the parent chain at all. Unlike HaveCoin it never mutates the
// cache.
func (c *CacheView) HaveCoinInCache(op Outpoint) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[op]
	return ok && !e.coin.IsSpent()
}

// Uncache drops op's entry from the cache if it is present and CLEAN. It is
// a no-op if op is absent, or present with DIRTY or FRESH set — a modified
// entry can't be dropped without losing the modification.
func (c *CacheView) Uncache(op Outpoint) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[op]
	if !ok || !e.flags.isClean() {
		return
	}
	c.usage -= e.size()
	delete(c.entries, op)
	c.pool.put(e)
}

// AddCoin records coin as the output at op. If possibleOverwrite is false
// and op already resolves to an unspent coin locally, AddCoin fails with
// ErrInvariantViolated instead of silently clobbering it — the caller is
// expected to already know, from chain context, whether an overwrite is
// legitimate (e.g. replaying a duplicate coinbase from before BIP30).
//
// AddCoin only ever consults this view's own map, never the parent: an
// outpoint that isn't present locally is assumed spent for the purposes of
// this call, matching the FRESH bookkeeping below.
func (c *CacheView) AddCoin(op Outpoint, coin Coin, possibleOverwrite bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if coin.IsSpent() {
		return AssertError("AddCoin: coin must not already be spent")
	}

	e, found := c.entries[op]
	if !possibleOverwrite && found && !e.coin.IsSpent() {
		return contextError(ErrInvariantViolated,
			"AddCoin: outpoint %v already has an unspent entry and possibleOverwrite is false", op)
	}

	fresh := false
	if !found {
		e = c.pool.get()
		e.op = op
		c.entries[op] = e
		fresh = !possibleOverwrite
	} else {
		c.usage -= e.size()
		if !possibleOverwrite {
			fresh = !e.flags.isDirty()
		}
	}

	e.coin = coin
	c.usage += e.size()

	newFlags := e.flags | flagDirty
	if fresh {
		newFlags |= flagFresh
	}
	c.setFlags(e, newFlags)
	return nil
}

// SpendCoin marks the output at op spent, pulling it from the parent chain
// first if it isn't already cached. It returns true iff an unspent coin
// was actually consumed — spending an already-spent or wholly absent
// outpoint returns false and leaves the cache otherwise unchanged except
// for the read-through pull itself.
func (c *CacheView) SpendCoin(op Outpoint) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.fetchEntry(op)
	if !ok {
		return false
	}

	wasUnspent := !e.coin.IsSpent()
	if !wasUnspent {
		return false
	}
	c.usage -= e.size()

	if e.flags.isFresh() {
		c.unlinkAndFree(op, e)
		return wasUnspent
	}

	e.coin.Clear()
	c.usage += e.size()
	c.setFlags(e, e.flags|flagDirty)
	return wasUnspent
}

// GetCoin implements BaseView for a CacheView acting as somebody else's
// parent: it is exactly AccessCoin's pull-through behavior, returning a
// value copy rather than a pointer. Coin values are always replaced
// wholesale rather than mutated through their Script slice, so sharing the
// slice between this view's entry and the caller's copy is safe.
func (c *CacheView) GetCoin(op Outpoint) (Coin, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.fetchEntry(op)
	if !ok {
		return Coin{}, false
	}
	return e.coin, true
}

// GetBestBlock returns the hash most recently recorded by SetBestBlock or by
// a BatchWrite with a non-zero best block, or the zero hash if neither has
// happened.
func (c *CacheView) GetBestBlock() Hash {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bestBlock
}

// SetBestBlock records hash as this view's best block, to be passed to the
// parent's BatchWrite the next time Flush or Sync runs. It is the caller's
// responsibility to call this with a non-zero hash before flushing or
// syncing; Flush and Sync both reject a zero best block with
// ErrBestBlockUnset rather than silently propagating one.
func (c *CacheView) SetBestBlock(hash Hash) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bestBlock = hash
}

// BatchWrite implements BaseView for a CacheView acting as somebody else's
// parent. It merges every entry cursor yields into this view's map
// according to the DIRTY/FRESH rules below, then records bestBlock as the
// new best block — unless bestBlock is the zero hash, in which case this
// in-memory view leaves its best block unchanged (only the terminal,
// persistent backend is required to reject a zero best block outright).
//
// The merge rule for each (local entry, incoming entry) pair, where "local"
// may be absent:
//
//   - Incoming FRESH and local entry present and unspent: the caller
//     asserted no base holds an unspent record for this outpoint, but one
//     does. This is ErrInvariantViolated regardless of whether the
//     incoming coin itself is spent or unspent.
//   - Local entry absent, incoming FRESH and spent: drop — there was
//     nothing to record and nothing ever will be.
//   - Local entry absent, otherwise: create a local entry holding the
//     incoming coin, DIRTY, and FRESH iff the incoming entry was FRESH.
//   - Local entry present and FRESH, incoming spent: erase the local
//     entry — the grandparent has no record either, so there is nothing
//     left to preserve.
//   - Local entry present, otherwise: overwrite its coin with the
//     incoming one and OR in DIRTY, leaving any existing flags (including
//     a pre-existing FRESH) exactly as they were.
func (c *CacheView) BatchWrite(cursor *Cursor, bestBlock Hash) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for !cursor.Done() {
		op := cursor.Outpoint()
		incoming := cursor.Coin()
		incomingFresh := cursor.Fresh()

		local, found := c.entries[op]

		switch {
		case incomingFresh && found && !local.coin.IsSpent():
			return contextError(ErrInvariantViolated,
				"BatchWrite: FRESH flag misapplied to entry %v with an unspent base coin", op)

		case !found:
			if incomingFresh && incoming.IsSpent() {
				break
			}
			e := c.pool.get()
			e.op = op
			e.coin = incoming
			c.entries[op] = e
			c.usage += e.size()
			newFlags := flagDirty
			if incomingFresh {
				newFlags |= flagFresh
			}
			c.setFlags(e, newFlags)

		case local.flags.isFresh() && incoming.IsSpent():
			c.usage -= local.size()
			c.unlinkAndFree(op, local)

		default:
			c.usage -= local.size()
			local.coin = incoming
			c.usage += local.size()
			c.setFlags(local, local.flags|flagDirty)
		}

		cursor.Advance(cursor.WillErase())
	}

	if !bestBlock.IsZero() {
		c.bestBlock = bestBlock
	}
	return nil
}

// Flush propagates every DIRTY entry to the parent and erases the payload
// from this view as it goes: after a successful Flush, this view's map
// holds no entries that weren't already CLEAN before the call, and its
// memory usage reflects exactly that. It fails with ErrBestBlockUnset if
// this view's best block is still the zero hash, and with
// ErrBaseWriteFailed, whose description includes the parent's error text,
// if the parent's BatchWrite fails.
func (c *CacheView) Flush() error {
	return c.flushOrSync(true)
}

// Sync propagates every DIRTY entry to the parent exactly as Flush does,
// but leaves the coin payloads in this view, clearing their flags to CLEAN
// instead of erasing them. A second Sync (or Flush) immediately afterward
// is a no-op: the flagged list is already empty. It fails under the same
// conditions as Flush.
func (c *CacheView) Sync() error {
	return c.flushOrSync(false)
}

func (c *CacheView) flushOrSync(erase bool) error {
	verb, pastVerb := "sync", "synced"
	if erase {
		verb, pastVerb = "flush", "flushed"
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	bestBlock := c.bestBlock
	if bestBlock.IsZero() {
		return contextError(ErrBestBlockUnset, "best block must be set before flushing or syncing")
	}
	flagged := c.flagged.len
	ratio := hitRatio(c.hits, c.misses)
	cursor := newCursor(c, erase)

	log.Debugf("coin cache %s starting (%d entries, %.2f%% hit ratio)", verb, flagged, ratio)

	if err := c.parent.BatchWrite(cursor, bestBlock); err != nil {
		return contextError(ErrBaseWriteFailed, "base write failed: %v", err)
	}

	remaining := len(c.entries)

	log.Debugf("coin cache %s completed (%d entries %s, %d entries remaining)",
		verb, flagged, pastVerb, remaining)
	return nil
}

// hitRatio returns hits as a percentage of hits+misses, or 0 if there have
// been no lookups at all.
func hitRatio(hits, misses uint64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}

// DynamicMemoryUsage returns this view's current approximate memory
// footprint: the sum of every cached coin's payload size, plus the pool
// allocator's own chunk overhead. It does not include the fixed cost of
// the CacheView struct itself or the Go runtime's internal map overhead,
// neither of which varies with what is cached.
func (c *CacheView) DynamicMemoryUsage() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.usage + c.pool.usage()
}

// Stats returns the number of cache hits and misses this view has served
// since creation, for callers that want to size or tune the cache.
func (c *CacheView) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// EntryCount returns the number of entries currently held, CLEAN or
// otherwise. It is mainly useful for tests and diagnostics.
func (c *CacheView) EntryCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
