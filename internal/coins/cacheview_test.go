// Copyright (c) 2025 The hodlinator developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coins

import (
	"errors"
	"testing"
)

// fakeBaseView is a minimal in-memory BaseView used as the terminal layer
// in tests that need a real parent chain but don't want to touch disk.
// It applies the same zero-best-block rejection LevelDBBaseView does,
// since that's the behavior distinguishing a terminal base from an
// in-memory CacheView acting as a parent.
type fakeBaseView struct {
	coins     map[Outpoint]Coin
	bestBlock Hash
}

func newFakeBaseView() *fakeBaseView {
	return &fakeBaseView{coins: make(map[Outpoint]Coin)}
}

func (f *fakeBaseView) GetCoin(op Outpoint) (Coin, bool) {
	c, ok := f.coins[op]
	return c, ok
}

func (f *fakeBaseView) HaveCoin(op Outpoint) bool {
	c, ok := f.coins[op]
	return ok && !c.IsSpent()
}

func (f *fakeBaseView) GetBestBlock() Hash {
	return f.bestBlock
}

func (f *fakeBaseView) BatchWrite(cursor *Cursor, bestBlock Hash) error {
	if bestBlock.IsZero() {
		return contextError(ErrBestBlockUnset, "fakeBaseView: best block must be set")
	}
	for !cursor.Done() {
		op := cursor.Outpoint()
		coin := cursor.Coin()
		if coin.IsSpent() {
			delete(f.coins, op)
		} else {
			f.coins[op] = coin
		}
		cursor.Advance(cursor.WillErase())
	}
	f.bestBlock = bestBlock
	return nil
}

func opAt(b byte, index uint32) Outpoint {
	var h Hash
	h[0] = b
	return Outpoint{Hash: h, Index: index}
}

// recomputeUsage independently sums every cached entry's size, mirroring
// what DynamicMemoryUsage's coin-payload component is supposed to equal.
func recomputeUsage(c *CacheView) uint64 {
	var total uint64
	for _, e := range c.entries {
		total += e.size()
	}
	return total
}

func TestAddCoinRejectsOverwriteWithoutFlag(t *testing.T) {
	c := NewCacheView(newFakeBaseView())
	op := opAt(1, 0)

	if err := c.AddCoin(op, unspentCoin(10), false); err != nil {
		t.Fatalf("first AddCoin: unexpected error: %v", err)
	}
	err := c.AddCoin(op, unspentCoin(11), false)
	if err == nil {
		t.Fatalf("expected error overwriting unspent coin without possibleOverwrite")
	}
	if !errors.Is(err, ErrInvariantViolated) {
		t.Fatalf("expected ErrInvariantViolated, got %v", err)
	}

	// The original coin must still be intact after the rejected overwrite.
	got := c.AccessCoin(op)
	if got.Value != 10 {
		t.Fatalf("expected original coin to survive rejected overwrite, got value %d", got.Value)
	}

	if got, want := c.DynamicMemoryUsage()-c.pool.usage(), recomputeUsage(c); got != want {
		t.Fatalf("tracked usage %d does not match independently recomputed usage %d after rejected AddCoin", got, want)
	}
}

func TestAddCoinWithPossibleOverwriteSucceeds(t *testing.T) {
	c := NewCacheView(newFakeBaseView())
	op := opAt(2, 0)

	if err := c.AddCoin(op, unspentCoin(10), false); err != nil {
		t.Fatalf("AddCoin: %v", err)
	}
	if err := c.AddCoin(op, unspentCoin(99), true); err != nil {
		t.Fatalf("AddCoin with possibleOverwrite: unexpected error: %v", err)
	}
	if got := c.AccessCoin(op); got.Value != 99 {
		t.Fatalf("expected overwritten value 99, got %d", got.Value)
	}
}

func TestSpendCoinDropsFreshEntryEntirely(t *testing.T) {
	c := NewCacheView(newFakeBaseView())
	op := opAt(3, 0)

	if err := c.AddCoin(op, unspentCoin(5), false); err != nil {
		t.Fatalf("AddCoin: %v", err)
	}
	if ok := c.SpendCoin(op); !ok {
		t.Fatalf("expected SpendCoin to report an unspent coin was consumed")
	}
	if _, ok := c.entries[op]; ok {
		t.Fatalf("expected FRESH entry to be dropped entirely on spend, found %v", op)
	}
	if c.EntryCount() != 0 {
		t.Fatalf("expected empty map after dropping the only entry, got %d entries", c.EntryCount())
	}
}

func TestSpendCoinTombstonesNonFreshEntry(t *testing.T) {
	base := newFakeBaseView()
	op := opAt(4, 0)
	base.coins[op] = unspentCoin(7)

	c := NewCacheView(base)
	if ok := c.SpendCoin(op); !ok {
		t.Fatalf("expected SpendCoin to report an unspent coin was consumed")
	}

	e, ok := c.entries[op]
	if !ok {
		t.Fatalf("expected a tombstone entry to remain for a pulled, non-fresh spend")
	}
	if !e.coin.IsSpent() {
		t.Fatalf("expected tombstone entry to hold a spent coin")
	}
	if !e.flags.isDirty() {
		t.Fatalf("expected tombstone entry to be DIRTY")
	}
}

func TestSpendCoinOfAlreadySpentOrAbsentReturnsFalse(t *testing.T) {
	c := NewCacheView(newFakeBaseView())
	op := opAt(5, 0)

	if ok := c.SpendCoin(op); ok {
		t.Fatalf("expected SpendCoin of an absent outpoint to return false")
	}

	if err := c.AddCoin(op, unspentCoin(1), false); err != nil {
		t.Fatalf("AddCoin: %v", err)
	}
	if ok := c.SpendCoin(op); !ok {
		t.Fatalf("expected first spend to report true")
	}
	// The first spend dropped the entry entirely, since it was FRESH (the
	// outpoint was never in the parent). Spending it again now behaves
	// exactly like spending an outpoint that was never added.
	if ok := c.SpendCoin(op); ok {
		t.Fatalf("expected a second spend of the same outpoint to report false")
	}
}

func TestHaveCoinInCacheDoesNotPullFromParent(t *testing.T) {
	base := newFakeBaseView()
	op := opAt(6, 0)
	base.coins[op] = unspentCoin(3)

	c := NewCacheView(base)
	if c.HaveCoinInCache(op) {
		t.Fatalf("expected HaveCoinInCache to report false before any pull")
	}
	if c.EntryCount() != 0 {
		t.Fatalf("expected HaveCoinInCache not to have pulled anything in")
	}
	if !c.HaveCoin(op) {
		t.Fatalf("expected HaveCoin to pull from parent and report true")
	}
	if !c.HaveCoinInCache(op) {
		t.Fatalf("expected HaveCoinInCache to report true after HaveCoin pulled it in")
	}
}

func TestUncacheOnlyDropsCleanEntries(t *testing.T) {
	base := newFakeBaseView()
	op := opAt(7, 0)
	base.coins[op] = unspentCoin(1)

	c := NewCacheView(base)
	c.HaveCoin(op) // pull a CLEAN copy in
	c.Uncache(op)
	if c.EntryCount() != 0 {
		t.Fatalf("expected Uncache to drop a CLEAN entry")
	}

	op2 := opAt(8, 0)
	if err := c.AddCoin(op2, unspentCoin(2), false); err != nil {
		t.Fatalf("AddCoin: %v", err)
	}
	c.Uncache(op2)
	if c.EntryCount() != 1 {
		t.Fatalf("expected Uncache to leave a DIRTY entry in place")
	}
}

func TestFlushRequiresBestBlock(t *testing.T) {
	c := NewCacheView(newFakeBaseView())
	if err := c.AddCoin(opAt(9, 0), unspentCoin(1), false); err != nil {
		t.Fatalf("AddCoin: %v", err)
	}
	err := c.Flush()
	if err == nil {
		t.Fatalf("expected Flush without a best block to fail")
	}
	if !errors.Is(err, ErrBestBlockUnset) {
		t.Fatalf("expected ErrBestBlockUnset, got %v", err)
	}
}

func TestFlushDrainsAndPropagates(t *testing.T) {
	base := newFakeBaseView()
	c := NewCacheView(base)
	op := opAt(10, 0)

	if err := c.AddCoin(op, unspentCoin(123), false); err != nil {
		t.Fatalf("AddCoin: %v", err)
	}
	c.SetBestBlock(Hash{1})
	if err := c.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	if c.EntryCount() != 0 {
		t.Fatalf("expected cache to be empty after Flush, got %d entries", c.EntryCount())
	}
	if c.flagged.len != 0 {
		t.Fatalf("expected flagged list to be empty after Flush")
	}
	if got, want := c.DynamicMemoryUsage()-c.pool.usage(), recomputeUsage(c); got != want {
		t.Fatalf("tracked usage %d does not match independently recomputed usage %d after Flush", got, want)
	}
	got, ok := base.GetCoin(op)
	if !ok || got.Value != 123 {
		t.Fatalf("expected flushed coin to land in the base, got %+v, %v", got, ok)
	}
}

func TestSyncLeavesPayloadAndIsIdempotent(t *testing.T) {
	base := newFakeBaseView()
	c := NewCacheView(base)
	op := opAt(11, 0)

	if err := c.AddCoin(op, unspentCoin(55), false); err != nil {
		t.Fatalf("AddCoin: %v", err)
	}
	c.SetBestBlock(Hash{2})
	if err := c.Sync(); err != nil {
		t.Fatalf("first Sync: %v", err)
	}

	e, ok := c.entries[op]
	if !ok {
		t.Fatalf("expected entry to remain in cache after Sync")
	}
	if !e.flags.isClean() {
		t.Fatalf("expected entry to be CLEAN after Sync, got flags %v", e.flags)
	}

	usageBefore := c.DynamicMemoryUsage()
	if err := c.Sync(); err != nil {
		t.Fatalf("second Sync: %v", err)
	}
	if c.flagged.len != 0 {
		t.Fatalf("expected flagged list to stay empty across repeated Sync")
	}
	if c.DynamicMemoryUsage() != usageBefore {
		t.Fatalf("expected a no-op second Sync to leave memory usage unchanged")
	}
}

func TestDynamicMemoryUsageMatchesIndependentRecomputation(t *testing.T) {
	c := NewCacheView(newFakeBaseView())
	for i := byte(0); i < 20; i++ {
		op := opAt(i, 0)
		coin := NewCoin(int64(i)*10, make([]byte, i), 1, false)
		if err := c.AddCoin(op, coin, false); err != nil {
			t.Fatalf("AddCoin: %v", err)
		}
	}
	c.SpendCoin(opAt(5, 0))
	c.AddCoin(opAt(21, 0), unspentCoin(1), false)

	got := c.DynamicMemoryUsage() - c.pool.usage()
	want := recomputeUsage(c)
	if got != want {
		t.Fatalf("tracked usage %d does not match independently recomputed usage %d", got, want)
	}
}

// TestCacheStackingPullsThroughMultipleLevels exercises arbitrary-depth
// stacking: a CacheView layered over another CacheView layered over a
// terminal fakeBaseView. A coin written at the bottom level must be
// visible, and cached, at every level above it.
func TestCacheStackingPullsThroughMultipleLevels(t *testing.T) {
	base := newFakeBaseView()
	op := opAt(12, 0)
	base.coins[op] = unspentCoin(77)

	mid := NewCacheView(base)
	top := NewCacheView(mid)

	if !top.HaveCoin(op) {
		t.Fatalf("expected top-level cache to see a coin two levels down")
	}
	if !mid.HaveCoinInCache(op) {
		t.Fatalf("expected the pull-through to have cached the coin at the middle level too")
	}
}

// TestFlushPropagatesThroughMultipleLevels checks that flushing the top of
// a three-level stack, then flushing the middle, lands the coin in the
// terminal base.
func TestFlushPropagatesThroughMultipleLevels(t *testing.T) {
	base := newFakeBaseView()
	mid := NewCacheView(base)
	top := NewCacheView(mid)
	op := opAt(13, 0)

	if err := top.AddCoin(op, unspentCoin(88), false); err != nil {
		t.Fatalf("AddCoin: %v", err)
	}
	top.SetBestBlock(Hash{3})
	if err := top.Flush(); err != nil {
		t.Fatalf("top.Flush: %v", err)
	}

	if !mid.HaveCoinInCache(op) {
		t.Fatalf("expected the coin to have landed in mid's own map after top.Flush")
	}
	if _, ok := base.GetCoin(op); ok {
		t.Fatalf("expected the coin not to reach the base before mid.Flush")
	}

	mid.SetBestBlock(Hash{3})
	if err := mid.Flush(); err != nil {
		t.Fatalf("mid.Flush: %v", err)
	}
	got, ok := base.GetCoin(op)
	if !ok || got.Value != 88 {
		t.Fatalf("expected the coin to reach the base after mid.Flush, got %+v, %v", got, ok)
	}
}
