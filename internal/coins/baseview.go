// Copyright (c) 2025 The hodlinator developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coins

// BaseView is the capability set any parent of a CacheView must provide.
// It is deliberately small and flat: both CacheView itself (so caches can
// be stacked to arbitrary depth) and LevelDBBaseView (the terminal,
// persistent layer) implement it, and neither needs to know which kind of
// parent it is talking to.
type BaseView interface {
	// GetCoin returns the coin stored at outpoint, and true, or the zero
	// Coin and false if the outpoint is not present at or below this
	// view.
	GetCoin(op Outpoint) (Coin, bool)

	// HaveCoin reports whether outpoint resolves to an unspent coin at or
	// below this view.
	HaveCoin(op Outpoint) bool

	// GetBestBlock returns the hash most recently written by BatchWrite,
	// or the zero hash if none has ever been written.
	GetBestBlock() Hash

	// BatchWrite drains cursor, merging each of its entries into this
	// view according to the DIRTY/FRESH merge rules, and records
	// bestBlock as the new best block unless this view treats a zero
	// bestBlock as "leave unchanged". An implementation that rejects the
	// call outright (an unset best block where this view requires one)
	// must do so before advancing the cursor at all, so the caller's
	// flagged entries survive for a retry; an error raised partway
	// through merging leaves everything already advanced mutated and
	// everything after it untouched.
	BatchWrite(cursor *Cursor, bestBlock Hash) error
}

// SizeEstimator is an optional capability a BaseView may also implement to
// report its approximate on-disk or in-memory footprint. Not every BaseView
// can estimate its size cheaply (a bare in-memory map has no separate
// notion of it), so this is kept as a distinct, optional interface rather
// than folded into BaseView itself.
type SizeEstimator interface {
	EstimateSize() (uint64, error)
}
