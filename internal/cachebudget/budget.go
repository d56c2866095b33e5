// Copyright (c) 2025 The hodlinator developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package cachebudget splits a single total cache-size budget, expressed in
// bytes, among the block-tree index, the persistent coin database, and the
// in-memory coin cache sitting above it. Coincached takes one `-dbcache`
// style flag from the operator and uses this package to decide how much of
// it each layer actually gets.
package cachebudget

const mib = 1 << 20

// MinTotalMiB is the smallest total budget coincached will accept, in MiB.
// Anything smaller is rounded up rather than rejected, matching the
// teacher's own -dbcache floor.
const MinTotalMiB = 4

// DefaultTotalMiB is the suggested default total budget, in MiB, for a node
// that hasn't been told otherwise.
const DefaultTotalMiB = 450

// maxBlockTreeDBMiB and maxCoinsDBMiB are hard ceilings on the block-tree
// and persistent-coin-database shares: past a certain size, leveldb's own
// cache stops paying for itself and the extra budget is better spent on
// the in-memory coin cache instead.
const (
	maxBlockTreeDBMiB = 2
	maxCoinsDBMiB     = 8
)

// Sizes is the result of splitting a total cache budget: how many bytes go
// to the block-tree database's own cache, how many go to the persistent
// coin database's own cache, and how many are left for the CacheView
// sitting in memory above both of them.
type Sizes struct {
	BlockTreeDB uint64
	CoinsDB     uint64
	Coins       uint64
}

// Calculate splits totalBytes among the three layers, in order:
//
//  1. The block-tree database gets min(totalBytes/8, 2 MiB).
//  2. Whatever remains, the coin database gets min(remaining/2, 8 MiB).
//  3. Whatever remains after that goes entirely to the in-memory coin
//     cache.
//
// This mirrors the priority order a persistent base actually needs the
// budget in: the indexes it needs to find records are cheap to cache fully,
// while the coin set itself is large enough that most of the budget should
// go to keeping hot coins in memory rather than to leveldb's own block
// cache.
func Calculate(totalBytes uint64) Sizes {
	remaining := totalBytes

	blockTreeDB := min64(remaining/8, maxBlockTreeDBMiB*mib)
	remaining -= blockTreeDB

	coinsDB := min64(remaining/2, maxCoinsDBMiB*mib)
	remaining -= coinsDB

	return Sizes{
		BlockTreeDB: blockTreeDB,
		CoinsDB:     coinsDB,
		Coins:       remaining,
	}
}

// CalculateMiB is a convenience wrapper around Calculate that takes and
// returns whole mebibytes, and applies MinTotalMiB as a floor — the
// convention coincached's config layer uses.
func CalculateMiB(totalMiB int64) Sizes {
	if totalMiB < MinTotalMiB {
		totalMiB = MinTotalMiB
	}
	return Calculate(uint64(totalMiB) * mib)
}

func min64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}
