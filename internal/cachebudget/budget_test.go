// Copyright (c) 2025 The hodlinator developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cachebudget

import "testing"

func TestCalculateCapsBlockTreeDBShare(t *testing.T) {
	// 100 MiB / 8 = 12.5 MiB, well above the 2 MiB ceiling.
	got := Calculate(100 * mib)
	if got.BlockTreeDB != maxBlockTreeDBMiB*mib {
		t.Fatalf("BlockTreeDB = %d, want the %d MiB ceiling", got.BlockTreeDB, maxBlockTreeDBMiB)
	}
}

func TestCalculateCapsCoinsDBShare(t *testing.T) {
	// After a 2 MiB block-tree share, half of what's left is still above
	// the 8 MiB coins-DB ceiling for a large enough total.
	got := Calculate(200 * mib)
	if got.CoinsDB != maxCoinsDBMiB*mib {
		t.Fatalf("CoinsDB = %d, want the %d MiB ceiling", got.CoinsDB, maxCoinsDBMiB)
	}
}

func TestCalculateGivesRemainderToCoins(t *testing.T) {
	total := uint64(200 * mib)
	got := Calculate(total)
	sum := got.BlockTreeDB + got.CoinsDB + got.Coins
	if sum != total {
		t.Fatalf("shares sum to %d, want exactly the total %d", sum, total)
	}
}

func TestCalculateSmallBudgetSplitsProportionally(t *testing.T) {
	// A tiny total (below both ceilings) should still split via the /8 and
	// /2 rules rather than hand out the ceiling amounts.
	total := uint64(8 * mib)
	got := Calculate(total)
	wantBlockTreeDB := total / 8
	if got.BlockTreeDB != wantBlockTreeDB {
		t.Fatalf("BlockTreeDB = %d, want %d", got.BlockTreeDB, wantBlockTreeDB)
	}
	remaining := total - wantBlockTreeDB
	wantCoinsDB := remaining / 2
	if got.CoinsDB != wantCoinsDB {
		t.Fatalf("CoinsDB = %d, want %d", got.CoinsDB, wantCoinsDB)
	}
	if got.Coins != remaining-wantCoinsDB {
		t.Fatalf("Coins = %d, want %d", got.Coins, remaining-wantCoinsDB)
	}
}

func TestCalculateMiBAppliesFloor(t *testing.T) {
	got := CalculateMiB(1)
	total := got.BlockTreeDB + got.CoinsDB + got.Coins
	if total != MinTotalMiB*mib {
		t.Fatalf("total = %d, want the %d MiB floor applied", total, MinTotalMiB)
	}
}

func TestCalculateZeroBudgetYieldsZeroEverywhere(t *testing.T) {
	got := Calculate(0)
	if got.BlockTreeDB != 0 || got.CoinsDB != 0 || got.Coins != 0 {
		t.Fatalf("expected an all-zero split for a zero total, got %+v", got)
	}
}
