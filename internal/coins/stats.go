// Copyright (c) 2025 The hodlinator developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coins

import (
	"crypto/sha256"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb/util"
)

// Stats describes the shape of the full, persisted coin set: how many
// unspent outputs it holds, their total value, and a hash that changes if
// any single record changes, so two nodes can cheaply compare whether
// their sets match.
type Stats struct {
	Coins          int64
	Total          int64
	Size           int64
	SerializedHash Hash
}

// FetchStats scans every coin record in v and summarizes them. It does not
// consult any CacheView layered above v, so any uncommitted changes are
// invisible to it — the caller must Flush first if it wants a stats
// snapshot that includes them.
func (v *LevelDBBaseView) FetchStats() (*Stats, error) {
	var stats Stats
	digest := sha256.New()

	iter := v.db.NewIterator(util.BytesPrefix([]byte{keySetCoin}), nil)
	defer iter.Release()

	for iter.Next() {
		op, ok := outpointFromCoinKey(iter.Key())
		if !ok {
			return nil, contextError(ErrUtxoBackendCorruption, "malformed coin key %x", iter.Key())
		}
		raw := v.obfusKey.apply(iter.Value())
		coin, err := decodeCoin(raw)
		if err != nil {
			return nil, fmt.Errorf("corrupt coin record for %v: %w", op, err)
		}
		if coin.IsSpent() {
			return nil, AssertError(fmt.Sprintf("database holds a spent-coin record for %v", op))
		}

		stats.Coins++
		stats.Total += coin.Value
		stats.Size += int64(len(raw))

		leaf := sha256.Sum256(raw)
		digest.Write(leaf[:])
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("failed to scan coin database: %w", err)
	}

	copy(stats.SerializedHash[:], digest.Sum(nil))
	return &stats, nil
}
