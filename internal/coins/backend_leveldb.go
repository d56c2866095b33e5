// Copyright (c) 2025 The hodlinator developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coins

import (
	"crypto/rand"
	"errors"
	"fmt"
	"os"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// LevelDBBaseView is the terminal, persistent BaseView: the bottom of any
// stack of CacheViews. Unlike a CacheView, it has no parent of its own and
// rejects a zero best block outright instead of treating it as "leave
// unchanged" — there is nowhere further down the chain for an unset best
// block to be meaningful.
type LevelDBBaseView struct {
	db       *leveldb.DB
	obfusKey obfuscationKey
}

var _ BaseView = (*LevelDBBaseView)(nil)
var _ SizeEstimator = (*LevelDBBaseView)(nil)

// OpenLevelDBBaseView opens (creating if necessary) a leveldb database at
// dataDir to back a LevelDBBaseView. A fresh obfuscation key is generated
// and persisted the first time the database is created; on subsequent
// opens, the existing key is read back and reused so previously written
// records can still be decoded.
func OpenLevelDBBaseView(dataDir string) (*LevelDBBaseView, error) {
	dbExists := fileExists(dataDir)
	if !dbExists {
		if err := os.MkdirAll(dataDir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create utxo database directory: %w", err)
		}
	}

	log.Infof("Loading coin database from '%s'", dataDir)
	opts := opt.Options{
		ErrorIfExist: !dbExists,
		Strict:       opt.DefaultStrict,
		Compression:  opt.NoCompression,
		Filter:       filter.NewBloomFilter(10),
	}
	db, err := leveldb.OpenFile(dataDir, &opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open coin database: %w", err)
	}

	v := &LevelDBBaseView{db: db}
	if err := v.loadOrCreateObfuscationKey(); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Info("coin database loaded")
	return v, nil
}

// Close releases the underlying leveldb database. The view must not be used
// afterward.
func (v *LevelDBBaseView) Close() error {
	return v.db.Close()
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// wrapLevelDBErr wraps a leveldb error with desc, converting it to
// ErrUtxoBackendNotOpen when it indicates the database has already been
// closed rather than leaving it as an opaque wrapped error.
func wrapLevelDBErr(err error, desc string) error {
	if errors.Is(err, leveldb.ErrClosed) {
		return contextError(ErrUtxoBackendNotOpen, "%s: %v", desc, err)
	}
	return fmt.Errorf("%s: %w", desc, err)
}

func (v *LevelDBBaseView) loadOrCreateObfuscationKey() error {
	raw, err := v.db.Get(obfuscationKeyKeyBytes, nil)
	if err != nil && !errors.Is(err, leveldb.ErrNotFound) {
		return fmt.Errorf("failed to read obfuscation key: %w", err)
	}
	if err == nil && len(raw) == obfuscationKeySize {
		copy(v.obfusKey[:], raw)
		return nil
	}

	var seed [obfuscationKeySize]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return fmt.Errorf("failed to generate obfuscation key: %w", err)
	}
	v.obfusKey = newObfuscationKey(seed)
	if err := v.db.Put(obfuscationKeyKeyBytes, v.obfusKey[:], nil); err != nil {
		return fmt.Errorf("failed to persist obfuscation key: %w", err)
	}
	return nil
}

// GetCoin implements BaseView.
func (v *LevelDBBaseView) GetCoin(op Outpoint) (Coin, bool) {
	raw, err := v.db.Get(coinKey(op), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return Coin{}, false
		}
		log.Warnf("%v", wrapLevelDBErr(err, fmt.Sprintf("failed to read coin %v from database", op)))
		return Coin{}, false
	}
	coin, decErr := decodeCoin(v.obfusKey.apply(raw))
	if decErr != nil {
		log.Warnf("corrupt coin record for %v: %v", op, decErr)
		return Coin{}, false
	}
	return coin, true
}

// HaveCoin implements BaseView.
func (v *LevelDBBaseView) HaveCoin(op Outpoint) bool {
	coin, ok := v.GetCoin(op)
	return ok && !coin.IsSpent()
}

// GetBestBlock implements BaseView.
func (v *LevelDBBaseView) GetBestBlock() Hash {
	raw, err := v.db.Get(bestBlockKeyBytes, nil)
	if err != nil {
		return Hash{}
	}
	var h Hash
	copy(h[:], raw)
	return h
}

// BatchWrite implements BaseView. Unlike CacheView.BatchWrite, a zero
// bestBlock is rejected outright: there is no further parent for an
// unset best block to defer to.
func (v *LevelDBBaseView) BatchWrite(cursor *Cursor, bestBlock Hash) error {
	if bestBlock.IsZero() {
		// Reject before touching the cursor at all: draining it here would
		// erase or clear the caller's flagged entries for a write that
		// never happened, losing data that a caller fixing the best block
		// and retrying would expect to still be there.
		return contextError(ErrBestBlockUnset, "refusing to commit a batch with a zero best block")
	}

	batch := new(leveldb.Batch)
	for !cursor.Done() {
		op := cursor.Outpoint()
		coin := cursor.Coin()
		key := coinKey(op)
		if coin.IsSpent() {
			batch.Delete(key)
		} else {
			batch.Put(key, v.obfusKey.apply(encodeCoin(coin)))
		}
		cursor.Advance(cursor.WillErase())
	}
	batch.Put(bestBlockKeyBytes, bestBlock[:])

	if err := v.db.Write(batch, nil); err != nil {
		return wrapLevelDBErr(err, "failed to commit coin batch")
	}
	return nil
}

// EstimateSize implements SizeEstimator by summing leveldb's own approximate
// on-disk size for the coin key range.
func (v *LevelDBBaseView) EstimateSize() (uint64, error) {
	r := util.BytesPrefix([]byte{keySetCoin})
	sizes, err := v.db.SizeOf([]util.Range{*r})
	if err != nil {
		return 0, wrapLevelDBErr(err, "failed to estimate coin database size")
	}
	return uint64(sizes.Sum()), nil
}
