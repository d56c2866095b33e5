// Copyright (c) 2025 The hodlinator developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coins

import "sync"

// entryChunkSize is the number of entries the pool allocates at a time.  It
// is a performance tuning knob, not a correctness requirement: a
// reimplementation is free to pick a different chunk size, or none at all.
const entryChunkSize = 128

// entryNodeOverhead is the per-entry bookkeeping overhead charged against the
// map itself (bucket/pointer/flag-link overhead), independent of the coin
// payload the entry holds.  It was derived the same way dcrd's mapOverhead
// constant was: inspecting actual map sizes at various entry counts.
const entryNodeOverhead = 48 + 2*pointerSize

// pointerSize is the size of a pointer on a 64-bit platform.
const pointerSize = 8

// entryPool hands out *entry values in chunks, amortizing the allocator
// overhead that comes from inserting and evicting cache entries one at a
// time during block connection.  It is not required for correctness: a
// reimplementation may replace it with plain `new(entry)` at the cost of
// throughput, and the dynamic memory accounting still holds either way.
type entryPool struct {
	mu         sync.Mutex
	free       []*entry
	chunkCount int
}

// get returns a zeroed *entry, refilling the free list from a fresh chunk if
// it is empty.
func (p *entryPool) get() *entry {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.free) == 0 {
		chunk := make([]entry, entryChunkSize)
		p.chunkCount++
		for i := range chunk {
			p.free = append(p.free, &chunk[i])
		}
	}

	n := len(p.free) - 1
	e := p.free[n]
	p.free[n] = nil
	p.free = p.free[:n]
	*e = entry{}
	return e
}

// put returns e to the pool's free list for reuse.  e must not be reachable
// from the owning CacheView's map or flagged list anymore.
func (p *entryPool) put(e *entry) {
	p.mu.Lock()
	p.free = append(p.free, e)
	p.mu.Unlock()
}

// usage returns the pool's own contribution to dynamic memory usage: one
// chunk's worth of entry-node overhead per allocated chunk.  It is always
// at least entryNodeOverhead*entryChunkSize once the pool has allocated a
// single chunk.
func (p *entryPool) usage() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return uint64(p.chunkCount) * entryChunkSize * entryNodeOverhead
}
