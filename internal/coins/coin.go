// Copyright (c) 2025 The hodlinator developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coins

// baseCoinSize is the base size of a Coin on a 64-bit platform, excluding the
// contents of the script.  It approximates what unsafe.Sizeof(Coin{}) would
// return, and is used by the dynamic memory accounting below.
const baseCoinSize = 40

// Coin describes one transaction output: either unspent, in which case all of
// its fields describe the output, or spent, in which case it is in canonical
// cleared form (empty script, zero height).  Spent and unspent are the only
// two states a Coin can be in; there is no separate "absent" representation
// at this layer — absence is a property of the cache entry, not the Coin.
type Coin struct {
	Value      int64
	Script     []byte
	Height     uint32
	IsCoinbase bool
}

// NewCoin returns a new unspent Coin describing the given output.
func NewCoin(value int64, script []byte, height uint32, isCoinbase bool) Coin {
	return Coin{
		Value:      value,
		Script:     script,
		Height:     height,
		IsCoinbase: isCoinbase,
	}
}

// spentCoin returns the canonical spent Coin: empty script, zero height.  A
// Coin is spent iff it is equal to this value in those two fields; Clear
// normalizes any coin to this form.
func spentCoin() Coin {
	return Coin{}
}

// IsSpent reports whether the coin is in its canonical spent form: an empty
// script and a zero height.  This is the only test for spentness; there is no
// separate boolean flag on Coin itself.
func (c *Coin) IsSpent() bool {
	return len(c.Script) == 0 && c.Height == 0
}

// Clear resets the coin to its canonical spent form in place, dropping the
// script and value so the underlying backing array can be garbage collected.
func (c *Coin) Clear() {
	*c = spentCoin()
}

// size returns the approximate number of bytes the coin's payload
// contributes to dynamic memory usage, on a 64-bit platform.
func (c *Coin) size() uint64 {
	return uint64(baseCoinSize + len(c.Script))
}
