// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package bonus

import (
	"github.com/holiman/uint256"

	"github.com/gysr/ledger/fixed"
)

// Usage tracks the pool-wide, bonus-weighted fraction of staked shares that paid for a GYSR bonus.
// The ratio lives in [0, 1) and is updated incrementally as shares enter or leave the pool.
type Usage struct {
	ratio *uint256.Int
}

func NewUsage() *Usage {
	return &Usage{ratio: fixed.Zero()}
}

// RestoreUsage rebuilds a usage tracker from a persisted ratio.
func RestoreUsage(ratio *uint256.Int) *Usage {
	u := &Usage{ratio: fixed.Clone(ratio)}
	u.clamp()
	return u
}

// Ratio returns a copy of the current usage ratio.
func (u *Usage) Ratio() *uint256.Int {
	return fixed.Clone(u.ratio)
}

func (u *Usage) Clone() *Usage {
	return &Usage{ratio: fixed.Clone(u.ratio)}
}

// Contribution is the usage weight carried by shares boosted with bonus: (bonus-1)/bonus.
func Contribution(bonus *uint256.Int) *uint256.Int {
	if bonus.Cmp(fixed.One()) <= 0 {
		return fixed.Zero()
	}
	return fixed.Div(new(uint256.Int).Sub(bonus, fixed.One()), bonus)
}

// Add folds shares boosted with bonus into a pool that held total shares before the addition.
//
//	u' = (T*u + S*c) / (T+S)
func (u *Usage) Add(total, shares, bonus *uint256.Int) {
	if shares.IsZero() {
		return
	}
	num := fixed.Add(fixed.Mul(total, u.ratio), fixed.Mul(shares, Contribution(bonus)))
	u.ratio = fixed.Div(num, fixed.Add(total, shares))
	u.clamp()
}

// Remove takes shares that were boosted with bonus out of a pool that held total shares before the removal.
//
//	u' = (T*u - S*c) / (T-S)
func (u *Usage) Remove(total, shares, bonus *uint256.Int) {
	if shares.IsZero() {
		return
	}
	if total.Cmp(shares) <= 0 {
		u.ratio = fixed.Zero()
		return
	}
	num := fixed.Sub(fixed.Mul(total, u.ratio), fixed.Mul(shares, Contribution(bonus)))
	u.ratio = fixed.Div(num, new(uint256.Int).Sub(total, shares))
	u.clamp()
}

func (u *Usage) clamp() {
	one := fixed.One()
	if u.ratio.Cmp(one) >= 0 {
		u.ratio = one.SubUint64(one, 1)
	}
}
