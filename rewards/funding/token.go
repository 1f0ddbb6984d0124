// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package funding

import (
	"github.com/holiman/uint256"

	"github.com/gysr/ledger/fixed"
	"github.com/gysr/ledger/gysr"
)

// Token is the reward-token context: its active schedules and its share accounting.
//
// Shares are claims on the pool's live token balance. They are minted 1:1 with the first
// funding and at the prevailing balance/share rate afterwards, so fee-on-transfer and
// rebasing tokens move the rate instead of corrupting the ledger.
type Token struct {
	Address  gysr.Address
	Fundings []*Funding
	Locked   *uint256.Int // Σ locked shares over active fundings
	Total    *uint256.Int // locked + unlocked shares
	Dust     *uint256.Int // cumulative shares forfeited back into the unlocked pool
	Funded   *uint256.Int // cumulative tokens received
	Paid     *uint256.Int // cumulative tokens paid out
}

func newToken(addr gysr.Address) *Token {
	return &Token{
		Address: addr,
		Locked:  fixed.Zero(),
		Total:   fixed.Zero(),
		Dust:    fixed.Zero(),
		Funded:  fixed.Zero(),
		Paid:    fixed.Zero(),
	}
}

// Unlocked returns the shares available for distribution.
func (t *Token) Unlocked() *uint256.Int {
	return fixed.Sub(t.Total, t.Locked)
}

// SharesToTokens converts shares into tokens at the live balance/share rate.
func (t *Token) SharesToTokens(shares, balance *uint256.Int) *uint256.Int {
	return fixed.MulDiv(shares, balance, t.Total)
}

// TokensToShares converts a deposit into shares given the balance held before it.
func (t *Token) TokensToShares(amount, balanceBefore *uint256.Int) *uint256.Int {
	if t.Total.IsZero() || balanceBefore.IsZero() {
		return fixed.Clone(amount)
	}
	return fixed.MulDiv(amount, t.Total, balanceBefore)
}

// Unlock advances every active funding to now and returns the shares released in total.
func (t *Token) Unlock(now uint64) *uint256.Int {
	total := fixed.Zero()
	for _, f := range t.Fundings {
		delta := f.unlock(now)
		if delta.IsZero() {
			continue
		}
		total.Add(total, delta)
	}
	t.Locked = fixed.Sub(t.Locked, total)
	return total
}

// Clean removes drained fundings by swapping the last live entry into their slot.
// Indexes are therefore not stable across calls.
func (t *Token) Clean() []*Funding {
	var removed []*Funding
	for i := 0; i < len(t.Fundings); {
		f := t.Fundings[i]
		if !f.Drained() {
			i++
			continue
		}
		last := len(t.Fundings) - 1
		t.Fundings[i] = t.Fundings[last]
		t.Fundings[last] = nil
		t.Fundings = t.Fundings[:last]
		removed = append(removed, f)
	}
	return removed
}

// Pay retires paid shares and records the tokens transferred for them.
func (t *Token) Pay(shares, tokens *uint256.Int) {
	t.Total = fixed.Sub(t.Total, shares)
	t.Paid = fixed.Add(t.Paid, tokens)
}

// Forfeit records shares withheld from a payout; they stay in the unlocked pool.
func (t *Token) Forfeit(shares *uint256.Int) {
	t.Dust = fixed.Add(t.Dust, shares)
}

func (t *Token) Clone() *Token {
	c := &Token{
		Address:  t.Address,
		Fundings: make([]*Funding, 0, len(t.Fundings)),
		Locked:   fixed.Clone(t.Locked),
		Total:    fixed.Clone(t.Total),
		Dust:     fixed.Clone(t.Dust),
		Funded:   fixed.Clone(t.Funded),
		Paid:     fixed.Clone(t.Paid),
	}
	for _, f := range t.Fundings {
		c.Fundings = append(c.Fundings, f.Clone())
	}
	return c
}
