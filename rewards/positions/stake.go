// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package positions

import (
	"github.com/holiman/uint256"

	"github.com/gysr/ledger/fixed"
)

// Stake is one entry of an account's position stack.
type Stake struct {
	Shares    *uint256.Int // raw staking shares
	Gysr      *uint256.Int // GYSR spent on the stake, not yet vested
	Bonus     *uint256.Int // GYSR multiplier frozen when the stake was made
	Timestamp uint64
}

// Weight returns the bonus-applied weight of the stake: shares * bonus.
func (s *Stake) Weight() *uint256.Int {
	return fixed.Mul(s.Shares, s.Bonus)
}

// Age returns the seconds elapsed since the stake was made.
func (s *Stake) Age(now uint64) uint64 {
	if now <= s.Timestamp {
		return 0
	}
	return now - s.Timestamp
}

func (s *Stake) Clone() *Stake {
	return &Stake{
		Shares:    fixed.Clone(s.Shares),
		Gysr:      fixed.Clone(s.Gysr),
		Bonus:     fixed.Clone(s.Bonus),
		Timestamp: s.Timestamp,
	}
}

// split cuts shares off the stake and returns them as a separate slice.
// The stake keeps its bonus and timestamp; GYSR is split pro rata.
func (s *Stake) split(shares *uint256.Int) *Stake {
	gysr := fixed.MulDiv(s.Gysr, shares, s.Shares)
	slice := &Stake{
		Shares:    fixed.Clone(shares),
		Gysr:      gysr,
		Bonus:     fixed.Clone(s.Bonus),
		Timestamp: s.Timestamp,
	}
	s.Shares = new(uint256.Int).Sub(s.Shares, shares)
	s.Gysr = fixed.Sub(s.Gysr, gysr)
	return slice
}
