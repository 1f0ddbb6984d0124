// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"github.com/holiman/uint256"

	"github.com/gysr/ledger/fixed"
	"github.com/gysr/ledger/reverts"
	"github.com/gysr/ledger/rewards/bonus"
)

// Policy selects how a pool weighs the stakes it pays out.
// It is either Competitive or Friendly.
type Policy interface {
	Validate() error
	Name() string
	isPolicy()
}

// Competitive pays by share-seconds, boosting each consumed slice by a time bonus
// that grows from BonusMin to BonusMax over BonusPeriod seconds. Nothing is forfeited.
type Competitive struct {
	BonusMin    *uint256.Int
	BonusMax    *uint256.Int
	BonusPeriod uint64
}

func (Competitive) isPolicy() {}

func (Competitive) Name() string { return "competitive" }

func (c Competitive) Validate() error {
	if c.BonusMin == nil || c.BonusMax == nil {
		return reverts.New(reverts.InvalidArgument, "competitive bonus bounds are required")
	}
	if c.BonusMin.Cmp(fixed.One()) < 0 {
		return reverts.New(reverts.InvalidArgument, "bonus min is less than one")
	}
	if c.BonusMax.Cmp(c.BonusMin) < 0 {
		return reverts.New(reverts.InvalidArgument, "bonus max is less than bonus min")
	}
	return nil
}

// TimeBonus returns the multiplier of a stake of the given age.
func (c Competitive) TimeBonus(age uint64) *uint256.Int {
	return bonus.TimeBonus(age, c.BonusMin, c.BonusMax, c.BonusPeriod)
}

// Friendly pays by bonus-weighted shares and vests the payout of each slice from
// VestingStart to 1 over VestingPeriod seconds. The unvested part stays in the pool as dust.
type Friendly struct {
	VestingStart  *uint256.Int
	VestingPeriod uint64
}

func (Friendly) isPolicy() {}

func (Friendly) Name() string { return "friendly" }

func (f Friendly) Validate() error {
	if f.VestingStart == nil {
		return reverts.New(reverts.InvalidArgument, "vesting start is required")
	}
	if f.VestingStart.Cmp(fixed.One()) > 0 {
		return reverts.New(reverts.InvalidArgument, "vesting start is greater than one")
	}
	return nil
}

// Vesting returns the vested fraction of a stake of the given age.
func (f Friendly) Vesting(age uint64) *uint256.Int {
	return bonus.Vesting(age, f.VestingStart, f.VestingPeriod)
}
