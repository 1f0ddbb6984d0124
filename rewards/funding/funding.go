// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package funding

import (
	"github.com/holiman/uint256"

	"github.com/gysr/ledger/fixed"
)

// Funding is one linear unlock schedule.
type Funding struct {
	Amount   *uint256.Int // tokens received when funded
	Shares   *uint256.Int // shares minted for the schedule
	Locked   *uint256.Int // shares still locked
	Duration uint64
	Start    uint64
	Updated  uint64
}

// End returns the timestamp at which the schedule is fully unlocked.
func (f *Funding) End() uint64 {
	return f.Start + f.Duration
}

// Expired returns whether the schedule has been advanced past its end.
func (f *Funding) Expired() bool {
	return f.Updated >= f.End()
}

// Drained returns whether the schedule is expired and holds no locked shares.
func (f *Funding) Drained() bool {
	return f.Locked.IsZero() && f.Expired()
}

func (f *Funding) Clone() *Funding {
	return &Funding{
		Amount:   fixed.Clone(f.Amount),
		Shares:   fixed.Clone(f.Shares),
		Locked:   fixed.Clone(f.Locked),
		Duration: f.Duration,
		Start:    f.Start,
		Updated:  f.Updated,
	}
}

// unlock advances the schedule to now and returns the shares released.
// Reaching the end releases whatever is still locked, so nothing is left behind by rounding.
func (f *Funding) unlock(now uint64) *uint256.Int {
	if now <= f.Start || now <= f.Updated {
		return fixed.Zero()
	}
	defer func() { f.Updated = now }()

	if f.Locked.IsZero() {
		return fixed.Zero()
	}

	var delta *uint256.Int
	if f.Duration == 0 || now >= f.End() {
		delta = fixed.Clone(f.Locked)
	} else {
		elapsed := now - f.Updated
		delta = fixed.MulDiv(f.Shares, uint256.NewInt(elapsed), uint256.NewInt(f.Duration))
		if delta.Cmp(f.Locked) > 0 {
			delta = fixed.Clone(f.Locked)
		}
	}
	f.Locked = new(uint256.Int).Sub(f.Locked, delta)
	return delta
}
