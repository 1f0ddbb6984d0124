// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package positions

import (
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gysr/ledger/fixed"
	"github.com/gysr/ledger/gysr"
)

type ledgerOp struct {
	Push    bool
	Bob     bool
	Amount  uint16
	Elapsed uint8
}

func TestLedger_RandomOps(t *testing.T) {
	f := fuzz.New().NilChance(0).NumElements(1, 64)

	for round := 0; round < 50; round++ {
		var ops []ledgerOp
		f.Fuzz(&ops)

		l := New()
		held := map[gysr.Address]uint64{}
		var now uint64
		for _, op := range ops {
			now += uint64(op.Elapsed)
			account := alice
			if op.Bob {
				account = bob
			}
			amount := uint64(op.Amount)%1000 + 1

			if op.Push {
				require.NoError(t, l.Push(account, newStake(amount, "1", now)))
				held[account] += amount
				continue
			}
			shares := fixed.New(amount)
			if amount > held[account] {
				assert.Error(t, l.CheckConsume(account, shares))
				continue
			}
			slices, err := l.Consume(account, shares)
			require.NoError(t, err)

			sum := new(uint256.Int)
			for i, s := range slices {
				sum.Add(sum, s.Shares)
				if i > 0 {
					assert.LessOrEqual(t, s.Timestamp, slices[i-1].Timestamp, "newest stakes go first")
				}
			}
			assert.Equal(t, shares, sum)
			held[account] -= amount
		}

		assert.Equal(t, fixed.New(held[alice]), l.SharesOf(alice))
		assert.Equal(t, fixed.New(held[bob]), l.SharesOf(bob))
		assert.Equal(t, fixed.New(held[alice]+held[bob]), l.TotalShares())
		assert.Equal(t, l.TotalShares(), l.TotalWeight())
	}
}
