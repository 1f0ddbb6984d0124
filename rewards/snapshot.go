// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/gysr/ledger/fixed"
	"github.com/gysr/ledger/gysr"
	"github.com/gysr/ledger/rewards/bonus"
	"github.com/gysr/ledger/rewards/funding"
	"github.com/gysr/ledger/rewards/positions"
)

// Snapshot is the committed state of a pool, detached from it.
// Funding and stake order is preserved.
type Snapshot struct {
	Tokens       []*funding.Token
	Accounts     []AccountStakes
	Usage        *uint256.Int
	ShareSeconds *uint256.Int
	Updated      uint64
}

// AccountStakes is the stack of one account, oldest first.
type AccountStakes struct {
	Account gysr.Address
	Stakes  []*positions.Stake
}

// Snapshot copies the committed state of the pool.
func (p *Pool) Snapshot() *Snapshot {
	p.stMu.RLock()
	st := p.st.clone()
	p.stMu.RUnlock()

	snap := &Snapshot{
		Usage:        st.usage.Ratio(),
		ShareSeconds: fixed.Clone(st.shareSeconds),
		Updated:      st.updated,
	}
	for _, addr := range st.funding.Tokens() {
		snap.Tokens = append(snap.Tokens, st.funding.Token(addr))
	}
	for _, acc := range st.ledger.Accounts() {
		snap.Accounts = append(snap.Accounts, AccountStakes{Account: acc, Stakes: st.ledger.Stakes(acc)})
	}
	return snap
}

// Restore rebuilds a pool from a snapshot.
func Restore(cfg Config, snap *Snapshot) (*Pool, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	st := &state{
		funding:      funding.New(cfg.MaxFundings),
		ledger:       positions.New(),
		usage:        bonus.RestoreUsage(fixed.Clone(snap.Usage)),
		shareSeconds: fixed.Clone(snap.ShareSeconds),
		updated:      snap.Updated,
	}
	for _, tok := range snap.Tokens {
		st.funding.Restore(tok.Clone())
	}
	for _, acc := range snap.Accounts {
		stack := make([]*positions.Stake, 0, len(acc.Stakes))
		for _, s := range acc.Stakes {
			stack = append(stack, s.Clone())
		}
		if err := st.ledger.Restore(acc.Account, stack); err != nil {
			return nil, errors.Wrapf(err, "restore stakes of %v", acc.Account)
		}
	}
	return newPool(cfg, st), nil
}
