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
	"github.com/gysr/ledger/rewards/funding"
	"github.com/gysr/ledger/rewards/positions"
)

// Views project the committed state to the current time without committing the unlock step.

// TotalLocked returns the tokens of token still locked in schedules.
func (p *Pool) TotalLocked(token gysr.Address) (*uint256.Int, error) {
	st, _ := p.snapshot()
	tok := st.funding.Token(token)
	if tok == nil {
		return fixed.Zero(), nil
	}
	return p.toTokens(tok, tok.Locked)
}

// TotalUnlocked returns the tokens of token available for distribution.
func (p *Pool) TotalUnlocked(token gysr.Address) (*uint256.Int, error) {
	st, _ := p.snapshot()
	tok := st.funding.Token(token)
	if tok == nil {
		return fixed.Zero(), nil
	}
	return p.toTokens(tok, tok.Unlocked())
}

// RewardDust returns the shares of token forfeited by early exits since the pool was created.
func (p *Pool) RewardDust(token gysr.Address) *uint256.Int {
	st, _ := p.snapshot()
	if tok := st.funding.Token(token); tok != nil {
		return fixed.Clone(tok.Dust)
	}
	return fixed.Zero()
}

// Distributed returns the tokens of token paid out since the pool was created.
func (p *Pool) Distributed(token gysr.Address) *uint256.Int {
	st, _ := p.snapshot()
	if tok := st.funding.Token(token); tok != nil {
		return fixed.Clone(tok.Paid)
	}
	return fixed.Zero()
}

func (p *Pool) toTokens(tok *funding.Token, shares *uint256.Int) (*uint256.Int, error) {
	balance, err := p.cfg.Vault.BalanceOf(tok.Address)
	if err != nil {
		return nil, errors.Wrap(err, "read balance")
	}
	return tok.SharesToTokens(shares, balance), nil
}

// Usage returns the GYSR usage ratio.
func (p *Pool) Usage() *uint256.Int {
	p.stMu.RLock()
	defer p.stMu.RUnlock()
	return p.st.usage.Ratio()
}

// Tokens lists the reward tokens ever funded.
func (p *Pool) Tokens() []gysr.Address {
	p.stMu.RLock()
	defer p.stMu.RUnlock()
	return p.st.funding.Tokens()
}

// FundingCount returns the number of active fundings of token.
func (p *Pool) FundingCount(token gysr.Address) int {
	p.stMu.RLock()
	defer p.stMu.RUnlock()
	return p.st.funding.Count(token)
}

// Fundings returns the active fundings of token projected to now. Indexes are not
// stable across fund and clean.
func (p *Pool) Fundings(token gysr.Address) []*funding.Funding {
	st, _ := p.snapshot()
	tok := st.funding.Token(token)
	if tok == nil {
		return nil
	}
	return tok.Fundings
}

// StakeCount returns the number of stakes held by account.
func (p *Pool) StakeCount(account gysr.Address) int {
	p.stMu.RLock()
	defer p.stMu.RUnlock()
	return p.st.ledger.Count(account)
}

// Stakes returns the stake of account at index, oldest first.
func (p *Pool) Stakes(account gysr.Address, index int) (*positions.Stake, error) {
	p.stMu.RLock()
	defer p.stMu.RUnlock()
	return p.st.ledger.At(account, index)
}

// Positions returns every stake of account, oldest first.
func (p *Pool) Positions(account gysr.Address) []*positions.Stake {
	p.stMu.RLock()
	defer p.stMu.RUnlock()
	return p.st.ledger.Stakes(account)
}

// StakedShares returns the raw shares staked by account.
func (p *Pool) StakedShares(account gysr.Address) *uint256.Int {
	p.stMu.RLock()
	defer p.stMu.RUnlock()
	return p.st.ledger.SharesOf(account)
}

// TotalStakingShares returns the raw shares staked in the pool.
func (p *Pool) TotalStakingShares() *uint256.Int {
	p.stMu.RLock()
	defer p.stMu.RUnlock()
	return p.st.ledger.TotalShares()
}
