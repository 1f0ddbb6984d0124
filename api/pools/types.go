// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pools

import (
	"github.com/holiman/uint256"

	"github.com/gysr/ledger/fixed"
	"github.com/gysr/ledger/gysr"
	"github.com/gysr/ledger/rewards"
	"github.com/gysr/ledger/rewards/funding"
	"github.com/gysr/ledger/rewards/positions"
)

// Amount is a fixed point value rendered as a decimal string.
type Amount string

func amount(x *uint256.Int) Amount {
	return Amount(fixed.String(x))
}

type Pool struct {
	Name          string   `json:"name"`
	Policy        string   `json:"policy"`
	Normalization string   `json:"normalization"`
	Usage         Amount   `json:"usage"`
	Staked        Amount   `json:"staked"`
	Tokens        []*Token `json:"tokens"`
}

type Token struct {
	Address     gysr.Address `json:"address"`
	Fundings    int          `json:"fundings"`
	Locked      Amount       `json:"locked"`
	Unlocked    Amount       `json:"unlocked"`
	Distributed Amount       `json:"distributed"`
	Dust        Amount       `json:"dustShares"`
}

type Funding struct {
	Amount   Amount `json:"amount"`
	Shares   Amount `json:"shares"`
	Locked   Amount `json:"locked"`
	Start    uint64 `json:"start"`
	Duration uint64 `json:"duration"`
	Updated  uint64 `json:"updated"`
}

func convertFunding(f *funding.Funding) *Funding {
	return &Funding{
		Amount:   amount(f.Amount),
		Shares:   amount(f.Shares),
		Locked:   amount(f.Locked),
		Start:    f.Start,
		Duration: f.Duration,
		Updated:  f.Updated,
	}
}

type Stake struct {
	Shares    Amount `json:"shares"`
	Gysr      Amount `json:"gysr"`
	Bonus     Amount `json:"bonus"`
	Timestamp uint64 `json:"timestamp"`
}

func convertStake(s *positions.Stake) *Stake {
	return &Stake{
		Shares:    amount(s.Shares),
		Gysr:      amount(s.Gysr),
		Bonus:     amount(s.Bonus),
		Timestamp: s.Timestamp,
	}
}

// Preview is the projected outcome of unstaking now.
type Preview struct {
	Rewards      []*Reward `json:"rewards"`
	GysrSpent    Amount    `json:"gysrSpent"`
	GysrVested   Amount    `json:"gysrVested"`
	GysrReturned Amount    `json:"gysrReturned"`
}

type Reward struct {
	Token  gysr.Address `json:"token"`
	Amount Amount       `json:"amount"`
	Dust   Amount       `json:"dustShares"`
}

func convertResult(res *rewards.Result) *Preview {
	p := &Preview{
		Rewards:      make([]*Reward, 0, len(res.Rewards)),
		GysrSpent:    amount(res.GysrSpent),
		GysrVested:   amount(res.GysrVested),
		GysrReturned: amount(res.GysrReturned),
	}
	for _, r := range res.Rewards {
		p.Rewards = append(p.Rewards, &Reward{Token: r.Token, Amount: amount(r.Amount), Dust: amount(r.Dust)})
	}
	return p
}
