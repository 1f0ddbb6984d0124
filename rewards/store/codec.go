// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package store

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/gysr/ledger/fixed"
	"github.com/gysr/ledger/gysr"
	"github.com/gysr/ledger/rewards"
	"github.com/gysr/ledger/rewards/bonus"
	"github.com/gysr/ledger/rewards/funding"
	"github.com/gysr/ledger/rewards/positions"
)

const (
	codecVersion = 1

	policyCompetitive = 1
	policyFriendly    = 2
)

type policyRLP struct {
	Kind          uint8
	BonusMin      *uint256.Int
	BonusMax      *uint256.Int
	BonusPeriod   uint64
	VestingStart  *uint256.Int
	VestingPeriod uint64
}

type fundingRLP struct {
	Amount   *uint256.Int
	Shares   *uint256.Int
	Locked   *uint256.Int
	Duration uint64
	Start    uint64
	Updated  uint64
}

type tokenRLP struct {
	Address  gysr.Address
	Fundings []fundingRLP
	Locked   *uint256.Int
	Total    *uint256.Int
	Dust     *uint256.Int
	Funded   *uint256.Int
	Paid     *uint256.Int
}

type stakeRLP struct {
	Shares    *uint256.Int
	Gysr      *uint256.Int
	Bonus     *uint256.Int
	Timestamp uint64
}

type accountRLP struct {
	Account gysr.Address
	Stakes  []stakeRLP
}

type poolRLP struct {
	Version       uint8
	Policy        policyRLP
	Normalization uint8
	Tokens        []tokenRLP
	Accounts      []accountRLP
	Usage         *uint256.Int
	ShareSeconds  *uint256.Int
	Updated       uint64
}

func encodePolicy(p rewards.Policy) (policyRLP, error) {
	out := policyRLP{BonusMin: fixed.Zero(), BonusMax: fixed.Zero(), VestingStart: fixed.Zero()}
	switch p := p.(type) {
	case rewards.Competitive:
		out.Kind = policyCompetitive
		out.BonusMin = fixed.Clone(p.BonusMin)
		out.BonusMax = fixed.Clone(p.BonusMax)
		out.BonusPeriod = p.BonusPeriod
	case rewards.Friendly:
		out.Kind = policyFriendly
		out.VestingStart = fixed.Clone(p.VestingStart)
		out.VestingPeriod = p.VestingPeriod
	default:
		return out, errors.Errorf("unsupported policy %T", p)
	}
	return out, nil
}

func (p policyRLP) decode() (rewards.Policy, error) {
	switch p.Kind {
	case policyCompetitive:
		return rewards.Competitive{BonusMin: p.BonusMin, BonusMax: p.BonusMax, BonusPeriod: p.BonusPeriod}, nil
	case policyFriendly:
		return rewards.Friendly{VestingStart: p.VestingStart, VestingPeriod: p.VestingPeriod}, nil
	default:
		return nil, errors.Errorf("unknown policy kind %d", p.Kind)
	}
}

func encodePool(pool *rewards.Pool) (*poolRLP, error) {
	cfg := pool.Config()
	policy, err := encodePolicy(cfg.Policy)
	if err != nil {
		return nil, err
	}
	snap := pool.Snapshot()
	out := &poolRLP{
		Version:       codecVersion,
		Policy:        policy,
		Normalization: uint8(cfg.Normalization),
		Usage:         snap.Usage,
		ShareSeconds:  snap.ShareSeconds,
		Updated:       snap.Updated,
	}
	for _, tok := range snap.Tokens {
		t := tokenRLP{
			Address: tok.Address,
			Locked:  tok.Locked,
			Total:   tok.Total,
			Dust:    tok.Dust,
			Funded:  tok.Funded,
			Paid:    tok.Paid,
		}
		for _, f := range tok.Fundings {
			t.Fundings = append(t.Fundings, fundingRLP{
				Amount:   f.Amount,
				Shares:   f.Shares,
				Locked:   f.Locked,
				Duration: f.Duration,
				Start:    f.Start,
				Updated:  f.Updated,
			})
		}
		out.Tokens = append(out.Tokens, t)
	}
	for _, acc := range snap.Accounts {
		a := accountRLP{Account: acc.Account}
		for _, s := range acc.Stakes {
			a.Stakes = append(a.Stakes, stakeRLP{
				Shares:    s.Shares,
				Gysr:      s.Gysr,
				Bonus:     s.Bonus,
				Timestamp: s.Timestamp,
			})
		}
		out.Accounts = append(out.Accounts, a)
	}
	return out, nil
}

func (p *poolRLP) snapshot() *rewards.Snapshot {
	snap := &rewards.Snapshot{
		Usage:        p.Usage,
		ShareSeconds: p.ShareSeconds,
		Updated:      p.Updated,
	}
	for _, t := range p.Tokens {
		tok := &funding.Token{
			Address: t.Address,
			Locked:  t.Locked,
			Total:   t.Total,
			Dust:    t.Dust,
			Funded:  t.Funded,
			Paid:    t.Paid,
		}
		for _, f := range t.Fundings {
			tok.Fundings = append(tok.Fundings, &funding.Funding{
				Amount:   f.Amount,
				Shares:   f.Shares,
				Locked:   f.Locked,
				Duration: f.Duration,
				Start:    f.Start,
				Updated:  f.Updated,
			})
		}
		snap.Tokens = append(snap.Tokens, tok)
	}
	for _, a := range p.Accounts {
		acc := rewards.AccountStakes{Account: a.Account}
		for _, s := range a.Stakes {
			acc.Stakes = append(acc.Stakes, &positions.Stake{
				Shares:    s.Shares,
				Gysr:      s.Gysr,
				Bonus:     s.Bonus,
				Timestamp: s.Timestamp,
			})
		}
		snap.Accounts = append(snap.Accounts, acc)
	}
	return snap
}

func (p *poolRLP) normalization() bonus.Normalization {
	return bonus.Normalization(p.Normalization)
}
