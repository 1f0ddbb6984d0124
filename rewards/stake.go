// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"context"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/gysr/ledger/fixed"
	"github.com/gysr/ledger/gysr"
	"github.com/gysr/ledger/reverts"
	"github.com/gysr/ledger/rewards/bonus"
	"github.com/gysr/ledger/rewards/funding"
	"github.com/gysr/ledger/rewards/positions"
)

var (
	errZeroShares     = reverts.New(reverts.InvalidArgument, "shares amount is zero")
	errExceedsStaking = reverts.New(reverts.InsufficientBalance, "stake exceeds staking module balance")
	errGysrOnUnstake  = reverts.New(reverts.InvalidArgument, "gysr cannot be spent on unstake under the friendly policy")
)

// StakeResult is the outcome of a stake.
type StakeResult struct {
	GysrSpent *uint256.Int
	Bonus     *uint256.Int
}

// Reward is what one reward token paid out to an account.
type Reward struct {
	Token  gysr.Address
	Amount *uint256.Int // tokens sent
	Shares *uint256.Int // shares retired by the payout
	Dust   *uint256.Int // shares forfeited back to the unlocked pool
}

// Result is the outcome of an unstake or a claim.
type Result struct {
	Rewards      []Reward
	GysrSpent    *uint256.Int
	GysrVested   *uint256.Int
	GysrReturned *uint256.Int
}

// Reward returns the tokens paid out in token.
func (r *Result) Reward(token gysr.Address) *uint256.Int {
	for _, rw := range r.Rewards {
		if rw.Token == token {
			return fixed.Clone(rw.Amount)
		}
	}
	return fixed.Zero()
}

// Stake records shares staked by account. payload optionally carries GYSR spent on a bonus.
func (p *Pool) Stake(ctx context.Context, account gysr.Address, shares *uint256.Int, payload []byte) (*StakeResult, error) {
	var res *StakeResult
	err := p.exec(ctx, "stake", func(c *call) error {
		g, err := bonus.DecodeGysr(payload)
		if err != nil {
			return err
		}
		if shares == nil || shares.IsZero() {
			return errZeroShares
		}
		if p.cfg.Staking != nil {
			held := fixed.Add(c.st.ledger.SharesOf(account), shares)
			if held.Cmp(fixed.Clone(p.cfg.Staking.RawSharesFor(c.ctx, account))) > 0 {
				return errExceedsStaking
			}
		}
		mult, err := p.push(c, account, shares, g)
		if err != nil {
			return err
		}
		res = &StakeResult{GysrSpent: g, Bonus: mult}

		c.emit(&Event{Kind: EventStaked, Account: account, Shares: fixed.Clone(shares)})
		if !g.IsZero() {
			c.emit(&Event{Kind: EventGysrSpent, Account: account, Token: p.cfg.GysrToken, Amount: fixed.Clone(g)})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Unstake consumes shares of account, most recent stakes first, and pays out their rewards.
func (p *Pool) Unstake(ctx context.Context, account gysr.Address, shares *uint256.Int, payload []byte) (*Result, error) {
	return p.withdraw(ctx, "unstake", account, shares, payload, false)
}

// Claim pays out the rewards of shares of account and stakes them again as of now.
func (p *Pool) Claim(ctx context.Context, account gysr.Address, shares *uint256.Int, payload []byte) (*Result, error) {
	return p.withdraw(ctx, "claim", account, shares, payload, true)
}

// Preview projects an unstake at the current time without changing anything.
func (p *Pool) Preview(account gysr.Address, shares *uint256.Int, payload []byte) (*Result, error) {
	g, err := bonus.DecodeGysr(payload)
	if err != nil {
		return nil, err
	}
	st, now := p.snapshot()
	return p.consume(&call{st: st, now: now}, account, shares, g, false)
}

func (p *Pool) withdraw(ctx context.Context, op string, account gysr.Address, shares *uint256.Int, payload []byte, claim bool) (*Result, error) {
	var (
		res      *Result
		consumed int
	)
	err := p.exec(ctx, op, func(c *call) error {
		g, err := bonus.DecodeGysr(payload)
		if err != nil {
			return err
		}
		if res, err = p.consume(c, account, shares, g, claim); err != nil {
			return err
		}
		consumed = c.consumed

		kind := EventUnstaked
		if claim {
			kind = EventClaimed
		}
		c.emit(&Event{Kind: kind, Account: account, Shares: fixed.Clone(shares)})
		if !g.IsZero() {
			c.emit(&Event{Kind: EventGysrSpent, Account: account, Token: p.cfg.GysrToken, Amount: fixed.Clone(g)})
		}
		if !res.GysrVested.IsZero() {
			c.emit(&Event{Kind: EventGysrVested, Account: account, Token: p.cfg.GysrToken, Amount: fixed.Clone(res.GysrVested)})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	metricSlices().Observe(int64(consumed))
	return res, nil
}

// push prices gysr against the pool as it will be after the stake, then adds the stake.
func (p *Pool) push(c *call, account gysr.Address, shares, g *uint256.Int) (*uint256.Int, error) {
	total := c.st.ledger.TotalShares()
	mult := bonus.GysrBonus(g, shares, fixed.Add(total, shares), c.st.usage.Ratio(), p.cfg.Normalization)
	stake := &positions.Stake{
		Shares:    fixed.Clone(shares),
		Gysr:      fixed.Clone(g),
		Bonus:     mult,
		Timestamp: c.now,
	}
	if err := c.st.ledger.Push(account, stake); err != nil {
		return nil, err
	}
	c.st.usage.Add(total, shares, mult)
	return fixed.Clone(mult), nil
}

// consume takes shares off the account's stack, pays every reward token for the
// consumed slices and, for a claim, stakes the shares again.
func (p *Pool) consume(c *call, account gysr.Address, shares, g *uint256.Int, claim bool) (*Result, error) {
	led := c.st.ledger
	if err := led.CheckConsume(account, shares); err != nil {
		return nil, err
	}
	_, friendly := p.cfg.Policy.(Friendly)
	if friendly && !claim && !g.IsZero() {
		return nil, errGysrOnUnstake
	}

	total := led.TotalShares()
	weight := led.TotalWeight()
	action := fixed.One()
	if !friendly {
		action = bonus.GysrBonus(g, shares, total, c.st.usage.Ratio(), p.cfg.Normalization)
	}

	slices, err := led.Consume(account, shares)
	if err != nil {
		return nil, err
	}
	c.consumed = len(slices)

	left := total
	for _, s := range slices {
		c.st.usage.Remove(left, s.Shares, s.Bonus)
		left = fixed.Sub(left, s.Shares)
	}

	res := &Result{
		GysrSpent:    fixed.Clone(g),
		GysrVested:   fixed.Zero(),
		GysrReturned: fixed.Zero(),
	}
	switch policy := p.cfg.Policy.(type) {
	case Competitive:
		err = p.distributeCompetitive(c, res, account, slices, action, policy)
	case Friendly:
		err = p.distributeFriendly(c, res, account, slices, weight, policy)
	default:
		err = errors.Errorf("unsupported policy %T", p.cfg.Policy)
	}
	if err != nil {
		return nil, err
	}

	if claim {
		reissued := fixed.Zero()
		if friendly {
			reissued = g
		}
		if _, err := p.push(c, account, shares, reissued); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// distributeCompetitive weighs the consumed slices by share-seconds boosted with their
// time bonus, stake bonus and action bonus, against every other stake's plain share-seconds:
//
//	payout = unlocked * boosted / (shareSeconds - raw + boosted)
func (p *Pool) distributeCompetitive(c *call, res *Result, account gysr.Address, slices []*positions.Stake, action *uint256.Int, policy Competitive) error {
	raw, boosted := fixed.Zero(), fixed.Zero()
	for _, s := range slices {
		age := s.Age(c.now)
		units := shareSeconds(s.Shares, age)
		mult := fixed.Mul(fixed.Mul(policy.TimeBonus(age), s.Bonus), action)
		raw = fixed.Add(raw, units)
		boosted = fixed.Add(boosted, fixed.Mul(units, mult))
		res.GysrVested = fixed.Add(res.GysrVested, s.Gysr)
	}
	// GYSR spent on the action is consumed by it.
	res.GysrVested = fixed.Add(res.GysrVested, res.GysrSpent)

	remaining := fixed.Sub(c.st.shareSeconds, raw)
	denom := fixed.Add(remaining, boosted)
	for _, addr := range c.st.funding.Tokens() {
		tok := c.st.funding.Token(addr)
		unlocked := tok.Unlocked()
		out := fixed.Min(fixed.MulDiv(unlocked, boosted, denom), unlocked)
		if err := p.payout(c, res, account, tok, out, fixed.Zero()); err != nil {
			return err
		}
	}
	c.st.shareSeconds = remaining
	return nil
}

// distributeFriendly weighs the consumed slices by shares*bonus against the pool total
// before the call, then vests each slice's payout by its age. The unvested part is dust.
func (p *Pool) distributeFriendly(c *call, res *Result, account gysr.Address, slices []*positions.Stake, weight *uint256.Int, policy Friendly) error {
	for _, addr := range c.st.funding.Tokens() {
		tok := c.st.funding.Token(addr)
		unlocked := tok.Unlocked()
		paid, dust := fixed.Zero(), fixed.Zero()
		for _, s := range slices {
			earned := fixed.MulDiv(unlocked, s.Weight(), weight)
			vested := fixed.Mul(earned, policy.Vesting(s.Age(c.now)))
			paid = fixed.Add(paid, vested)
			dust = fixed.Add(dust, fixed.Sub(earned, vested))
		}
		if err := p.payout(c, res, account, tok, paid, dust); err != nil {
			return err
		}
	}

	for _, s := range slices {
		vested := fixed.Mul(s.Gysr, policy.Vesting(s.Age(c.now)))
		res.GysrVested = fixed.Add(res.GysrVested, vested)
		res.GysrReturned = fixed.Add(res.GysrReturned, fixed.Sub(s.Gysr, vested))
	}
	return nil
}

// payout retires shares of tok for account at the live balance rate and records dust
// forfeited to the remaining stakers.
func (p *Pool) payout(c *call, res *Result, account gysr.Address, tok *funding.Token, shares, dust *uint256.Int) error {
	reward := Reward{
		Token:  tok.Address,
		Amount: fixed.Zero(),
		Shares: fixed.Clone(shares),
		Dust:   fixed.Clone(dust),
	}
	if !shares.IsZero() {
		balance, err := p.cfg.Vault.BalanceOf(tok.Address)
		if err != nil {
			return errors.Wrap(err, "read balance")
		}
		reward.Amount = tok.SharesToTokens(shares, balance)
		tok.Pay(shares, reward.Amount)
		c.pay(tok.Address, account, reward.Amount)
		c.emit(&Event{
			Kind:    EventRewardsDistributed,
			Account: account,
			Token:   tok.Address,
			Amount:  fixed.Clone(reward.Amount),
			Shares:  fixed.Clone(shares),
		})
	}
	if !dust.IsZero() {
		tok.Forfeit(dust)
		c.emit(&Event{Kind: EventRewardsDust, Account: account, Token: tok.Address, Shares: fixed.Clone(dust)})
	}
	res.Rewards = append(res.Rewards, reward)
	return nil
}
