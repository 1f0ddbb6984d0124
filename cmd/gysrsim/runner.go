// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"sort"
	"time"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/gysr/ledger/co"
	"github.com/gysr/ledger/fixed"
	"github.com/gysr/ledger/gysr"
	"github.com/gysr/ledger/reverts"
	"github.com/gysr/ledger/rewards"
	"github.com/gysr/ledger/rewards/bonus"
	"github.com/gysr/ledger/vault"
)

const defaultGenesis = 1_700_000_000

var (
	funderAddr = addressOf("funder")
	gysrAddr   = addressOf("gysr")
)

// Simulation is a pool driven by a scenario on a simulated clock and bank.
type Simulation struct {
	Scenario *Scenario
	Clock    *gysr.SimClock
	Bank     *vault.Bank
	Pool     *rewards.Pool

	genesis  uint64
	names    map[gysr.Address]string
	accounts map[gysr.Address]bool
	events   map[string]int
	reverts  int
}

// NewSimulation builds the pool a scenario runs against.
func NewSimulation(sc *Scenario) (*Simulation, error) {
	policy, err := sc.Policy.build()
	if err != nil {
		return nil, err
	}
	norm, err := parseNormalization(sc.Normalization)
	if err != nil {
		return nil, err
	}
	genesis := sc.Genesis
	if genesis == 0 {
		genesis = defaultGenesis
	}

	sim := &Simulation{
		Scenario: sc,
		Clock:    gysr.NewSimClock(genesis),
		Bank:     vault.NewBank(),
		genesis:  genesis,
		names:    map[gysr.Address]string{funderAddr: "funder", gysrAddr: "gysr"},
		accounts: make(map[gysr.Address]bool),
		events:   make(map[string]int),
	}
	for _, fee := range sc.TransferFees {
		f, err := fixed.Parse(fee.Fee)
		if err != nil {
			return nil, errors.Wrapf(err, "fee of %v", fee.Token)
		}
		sim.Bank.SetFee(sim.address(fee.Token), f)
	}

	sim.Pool, err = rewards.New(rewards.Config{
		Name:          sc.Name,
		Policy:        policy,
		Normalization: norm,
		Clock:         sim.Clock,
		Vault:         sim.Bank.Vault(addressOf("pool:" + sc.Name)),
		GysrToken:     gysrAddr,
		MaxFundings:   sc.MaxFundings,
	})
	if err != nil {
		return nil, err
	}
	return sim, nil
}

func (s *Simulation) address(name string) gysr.Address {
	addr := addressOf(name)
	if _, ok := s.names[addr]; !ok {
		s.names[addr] = name
	}
	return addr
}

// Run plays every step in order. Reverts are expected outcomes and only fail the run
// when the step did not ask for them.
func (s *Simulation) Run(ctx context.Context) (*Report, error) {
	stop := s.countEvents()
	for i, step := range s.Scenario.Steps {
		if err := ctx.Err(); err != nil {
			stop()
			return nil, errors.Wrapf(err, "%v: step %d", s.Scenario.Name, i)
		}
		s.Clock.AdvanceTo(s.genesis + seconds(step.At))
		reward, err := s.apply(ctx, step)
		if err := s.check(step, reward, err); err != nil {
			stop()
			return nil, errors.Wrapf(err, "%v: step %d (%v)", s.Scenario.Name, i, step.Op)
		}
		logger.Debug("step done", "scenario", s.Scenario.Name, "step", i, "op", step.Op, "at", step.At)
	}
	stop()
	return s.report()
}

// countEvents tallies pool events by kind until stop returns.
func (s *Simulation) countEvents() (stop func()) {
	ch := make(chan *rewards.Event, 64)
	sub := s.Pool.SubscribeEvents(ch)
	var goes co.Goes
	goes.Go(func() {
		for {
			select {
			case ev := <-ch:
				s.events[ev.Kind.String()]++
			case <-sub.Err():
				for len(ch) > 0 {
					s.events[(<-ch).Kind.String()]++
				}
				return
			}
		}
	})
	return func() {
		sub.Unsubscribe()
		goes.Wait()
	}
}

// apply runs one step and returns the reward token amount it paid, if any.
func (s *Simulation) apply(ctx context.Context, step Step) (*uint256.Int, error) {
	switch step.Op {
	case "fund":
		amount, err := fixed.Parse(step.Amount)
		if err != nil {
			return nil, err
		}
		token := s.address(step.Token)
		s.Bank.Mint(token, funderAddr, amount)
		_, err = s.Pool.Fund(ctx, funderAddr, token, amount, seconds(step.Duration))
		return nil, err
	case "stake":
		shares, payload, err := s.sharesAndPayload(step)
		if err != nil {
			return nil, err
		}
		_, err = s.Pool.Stake(ctx, s.address(step.Account), shares, payload)
		return nil, err
	case "unstake", "claim":
		shares, payload, err := s.sharesAndPayload(step)
		if err != nil {
			return nil, err
		}
		call := s.Pool.Unstake
		if step.Op == "claim" {
			call = s.Pool.Claim
		}
		res, err := call(ctx, s.address(step.Account), shares, payload)
		if err != nil {
			return nil, err
		}
		if step.Token != "" {
			return res.Reward(s.address(step.Token)), nil
		}
		total := fixed.Zero()
		for _, r := range res.Rewards {
			total = fixed.Add(total, r.Amount)
		}
		return total, nil
	case "clean":
		return nil, s.Pool.Clean(ctx, funderAddr)
	case "update", "advance":
		return nil, s.Pool.Update(ctx)
	case "rebase":
		factor, err := fixed.Parse(step.Factor)
		if err != nil {
			return nil, err
		}
		s.Bank.Rebase(s.address(step.Token), factor)
		return nil, nil
	default:
		return nil, errors.Errorf("unknown op %q", step.Op)
	}
}

func (s *Simulation) sharesAndPayload(step Step) (*uint256.Int, []byte, error) {
	s.accounts[s.address(step.Account)] = true
	shares, err := fixed.Parse(step.Shares)
	if err != nil {
		return nil, nil, errors.Wrap(err, "shares")
	}
	if step.Gysr == "" {
		return shares, nil, nil
	}
	g, err := fixed.Parse(step.Gysr)
	if err != nil {
		return nil, nil, errors.Wrap(err, "gysr")
	}
	return shares, bonus.EncodeGysr(g), nil
}

func (s *Simulation) check(step Step, reward *uint256.Int, err error) error {
	if err != nil && reverts.IsRevertErr(err) {
		s.reverts++
	}
	if step.Expect == nil {
		return err
	}
	if step.Expect.Revert != "" {
		var rev *reverts.ErrRevert
		if !errors.As(err, &rev) {
			return errors.Errorf("expected revert %q, got %v", step.Expect.Revert, err)
		}
		if rev.Kind().String() != step.Expect.Revert {
			return errors.Errorf("expected revert %q, got %q", step.Expect.Revert, rev.Kind())
		}
		return nil
	}
	if err != nil {
		return err
	}
	if step.Expect.Reward == "" {
		return nil
	}
	want, err := fixed.Parse(step.Expect.Reward)
	if err != nil {
		return errors.Wrap(err, "expected reward")
	}
	tol, err := parseFixed(step.Expect.Tolerance, "0")
	if err != nil {
		return errors.Wrap(err, "tolerance")
	}
	if reward == nil {
		reward = fixed.Zero()
	}
	diff := new(uint256.Int)
	if reward.Cmp(want) > 0 {
		diff.Sub(reward, want)
	} else {
		diff.Sub(want, reward)
	}
	if diff.Cmp(tol) > 0 {
		return errors.Errorf("reward %v, want %v", fixed.String(reward), fixed.String(want))
	}
	return nil
}

// Report summarizes the pool once a scenario has run.
type Report struct {
	Name     string          `yaml:"name" json:"name"`
	Policy   string          `yaml:"policy" json:"policy"`
	Elapsed  time.Duration   `yaml:"elapsed" json:"elapsed"`
	Reverts  int             `yaml:"reverts" json:"reverts"`
	Usage    string          `yaml:"usage" json:"usage"`
	Staked   string          `yaml:"staked" json:"staked"`
	Tokens   []TokenReport   `yaml:"tokens" json:"tokens"`
	Accounts []AccountReport `yaml:"accounts" json:"accounts"`
	Events   map[string]int  `yaml:"events" json:"events"`
}

// TokenReport is the funding position of one reward token.
type TokenReport struct {
	Token       string `yaml:"token" json:"token"`
	Fundings    int    `yaml:"fundings" json:"fundings"`
	Locked      string `yaml:"locked" json:"locked"`
	Unlocked    string `yaml:"unlocked" json:"unlocked"`
	Distributed string `yaml:"distributed" json:"distributed"`
	Dust        string `yaml:"dust" json:"dust"`
}

// AccountReport is what one account holds in the pool and has been paid.
type AccountReport struct {
	Account string            `yaml:"account" json:"account"`
	Stakes  int               `yaml:"stakes" json:"stakes"`
	Shares  string            `yaml:"shares" json:"shares"`
	Paid    map[string]string `yaml:"paid,omitempty" json:"paid,omitempty"`
}

func (s *Simulation) report() (*Report, error) {
	accounts := make([]gysr.Address, 0, len(s.accounts))
	for addr := range s.accounts {
		accounts = append(accounts, addr)
	}
	return buildReport(s.Pool, s.names, accounts, func(token, account gysr.Address) *uint256.Int {
		return s.Bank.BalanceOf(token, account)
	}, s.Clock.Now()-s.genesis, s.reverts, s.events)
}

func buildReport(pool *rewards.Pool, names map[gysr.Address]string, accounts []gysr.Address, paid func(token, account gysr.Address) *uint256.Int, elapsed uint64, nreverts int, events map[string]int) (*Report, error) {
	name := func(addr gysr.Address) string {
		if n, ok := names[addr]; ok {
			return n
		}
		return addr.String()
	}
	r := &Report{
		Name:    pool.Name(),
		Policy:  pool.Policy().Name(),
		Elapsed: time.Duration(elapsed) * time.Second,
		Reverts: nreverts,
		Usage:   fixed.String(pool.Usage()),
		Staked:  fixed.String(pool.TotalStakingShares()),
		Events:  events,
	}

	tokens := pool.Tokens()
	for _, token := range tokens {
		locked, err := pool.TotalLocked(token)
		if err != nil {
			return nil, err
		}
		unlocked, err := pool.TotalUnlocked(token)
		if err != nil {
			return nil, err
		}
		r.Tokens = append(r.Tokens, TokenReport{
			Token:       name(token),
			Fundings:    pool.FundingCount(token),
			Locked:      fixed.String(locked),
			Unlocked:    fixed.String(unlocked),
			Distributed: fixed.String(pool.Distributed(token)),
			Dust:        fixed.String(pool.RewardDust(token)),
		})
	}

	for _, acc := range pool.Snapshot().Accounts {
		ar := AccountReport{
			Account: name(acc.Account),
			Stakes:  pool.StakeCount(acc.Account),
			Shares:  fixed.String(pool.StakedShares(acc.Account)),
		}
		r.Accounts = append(r.Accounts, ar)
	}
	if paid != nil {
		listed := make(map[gysr.Address]bool, len(r.Accounts))
		for _, acc := range pool.Snapshot().Accounts {
			listed[acc.Account] = true
		}
		// accounts that left the pool are still reported with what they were paid
		for _, addr := range accounts {
			if !listed[addr] {
				r.Accounts = append(r.Accounts, AccountReport{Account: name(addr), Shares: "0"})
			}
		}
		for i := range r.Accounts {
			addr := addressOf(r.Accounts[i].Account)
			for _, token := range tokens {
				if amount := paid(token, addr); !amount.IsZero() {
					if r.Accounts[i].Paid == nil {
						r.Accounts[i].Paid = make(map[string]string)
					}
					r.Accounts[i].Paid[name(token)] = fixed.String(amount)
				}
			}
		}
	}
	sort.Slice(r.Accounts, func(i, j int) bool { return r.Accounts[i].Account < r.Accounts[j].Account })
	return r, nil
}
