// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package rewards is the distribution engine of a staking pool: it owns the funding
// schedules, the position ledger and the GYSR usage curve, and pays out rewards
// under a competitive or a friendly policy.
package rewards

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/event"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/gysr/ledger/fixed"
	"github.com/gysr/ledger/gysr"
	"github.com/gysr/ledger/log"
	"github.com/gysr/ledger/reverts"
	"github.com/gysr/ledger/rewards/bonus"
	"github.com/gysr/ledger/rewards/funding"
	"github.com/gysr/ledger/rewards/positions"
)

var logger = log.WithContext("pkg", "rewards")

var (
	errReentrant    = reverts.New(reverts.Reentrant, "reentrant call")
	errUnauthorized = reverts.New(reverts.Unauthorized, "caller is not authorized")
)

// state is everything a call mutates. Calls work on a clone and swap it in on success.
type state struct {
	funding      *funding.Service
	ledger       *positions.Ledger
	usage        *bonus.Usage
	shareSeconds *uint256.Int // Σ shares*age over live stakes, competitive weighting
	updated      uint64
}

func (s *state) clone() *state {
	return &state{
		funding:      s.funding.Clone(),
		ledger:       s.ledger.Clone(),
		usage:        s.usage.Clone(),
		shareSeconds: fixed.Clone(s.shareSeconds),
		updated:      s.updated,
	}
}

// advance accrues share-seconds up to now and runs the unlock step.
func (s *state) advance(now uint64) []funding.Unlocked {
	if now > s.updated {
		s.shareSeconds = fixed.Add(s.shareSeconds, shareSeconds(s.ledger.TotalShares(), now-s.updated))
		s.updated = now
	}
	return s.funding.Unlock(now)
}

func shareSeconds(shares *uint256.Int, secs uint64) *uint256.Int {
	z, overflow := new(uint256.Int).MulOverflow(shares, uint256.NewInt(secs))
	if overflow {
		return z.SetAllOne()
	}
	return z
}

// Pool is a reward pool. All mutating calls are serialized and all-or-nothing:
// a call either commits its unlock step, its effect and its usage update, or none of them.
// A call made with the context of one still in flight on the same pool is rejected as reentrant.
type Pool struct {
	cfg  Config
	name string

	sem  chan struct{} // held for the whole of a mutating call
	stMu sync.RWMutex
	st   *state

	feed  event.Feed
	scope event.SubscriptionScope
}

// New creates an empty pool.
func New(cfg Config) (*Pool, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	st := &state{
		funding:      funding.New(cfg.MaxFundings),
		ledger:       positions.New(),
		usage:        bonus.NewUsage(),
		shareSeconds: fixed.Zero(),
		updated:      cfg.Clock.Now(),
	}
	return newPool(cfg, st), nil
}

func newPool(cfg Config, st *state) *Pool {
	name := cfg.Name
	if name == "" {
		name = cfg.Policy.Name()
	}
	return &Pool{cfg: cfg, name: name, sem: make(chan struct{}, 1), st: st}
}

// inCall marks a context as carrying a call in flight on pool.
type inCall struct{ pool *Pool }

// Close unsubscribes every event subscriber.
func (p *Pool) Close() {
	p.scope.Close()
}

// Name returns the pool name used in logs and metrics.
func (p *Pool) Name() string {
	return p.name
}

// Config returns the configuration the pool runs with.
func (p *Pool) Config() Config {
	return p.cfg
}

// Policy returns the distribution policy of the pool.
func (p *Pool) Policy() Policy {
	return p.cfg.Policy
}

func (p *Pool) authorize(caller gysr.Address, op string) error {
	if p.cfg.Access != nil && !p.cfg.Access.Authorized(caller, op) {
		return errUnauthorized
	}
	return nil
}

// call is the context of one mutating call.
type call struct {
	ctx      context.Context // handed to collaborators
	st       *state
	now      uint64
	events   []*Event
	payments []payment
	consumed int // stake slices taken off the ledger
}

type payment struct {
	token  gysr.Address
	to     gysr.Address
	amount *uint256.Int
}

func (c *call) pay(token, to gysr.Address, amount *uint256.Int) {
	if amount.IsZero() {
		return
	}
	c.payments = append(c.payments, payment{token: token, to: to, amount: amount})
}

func (c *call) unlock() {
	for _, u := range c.st.advance(c.now) {
		c.emit(&Event{Kind: EventUnlocked, Token: u.Token, Shares: u.Shares})
	}
}

func (c *call) expire(expired []funding.Expired) {
	for _, e := range expired {
		c.emit(&Event{
			Kind:     EventExpired,
			Token:    e.Token,
			Amount:   fixed.Clone(e.Funding.Amount),
			Shares:   fixed.Clone(e.Funding.Shares),
			Duration: e.Funding.Duration,
			Start:    e.Funding.Start,
		})
	}
}

// load returns a private copy of the committed state and the time of the call.
// Time never runs backwards for a pool.
func (p *Pool) load() (*state, uint64) {
	p.stMu.RLock()
	st := p.st.clone()
	p.stMu.RUnlock()

	now := p.cfg.Clock.Now()
	if now < st.updated {
		now = st.updated
	}
	return st, now
}

// snapshot returns a private copy of the committed state advanced to now.
func (p *Pool) snapshot() (*state, uint64) {
	st, now := p.load()
	st.advance(now)
	return st, now
}

// exec runs fn against a copy of the pool state and commits it once fn and all
// resulting payments succeed. Calls wait for the one in flight unless ctx carries it.
func (p *Pool) exec(ctx context.Context, op string, fn func(c *call) error) error {
	labels := map[string]string{"pool": p.name, "op": op}
	metricCalls().AddWithLabel(1, labels)

	if ctx.Value(inCall{p}) != nil {
		metricReverts().AddWithLabel(1, labels)
		logger.Debug("call rejected", "pool", p.name, "op", op, "err", errReentrant)
		return errReentrant
	}
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		metricReverts().AddWithLabel(1, labels)
		return errors.Wrap(ctx.Err(), "wait for pool")
	}

	st, now := p.load()
	c := &call{ctx: context.WithValue(ctx, inCall{p}, true), st: st, now: now}
	c.unlock()

	err := fn(c)
	if err == nil {
		err = p.settle(c)
	}
	if err == nil {
		p.stMu.Lock()
		p.st = c.st
		p.stMu.Unlock()
	}
	<-p.sem

	if err != nil {
		metricReverts().AddWithLabel(1, labels)
		if reverts.IsRevertErr(err) {
			logger.Debug("call reverted", "pool", p.name, "op", op, "err", err)
		} else {
			logger.Warn("call failed", "pool", p.name, "op", op, "err", err)
		}
		return err
	}

	logger.Debug("call committed", "pool", p.name, "op", op, "now", c.now, "events", len(c.events))
	p.reportGauges(c.st)
	for _, ev := range c.events {
		p.feed.Send(ev)
	}
	return nil
}

// settle sends the payouts queued by a call. Payments already sent when a later one
// fails cannot be recalled; the state is still rolled back.
func (p *Pool) settle(c *call) error {
	for _, pm := range c.payments {
		if err := p.cfg.Vault.Send(c.ctx, pm.token, pm.to, pm.amount); err != nil {
			return errors.Wrapf(err, "send %v of token %v", fixed.String(pm.amount), pm.token)
		}
	}
	return nil
}

// Fund deposits amount of token from funder, unlocking linearly over duration seconds from now.
func (p *Pool) Fund(ctx context.Context, funder, token gysr.Address, amount *uint256.Int, duration uint64) (*funding.Funding, error) {
	return p.fund(ctx, funder, token, amount, duration, nil)
}

// FundAt is Fund with a schedule starting at start, which must not be in the past.
func (p *Pool) FundAt(ctx context.Context, funder, token gysr.Address, amount *uint256.Int, duration, start uint64) (*funding.Funding, error) {
	return p.fund(ctx, funder, token, amount, duration, &start)
}

func (p *Pool) fund(ctx context.Context, funder, token gysr.Address, amount *uint256.Int, duration uint64, start *uint64) (*funding.Funding, error) {
	var added *funding.Funding
	err := p.exec(ctx, "fund", func(c *call) error {
		if err := p.authorize(funder, "fund"); err != nil {
			return err
		}
		at := c.now
		if start != nil {
			at = *start
		}
		if err := funding.Validate(amount, at, c.now); err != nil {
			return err
		}
		expired, err := c.st.funding.Reserve(token)
		if err != nil {
			return err
		}
		c.expire(expired)

		before, err := p.cfg.Vault.BalanceOf(token)
		if err != nil {
			return errors.Wrap(err, "read balance")
		}
		if _, err := c.st.funding.Quote(token, amount, before); err != nil {
			return err
		}
		received, err := p.cfg.Vault.Receive(c.ctx, token, funder, amount)
		if err != nil {
			return errors.Wrap(err, "receive funding")
		}
		f, err := c.st.funding.Add(token, received, before, duration, at)
		if err != nil {
			// transfer fees can leave too little to mint a share
			if rerr := p.cfg.Vault.Send(c.ctx, token, funder, received); rerr != nil {
				return errors.Wrapf(rerr, "refund funding (%v)", err)
			}
			return err
		}
		added = f.Clone()
		c.emit(&Event{
			Kind:     EventFunded,
			Account:  funder,
			Token:    token,
			Amount:   fixed.Clone(f.Amount),
			Shares:   fixed.Clone(f.Shares),
			Duration: f.Duration,
			Start:    f.Start,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

// Clean runs the unlock step and removes every drained funding.
func (p *Pool) Clean(ctx context.Context, caller gysr.Address) error {
	return p.exec(ctx, "clean", func(c *call) error {
		if err := p.authorize(caller, "clean"); err != nil {
			return err
		}
		c.expire(c.st.funding.Clean())
		return nil
	})
}

// Update runs the unlock step only.
func (p *Pool) Update(ctx context.Context) error {
	return p.exec(ctx, "update", func(*call) error { return nil })
}
