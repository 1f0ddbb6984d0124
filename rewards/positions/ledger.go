// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package positions

import (
	"sort"

	"github.com/holiman/uint256"

	"github.com/gysr/ledger/fixed"
	"github.com/gysr/ledger/gysr"
	"github.com/gysr/ledger/reverts"
)

var (
	errZeroShares        = reverts.New(reverts.InvalidArgument, "shares amount is zero")
	errInsufficientStake = reverts.New(reverts.InsufficientBalance, "shares exceed staked balance")
	errIndexOutOfRange   = reverts.New(reverts.InvalidArgument, "stake index out of range")
)

// Ledger keeps a stack of stakes per account, consumed last-in first-out,
// together with pool-wide raw and bonus-weighted totals.
type Ledger struct {
	stacks      map[gysr.Address][]*Stake
	totalShares *uint256.Int
	totalWeight *uint256.Int
}

func New() *Ledger {
	return &Ledger{
		stacks:      make(map[gysr.Address][]*Stake),
		totalShares: fixed.Zero(),
		totalWeight: fixed.Zero(),
	}
}

// TotalShares returns the raw shares staked in the pool.
func (l *Ledger) TotalShares() *uint256.Int {
	return fixed.Clone(l.totalShares)
}

// TotalWeight returns Σ shares*bonus over every live stake.
func (l *Ledger) TotalWeight() *uint256.Int {
	return fixed.Clone(l.totalWeight)
}

// SharesOf returns the raw shares staked by account.
func (l *Ledger) SharesOf(account gysr.Address) *uint256.Int {
	total := fixed.Zero()
	for _, s := range l.stacks[account] {
		total.Add(total, s.Shares)
	}
	return total
}

// Count returns the number of stakes held by account.
func (l *Ledger) Count(account gysr.Address) int {
	return len(l.stacks[account])
}

// At returns a copy of the stake at index, oldest first.
func (l *Ledger) At(account gysr.Address, index int) (*Stake, error) {
	stack := l.stacks[account]
	if index < 0 || index >= len(stack) {
		return nil, errIndexOutOfRange
	}
	return stack[index].Clone(), nil
}

// Stakes returns copies of every stake held by account, oldest first.
func (l *Ledger) Stakes(account gysr.Address) []*Stake {
	stack := l.stacks[account]
	out := make([]*Stake, 0, len(stack))
	for _, s := range stack {
		out = append(out, s.Clone())
	}
	return out
}

// Accounts lists accounts holding at least one stake, in address order.
func (l *Ledger) Accounts() []gysr.Address {
	addrs := make([]gysr.Address, 0, len(l.stacks))
	for addr := range l.stacks {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i].Compare(addrs[j]) < 0 })
	return addrs
}

// Push adds a stake on top of the account's stack.
func (l *Ledger) Push(account gysr.Address, stake *Stake) error {
	if stake.Shares == nil || stake.Shares.IsZero() {
		return errZeroShares
	}
	l.stacks[account] = append(l.stacks[account], stake)
	l.totalShares = fixed.Add(l.totalShares, stake.Shares)
	l.totalWeight = fixed.Add(l.totalWeight, stake.Weight())
	return nil
}

// CheckConsume validates that account can give up shares without touching the ledger.
func (l *Ledger) CheckConsume(account gysr.Address, shares *uint256.Int) error {
	if shares == nil || shares.IsZero() {
		return errZeroShares
	}
	if l.SharesOf(account).Cmp(shares) < 0 {
		return errInsufficientStake
	}
	return nil
}

// Consume removes shares from the top of the account's stack and returns the consumed
// slices, most recent first. A stake larger than what is left to consume is split in place.
func (l *Ledger) Consume(account gysr.Address, shares *uint256.Int) ([]*Stake, error) {
	if err := l.CheckConsume(account, shares); err != nil {
		return nil, err
	}

	var (
		stack  = l.stacks[account]
		left   = fixed.Clone(shares)
		slices []*Stake
	)
	for !left.IsZero() {
		last := stack[len(stack)-1]
		if last.Shares.Cmp(left) <= 0 {
			stack[len(stack)-1] = nil
			stack = stack[:len(stack)-1]
			left.Sub(left, last.Shares)
			l.totalWeight = fixed.Sub(l.totalWeight, last.Weight())
			slices = append(slices, last)
			continue
		}
		before := last.Weight()
		slice := last.split(left)
		l.totalWeight = fixed.Sub(l.totalWeight, fixed.Sub(before, last.Weight()))
		slices = append(slices, slice)
		left.Clear()
	}

	if len(stack) == 0 {
		delete(l.stacks, account)
	} else {
		l.stacks[account] = stack
	}
	l.totalShares = fixed.Sub(l.totalShares, shares)
	return slices, nil
}

// Restore installs a persisted stack for account, replacing any existing one.
// The ledger is left untouched if any stake holds no shares.
func (l *Ledger) Restore(account gysr.Address, stack []*Stake) error {
	for _, s := range stack {
		if s.Shares == nil || s.Shares.IsZero() {
			return errZeroShares
		}
	}
	for _, s := range l.stacks[account] {
		l.totalShares = fixed.Sub(l.totalShares, s.Shares)
		l.totalWeight = fixed.Sub(l.totalWeight, s.Weight())
	}
	delete(l.stacks, account)
	for _, s := range stack {
		if err := l.Push(account, s); err != nil {
			return err
		}
	}
	return nil
}

func (l *Ledger) Clone() *Ledger {
	c := &Ledger{
		stacks:      make(map[gysr.Address][]*Stake, len(l.stacks)),
		totalShares: fixed.Clone(l.totalShares),
		totalWeight: fixed.Clone(l.totalWeight),
	}
	for addr, stack := range l.stacks {
		cs := make([]*Stake, 0, len(stack))
		for _, s := range stack {
			cs = append(cs, s.Clone())
		}
		c.stacks[addr] = cs
	}
	return c
}
