// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package vault holds reward tokens on behalf of a pool.
package vault

import (
	"context"
	"sync"

	"github.com/holiman/uint256"

	"github.com/gysr/ledger/fixed"
	"github.com/gysr/ledger/gysr"
	"github.com/gysr/ledger/reverts"
)

// Vault is the custody a reward pool draws on. Balances are live: they may change between
// calls when the token charges transfer fees or rebases.
//
// Receive and Send run inside a pool call and ctx carries that call. An implementation
// that calls back into the pool must pass ctx on, and the pool rejects the call as reentrant.
type Vault interface {
	// BalanceOf returns the pool's current balance of token.
	BalanceOf(token gysr.Address) (*uint256.Int, error)
	// Receive pulls amount of token from the sender and returns what actually arrived.
	Receive(ctx context.Context, token, from gysr.Address, amount *uint256.Int) (*uint256.Int, error)
	// Send pays amount of token out to the recipient.
	Send(ctx context.Context, token, to gysr.Address, amount *uint256.Int) error
}

var errInsufficientFunds = reverts.New(reverts.InsufficientBalance, "insufficient token balance")

// Bank is an in-memory multi-token ledger. Tokens may be configured to burn a fee on every
// transfer or to rebase all balances by a factor.
type Bank struct {
	mu       sync.Mutex
	balances map[gysr.Address]map[gysr.Address]*uint256.Int
	fees     map[gysr.Address]*uint256.Int
}

func NewBank() *Bank {
	return &Bank{
		balances: make(map[gysr.Address]map[gysr.Address]*uint256.Int),
		fees:     make(map[gysr.Address]*uint256.Int),
	}
}

// SetFee makes every transfer of token burn fee (a fraction in [0, 1]) of the amount.
func (b *Bank) SetFee(token gysr.Address, fee *uint256.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fees[token] = fixed.Min(fee, fixed.One())
}

// Mint credits amount of token to the holder.
func (b *Bank) Mint(token, to gysr.Address, amount *uint256.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.credit(token, to, amount)
}

// Rebase scales every balance of token by factor.
func (b *Bank) Rebase(token gysr.Address, factor *uint256.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for holder, bal := range b.balances[token] {
		b.balances[token][holder] = fixed.Mul(bal, factor)
	}
}

// BalanceOf returns the holder's balance of token.
func (b *Bank) BalanceOf(token, holder gysr.Address) *uint256.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return fixed.Clone(b.balances[token][holder])
}

// Transfer moves amount of token and returns what the recipient received after fees.
func (b *Bank) Transfer(token, from, to gysr.Address, amount *uint256.Int) (*uint256.Int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	bal := b.balances[token][from]
	if bal == nil || bal.Cmp(amount) < 0 {
		return nil, errInsufficientFunds
	}
	b.balances[token][from] = new(uint256.Int).Sub(bal, amount)

	received := fixed.Clone(amount)
	if fee := b.fees[token]; fee != nil && !fee.IsZero() {
		received = fixed.Sub(amount, fixed.Mul(amount, fee))
	}
	b.credit(token, to, received)
	return received, nil
}

func (b *Bank) credit(token, to gysr.Address, amount *uint256.Int) {
	holders := b.balances[token]
	if holders == nil {
		holders = make(map[gysr.Address]*uint256.Int)
		b.balances[token] = holders
	}
	holders[to] = fixed.Add(fixed.Clone(holders[to]), amount)
}

// Vault returns the custody view of the bank for holder.
func (b *Bank) Vault(holder gysr.Address) Vault {
	return &custody{bank: b, holder: holder}
}

type custody struct {
	bank   *Bank
	holder gysr.Address
}

func (c *custody) BalanceOf(token gysr.Address) (*uint256.Int, error) {
	return c.bank.BalanceOf(token, c.holder), nil
}

func (c *custody) Receive(_ context.Context, token, from gysr.Address, amount *uint256.Int) (*uint256.Int, error) {
	before := c.bank.BalanceOf(token, c.holder)
	if _, err := c.bank.Transfer(token, from, c.holder, amount); err != nil {
		return nil, err
	}
	return fixed.Sub(c.bank.BalanceOf(token, c.holder), before), nil
}

func (c *custody) Send(_ context.Context, token, to gysr.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	_, err := c.bank.Transfer(token, c.holder, to, amount)
	return err
}
