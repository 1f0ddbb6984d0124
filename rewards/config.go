// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"context"

	"github.com/holiman/uint256"

	"github.com/gysr/ledger/gysr"
	"github.com/gysr/ledger/reverts"
	"github.com/gysr/ledger/rewards/bonus"
	"github.com/gysr/ledger/rewards/funding"
	"github.com/gysr/ledger/vault"
)

// Staking is the module holding the staked asset. It is the source of truth for
// how many raw shares an account holds. It is consulted inside a stake call, which
// ctx carries.
type Staking interface {
	RawSharesFor(ctx context.Context, account gysr.Address) *uint256.Int
}

// Access decides whether a caller may run an owner operation such as fund or clean.
type Access interface {
	Authorized(caller gysr.Address, op string) bool
}

// Config configures a pool.
type Config struct {
	Name          string // used in logs and metric labels
	Policy        Policy
	Normalization bonus.Normalization
	Clock         gysr.Clock
	Vault         vault.Vault
	Staking       Staking // optional
	Access        Access  // optional
	GysrToken     gysr.Address
	MaxFundings   int // per reward token, defaults to funding.MaxActive
}

func (c *Config) validate() error {
	if c.Policy == nil {
		return reverts.New(reverts.InvalidArgument, "policy is required")
	}
	if err := c.Policy.Validate(); err != nil {
		return err
	}
	if c.Vault == nil {
		return reverts.New(reverts.InvalidArgument, "vault is required")
	}
	if c.Clock == nil {
		c.Clock = gysr.SystemClock{}
	}
	if c.MaxFundings <= 0 {
		c.MaxFundings = funding.MaxActive
	}
	return nil
}
