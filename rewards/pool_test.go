// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"context"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gysr/ledger/fixed"
	"github.com/gysr/ledger/gysr"
	"github.com/gysr/ledger/reverts"
	"github.com/gysr/ledger/vault"
)

const (
	genesis = uint64(1_700_000_000)
	day     = uint64(86400)
)

var (
	alice     = gysr.BytesToAddress([]byte("alice"))
	bob       = gysr.BytesToAddress([]byte("bob"))
	carol     = gysr.BytesToAddress([]byte("carol"))
	funder    = gysr.BytesToAddress([]byte("funder"))
	poolAddr  = gysr.BytesToAddress([]byte("pool"))
	rewardA   = gysr.BytesToAddress([]byte("reward-a"))
	rewardB   = gysr.BytesToAddress([]byte("reward-b"))
	gysrToken = gysr.BytesToAddress([]byte("gysr"))
)

type testPool struct {
	*Pool
	clock *gysr.SimClock
	bank  *vault.Bank
}

func flatCompetitive() Competitive {
	return Competitive{BonusMin: fixed.One(), BonusMax: fixed.One()}
}

func newTestPool(t *testing.T, policy Policy, opts ...func(*Config)) *testPool {
	clock := gysr.NewSimClock(genesis)
	bank := vault.NewBank()
	bank.Mint(rewardA, funder, fixed.New(1_000_000))
	bank.Mint(rewardB, funder, fixed.New(1_000_000))

	cfg := Config{
		Name:      t.Name(),
		Policy:    policy,
		Clock:     clock,
		Vault:     bank.Vault(poolAddr),
		GysrToken: gysrToken,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	pool, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return &testPool{Pool: pool, clock: clock, bank: bank}
}

func (p *testPool) advance(secs uint64) {
	p.clock.Advance(time.Duration(secs) * time.Second)
}

func (p *testPool) fund(t *testing.T, token gysr.Address, amount, duration uint64) {
	_, err := p.Fund(context.Background(), funder, token, fixed.New(amount), duration)
	require.NoError(t, err)
}

func (p *testPool) stake(t *testing.T, account gysr.Address, shares uint64) {
	_, err := p.Stake(context.Background(), account, fixed.New(shares), nil)
	require.NoError(t, err)
}

func (p *testPool) unlocked(t *testing.T, token gysr.Address) *uint256.Int {
	v, err := p.TotalUnlocked(token)
	require.NoError(t, err)
	return v
}

func (p *testPool) locked(t *testing.T, token gysr.Address) *uint256.Int {
	v, err := p.TotalLocked(token)
	require.NoError(t, err)
	return v
}

func TestNew_InvalidConfig(t *testing.T) {
	bank := vault.NewBank()
	tests := []struct {
		name string
		cfg  Config
	}{
		{"no policy", Config{Vault: bank.Vault(poolAddr)}},
		{"no vault", Config{Policy: flatCompetitive()}},
		{"bonus min below one", Config{Policy: Competitive{BonusMin: fixed.MustParse("0.5"), BonusMax: fixed.One()}, Vault: bank.Vault(poolAddr)}},
		{"bonus max below min", Config{Policy: Competitive{BonusMin: fixed.New(2), BonusMax: fixed.One()}, Vault: bank.Vault(poolAddr)}},
		{"vesting start above one", Config{Policy: Friendly{VestingStart: fixed.MustParse("1.5")}, Vault: bank.Vault(poolAddr)}},
		{"missing vesting start", Config{Policy: Friendly{}, Vault: bank.Vault(poolAddr)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			assert.True(t, reverts.Is(err, reverts.InvalidArgument), "got %v", err)
		})
	}
}

func TestFund_UnlockScenario(t *testing.T) {
	p := newTestPool(t, flatCompetitive())
	p.fund(t, rewardA, 1000, 90*day)

	assert.Equal(t, fixed.New(1000), p.locked(t, rewardA))
	assert.True(t, p.unlocked(t, rewardA).IsZero())

	p.advance(45 * day)
	assert.Equal(t, fixed.New(500), p.unlocked(t, rewardA))
	assert.Equal(t, fixed.New(500), p.locked(t, rewardA))

	p.advance(45*day + 1)
	assert.Equal(t, fixed.New(1000), p.unlocked(t, rewardA))
	assert.True(t, p.locked(t, rewardA).IsZero())

	// ten years later nothing has moved
	p.advance(3650 * day)
	require.NoError(t, p.Update(context.Background()))
	assert.Equal(t, fixed.New(1000), p.unlocked(t, rewardA))
	assert.True(t, p.locked(t, rewardA).IsZero())
}

func TestFund_IncrementalUnlockMatchesSingle(t *testing.T) {
	stepped := newTestPool(t, flatCompetitive())
	once := newTestPool(t, flatCompetitive())
	stepped.fund(t, rewardA, 777, 10*day)
	once.fund(t, rewardA, 777, 10*day)

	for _, step := range []uint64{1, 7, 3600, 13, day, 999, 2 * day, 17} {
		stepped.advance(step)
		require.NoError(t, stepped.Update(context.Background()))
		// same timestamp again is a no-op
		require.NoError(t, stepped.Update(context.Background()))
	}
	elapsed := stepped.clock.Now() - genesis
	once.advance(elapsed)
	require.NoError(t, once.Update(context.Background()))

	assert.InDelta(t, fixed.Float(once.unlocked(t, rewardA)), fixed.Float(stepped.unlocked(t, rewardA)), 1e-9)
}

func TestFund_Errors(t *testing.T) {
	p := newTestPool(t, flatCompetitive())

	_, err := p.Fund(context.Background(), funder, rewardA, fixed.Zero(), day)
	assert.True(t, reverts.Is(err, reverts.InvalidArgument))

	_, err = p.FundAt(context.Background(), funder, rewardA, fixed.New(1), day, genesis-1)
	assert.True(t, reverts.Is(err, reverts.InvalidArgument))

	// the funder cannot cover it
	_, err = p.Fund(context.Background(), carol, rewardA, fixed.New(1), day)
	assert.True(t, reverts.Is(err, reverts.InsufficientBalance))

	assert.Equal(t, 0, p.FundingCount(rewardA))
	assert.Empty(t, p.Tokens())
}

func TestFundAt_FutureStart(t *testing.T) {
	p := newTestPool(t, flatCompetitive())
	f, err := p.FundAt(context.Background(), funder, rewardA, fixed.New(100), 10*day, genesis+day)
	require.NoError(t, err)
	assert.Equal(t, genesis+day, f.Start)

	p.advance(day)
	assert.True(t, p.unlocked(t, rewardA).IsZero())

	p.advance(5 * day)
	assert.Equal(t, fixed.New(50), p.unlocked(t, rewardA))
}

func TestFund_CapacityAndClean(t *testing.T) {
	p := newTestPool(t, flatCompetitive())

	p.fund(t, rewardA, 10, day)
	for range 15 {
		p.fund(t, rewardA, 10, 100*day)
	}
	require.Equal(t, 16, p.FundingCount(rewardA))

	_, err := p.Fund(context.Background(), funder, rewardA, fixed.New(10), day)
	assert.True(t, reverts.Is(err, reverts.CapacityExceeded))

	// other tokens have their own slots
	p.fund(t, rewardB, 10, day)

	p.advance(2 * day)
	require.NoError(t, p.Clean(context.Background(), funder))
	assert.Equal(t, 15, p.FundingCount(rewardA))

	// the last funding moved into the freed slot
	fundings := p.Fundings(rewardA)
	require.Len(t, fundings, 15)
	assert.Equal(t, 100*day, fundings[0].Duration)

	_, err = p.Fund(context.Background(), funder, rewardA, fixed.New(10), 7*day)
	require.NoError(t, err)
	fundings = p.Fundings(rewardA)
	require.Len(t, fundings, 16)
	assert.Equal(t, 7*day, fundings[15].Duration)
}

func TestFund_ReservesExpiredSlot(t *testing.T) {
	p := newTestPool(t, flatCompetitive())
	for range 16 {
		p.fund(t, rewardA, 10, day)
	}
	p.advance(2 * day)

	// at capacity with drained fundings: fund cleans them itself
	p.fund(t, rewardA, 10, day)
	assert.Equal(t, 1, p.FundingCount(rewardA))
	assert.Equal(t, fixed.New(160), p.unlocked(t, rewardA))
}

func TestClean_KeepsLiveFundings(t *testing.T) {
	p := newTestPool(t, flatCompetitive())
	p.fund(t, rewardA, 10, day)
	p.fund(t, rewardA, 10, 10*day)

	p.advance(day / 2)
	require.NoError(t, p.Clean(context.Background(), funder))
	assert.Equal(t, 2, p.FundingCount(rewardA))

	p.advance(day)
	require.NoError(t, p.Clean(context.Background(), funder))
	assert.Equal(t, 1, p.FundingCount(rewardA))
}

type denyAll struct{}

func (denyAll) Authorized(gysr.Address, string) bool { return false }

func TestAccess_Unauthorized(t *testing.T) {
	p := newTestPool(t, flatCompetitive(), func(c *Config) { c.Access = denyAll{} })

	_, err := p.Fund(context.Background(), funder, rewardA, fixed.New(1), day)
	assert.True(t, reverts.Is(err, reverts.Unauthorized))
	assert.True(t, reverts.Is(p.Clean(context.Background(), funder), reverts.Unauthorized))
	assert.Equal(t, fixed.New(1_000_000), p.bank.BalanceOf(rewardA, funder))
}

func TestFund_FeeOnTransfer(t *testing.T) {
	p := newTestPool(t, flatCompetitive())
	p.bank.SetFee(rewardA, fixed.MustParse("0.1"))

	f, err := p.Fund(context.Background(), funder, rewardA, fixed.New(1000), day)
	require.NoError(t, err)
	assert.Equal(t, fixed.New(900), f.Amount)
	assert.Equal(t, fixed.New(900), f.Shares)

	p.stake(t, alice, 100)
	p.advance(day)
	assert.Equal(t, fixed.New(900), p.unlocked(t, rewardA))

	res, err := p.Unstake(context.Background(), alice, fixed.New(100), nil)
	require.NoError(t, err)
	assert.Equal(t, fixed.New(900), res.Reward(rewardA))
	assert.Equal(t, fixed.New(810), p.bank.BalanceOf(rewardA, alice))
	assert.True(t, p.bank.BalanceOf(rewardA, poolAddr).IsZero())
}

func TestFund_Rebasing(t *testing.T) {
	p := newTestPool(t, flatCompetitive())
	p.fund(t, rewardA, 1000, day)
	p.stake(t, alice, 100)

	p.bank.Rebase(rewardA, fixed.New(2))
	assert.Equal(t, fixed.New(2000), p.locked(t, rewardA))

	// new deposits mint shares at the rebased rate
	f, err := p.Fund(context.Background(), funder, rewardA, fixed.New(1000), day)
	require.NoError(t, err)
	assert.Equal(t, fixed.New(500), f.Shares)

	p.advance(day)
	res, err := p.Unstake(context.Background(), alice, fixed.New(100), nil)
	require.NoError(t, err)
	assert.Equal(t, fixed.New(3000), res.Reward(rewardA))
	assert.True(t, p.bank.BalanceOf(rewardA, poolAddr).IsZero())
}

// dustRate leaves one share of rewardA backed by a whole token in the pool.
func dustRate(t *testing.T, p *testPool) {
	_, err := p.Fund(context.Background(), funder, rewardA, uint256.NewInt(1), day)
	require.NoError(t, err)
	p.bank.Rebase(rewardA, fixed.New(1_000_000_000_000_000_000))
	require.Equal(t, fixed.One(), p.bank.BalanceOf(rewardA, poolAddr))
}

func TestFund_MintsNoShares(t *testing.T) {
	p := newTestPool(t, flatCompetitive())
	dustRate(t, p)
	funderBalance := p.bank.BalanceOf(rewardA, funder)

	_, err := p.Fund(context.Background(), funder, rewardA, uint256.NewInt(1), day)
	assert.True(t, reverts.Is(err, reverts.InvalidArgument))

	assert.Equal(t, funderBalance, p.bank.BalanceOf(rewardA, funder))
	assert.Equal(t, fixed.One(), p.bank.BalanceOf(rewardA, poolAddr))
	assert.Equal(t, 1, p.FundingCount(rewardA))
}

func TestFund_RefundsWhenFeesLeaveNoShares(t *testing.T) {
	p := newTestPool(t, flatCompetitive())
	dustRate(t, p)
	p.bank.SetFee(rewardA, fixed.MustParse("0.6"))
	funderBalance := p.bank.BalanceOf(rewardA, funder)

	// one token quotes one share, but only 0.4 of it arrives
	_, err := p.Fund(context.Background(), funder, rewardA, fixed.One(), day)
	assert.True(t, reverts.Is(err, reverts.InvalidArgument))

	// the pool keeps nothing it did not mint shares for; the refund pays the fee again
	assert.Equal(t, fixed.One(), p.bank.BalanceOf(rewardA, poolAddr))
	want := fixed.Add(fixed.Sub(funderBalance, fixed.One()), fixed.MustParse("0.16"))
	assert.Equal(t, want, p.bank.BalanceOf(rewardA, funder))
	assert.Equal(t, 1, p.FundingCount(rewardA))
}

func TestPool_SnapshotRestore(t *testing.T) {
	p := newTestPool(t, flatCompetitive())
	p.fund(t, rewardA, 1000, 10*day)
	p.stake(t, alice, 100)
	p.advance(day)
	p.stake(t, bob, 50)
	p.advance(day)

	restored, err := Restore(p.cfg, p.Snapshot())
	require.NoError(t, err)

	assert.Equal(t, p.Snapshot(), restored.Snapshot())
	assert.Equal(t, p.Positions(alice), restored.Positions(alice))

	want, err := p.Preview(alice, fixed.New(100), nil)
	require.NoError(t, err)
	got, err := restored.Preview(alice, fixed.New(100), nil)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRestore_EmptyStake(t *testing.T) {
	p := newTestPool(t, flatCompetitive())
	p.stake(t, alice, 10)
	p.stake(t, bob, 5)

	snap := p.Snapshot()
	snap.Accounts[len(snap.Accounts)-1].Stakes[0].Shares = fixed.Zero()
	_, err := Restore(p.cfg, snap)
	assert.True(t, reverts.Is(err, reverts.InvalidArgument))
	assert.Equal(t, fixed.New(15), p.TotalStakingShares())
}
