// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gysr/ledger/fixed"
	"github.com/gysr/ledger/reverts"
	"github.com/gysr/ledger/rewards/bonus"
)

func halfVesting() Friendly {
	return Friendly{VestingStart: fixed.MustParse("0.5"), VestingPeriod: 10 * day}
}

func TestFriendly_DustRedistributed(t *testing.T) {
	p := newTestPool(t, halfVesting())
	p.fund(t, rewardA, 1000, 10*day)
	p.stake(t, alice, 100)
	p.stake(t, bob, 100)

	p.advance(5 * day)
	// alice earned half of 500 and has vested 75% of it
	res, err := p.Unstake(context.Background(), alice, fixed.New(100), nil)
	require.NoError(t, err)
	require.Len(t, res.Rewards, 1)
	assert.Equal(t, fixed.MustParse("187.5"), res.Rewards[0].Amount)
	assert.Equal(t, fixed.MustParse("62.5"), res.Rewards[0].Dust)
	assert.Equal(t, fixed.MustParse("62.5"), p.RewardDust(rewardA))
	assert.Equal(t, fixed.MustParse("312.5"), p.unlocked(t, rewardA))

	p.advance(5 * day)
	res, err = p.Claim(context.Background(), bob, fixed.New(100), nil)
	require.NoError(t, err)
	assert.Equal(t, fixed.MustParse("812.5"), res.Reward(rewardA))
	assert.True(t, res.Rewards[0].Dust.IsZero())

	assert.Equal(t, fixed.MustParse("187.5"), p.bank.BalanceOf(rewardA, alice))
	assert.Equal(t, fixed.MustParse("812.5"), p.bank.BalanceOf(rewardA, bob))
	assert.True(t, p.bank.BalanceOf(rewardA, poolAddr).IsZero())
	assert.Equal(t, fixed.New(1000), p.Distributed(rewardA))
}

func TestFriendly_NewcomerForfeits(t *testing.T) {
	p := newTestPool(t, halfVesting())
	p.fund(t, rewardA, 1000, 10*day)
	p.stake(t, alice, 100)

	p.advance(10 * day)
	p.stake(t, bob, 100)

	// bob is brand new: half of his share is forfeited to the pool
	res, err := p.Unstake(context.Background(), bob, fixed.New(100), nil)
	require.NoError(t, err)
	assert.Equal(t, fixed.New(250), res.Reward(rewardA))
	assert.Equal(t, fixed.New(250), p.RewardDust(rewardA))

	res, err = p.Unstake(context.Background(), alice, fixed.New(100), nil)
	require.NoError(t, err)
	assert.Equal(t, fixed.New(750), res.Reward(rewardA))
	assert.True(t, p.unlocked(t, rewardA).IsZero())
}

func TestFriendly_DustWaitsForStakers(t *testing.T) {
	p := newTestPool(t, halfVesting())
	p.fund(t, rewardA, 1000, 10*day)
	p.stake(t, alice, 100)

	p.advance(5 * day)
	res, err := p.Unstake(context.Background(), alice, fixed.New(100), nil)
	require.NoError(t, err)
	assert.Equal(t, fixed.New(375), res.Reward(rewardA))

	// nobody is left to absorb the dust: it stays unlocked
	assert.Equal(t, fixed.New(125), p.unlocked(t, rewardA))
	assert.True(t, p.TotalStakingShares().IsZero())

	p.advance(5 * day)
	p.stake(t, carol, 10)
	p.advance(10 * day)
	res, err = p.Unstake(context.Background(), carol, fixed.New(10), nil)
	require.NoError(t, err)
	assert.Equal(t, fixed.New(625), res.Reward(rewardA))
}

func TestFriendly_BonusWeight(t *testing.T) {
	p := newTestPool(t, Friendly{VestingStart: fixed.One()})
	p.fund(t, rewardA, 1000, day)

	staked, err := p.Stake(context.Background(), alice, fixed.New(100), bonus.EncodeGysr(fixed.New(10)))
	require.NoError(t, err)
	p.stake(t, bob, 100)

	p.advance(day)
	res, err := p.Unstake(context.Background(), alice, fixed.New(100), nil)
	require.NoError(t, err)

	mult := fixed.Float(staked.Bonus)
	assert.InDelta(t, 1000*mult/(mult+1), fixed.Float(res.Reward(rewardA)), 1e-6)
	assert.True(t, p.RewardDust(rewardA).IsZero())
}

func TestFriendly_GysrVesting(t *testing.T) {
	p := newTestPool(t, halfVesting())
	_, err := p.Stake(context.Background(), alice, fixed.New(100), bonus.EncodeGysr(fixed.New(10)))
	require.NoError(t, err)

	p.advance(5 * day)
	res, err := p.Unstake(context.Background(), alice, fixed.New(40), nil)
	require.NoError(t, err)
	assert.Equal(t, fixed.New(3), res.GysrVested)
	assert.Equal(t, fixed.New(1), res.GysrReturned)

	left, err := p.Stakes(alice, 0)
	require.NoError(t, err)
	assert.Equal(t, fixed.New(6), left.Gysr)
}

func TestFriendly_GysrOnUnstakeRejected(t *testing.T) {
	p := newTestPool(t, halfVesting())
	p.stake(t, alice, 100)

	_, err := p.Unstake(context.Background(), alice, fixed.New(100), bonus.EncodeGysr(fixed.New(1)))
	assert.True(t, reverts.Is(err, reverts.InvalidArgument))
	assert.Equal(t, fixed.New(100), p.StakedShares(alice))
}

func TestFriendly_ClaimPricesReissue(t *testing.T) {
	p := newTestPool(t, halfVesting())
	p.stake(t, alice, 100)
	p.advance(day)

	res, err := p.Claim(context.Background(), alice, fixed.New(100), bonus.EncodeGysr(fixed.New(1)))
	require.NoError(t, err)
	assert.Equal(t, fixed.New(1), res.GysrSpent)
	assert.True(t, res.GysrVested.IsZero())

	s, err := p.Stakes(alice, 0)
	require.NoError(t, err)
	assert.Equal(t, genesis+day, s.Timestamp)
	assert.Equal(t, fixed.New(1), s.Gysr)
	assert.Equal(t, 1, s.Bonus.Cmp(fixed.One()))
	assert.False(t, p.Usage().IsZero())
}
