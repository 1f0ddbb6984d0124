// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/gysr/ledger/fixed"
	"github.com/gysr/ledger/kv"
	"github.com/gysr/ledger/rewards"
	"github.com/gysr/ledger/rewards/store"
	"github.com/gysr/ledger/vault"
)

func TestParseScenario(t *testing.T) {
	sc, err := ParseScenario([]byte(`
name: demo
policy:
  kind: friendly
  vesting_start: "0.25"
  vesting_period: 48h
normalization: portion
steps:
  - op: fund
    token: usdc
    amount: "10"
    duration: 1h
  - at: 30m
    op: stake
    account: alice
    shares: "1"
    gysr: "2"
`))
	require.NoError(t, err)
	assert.Equal(t, "demo", sc.Name)
	assert.Equal(t, 48*time.Hour, sc.Policy.VestingPeriod)
	require.Len(t, sc.Steps, 2)
	assert.Equal(t, time.Hour, sc.Steps[0].Duration)
	assert.Equal(t, 30*time.Minute, sc.Steps[1].At)

	policy, err := sc.Policy.build()
	require.NoError(t, err)
	assert.Equal(t, rewards.Friendly{VestingStart: fixed.MustParse("0.25"), VestingPeriod: 48 * 3600}, policy)

	norm, err := parseNormalization(sc.Normalization)
	require.NoError(t, err)
	assert.Equal(t, "portion", norm.String())
}

func TestParseScenario_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed", "name: [x"},
		{"no name", "policy: {kind: friendly}"},
		{"time runs backwards", "name: x\nsteps:\n  - at: 2h\n    op: update\n  - at: 1h\n    op: update\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.data))
			assert.Error(t, err)
		})
	}

	_, err := NewSimulation(&Scenario{Name: "x", Policy: PolicySpec{Kind: "greedy"}})
	assert.ErrorContains(t, err, "unknown policy kind")

	_, err = NewSimulation(&Scenario{Name: "x", Policy: PolicySpec{Kind: "friendly"}, Normalization: "sqrt"})
	assert.ErrorContains(t, err, "unknown normalization")

	// bonus min below one is refused by the pool
	_, err = NewSimulation(&Scenario{Name: "x", Policy: PolicySpec{Kind: "competitive", BonusMin: "0.5"}})
	assert.Error(t, err)
}

func TestSimulation_Expectations(t *testing.T) {
	base := func(steps ...Step) *Scenario {
		return &Scenario{
			Name:   "expect",
			Policy: PolicySpec{Kind: "friendly"},
			Steps: append([]Step{
				{Op: "fund", Token: "usdc", Amount: "100", Duration: time.Hour},
				{Op: "stake", Account: "alice", Shares: "10"},
			}, steps...),
		}
	}
	run := func(sc *Scenario) (*Report, error) {
		sim, err := NewSimulation(sc)
		require.NoError(t, err)
		return sim.Run(context.Background())
	}

	_, err := run(base(Step{At: time.Hour, Op: "unstake", Account: "alice", Shares: "10", Expect: &Expect{Reward: "100"}}))
	assert.NoError(t, err)

	_, err = run(base(Step{At: time.Hour, Op: "unstake", Account: "alice", Shares: "10", Expect: &Expect{Reward: "99"}}))
	assert.ErrorContains(t, err, "want 99")

	_, err = run(base(Step{At: time.Hour, Op: "unstake", Account: "alice", Shares: "10", Expect: &Expect{Reward: "99", Tolerance: "1"}}))
	assert.NoError(t, err)

	// an unexpected revert fails the run
	_, err = run(base(Step{Op: "unstake", Account: "bob", Shares: "1"}))
	assert.Error(t, err)

	// a revert of the wrong kind too
	_, err = run(base(Step{Op: "unstake", Account: "bob", Shares: "1", Expect: &Expect{Revert: "unauthorized"}}))
	assert.ErrorContains(t, err, "expected revert")

	report, err := run(base(Step{Op: "stake", Account: "bob", Shares: "0", Expect: &Expect{Revert: "invalid argument"}}))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Reverts)

	_, err = run(base(Step{Op: "teleport"}))
	assert.ErrorContains(t, err, "unknown op")
}

func TestSimulation_FeesAndRebase(t *testing.T) {
	sim, err := NewSimulation(&Scenario{
		Name:         "tokens",
		Policy:       PolicySpec{Kind: "friendly"},
		TransferFees: []FeeSpec{{Token: "fee", Fee: "0.1"}},
		Steps: []Step{
			{Op: "fund", Token: "fee", Amount: "100", Duration: time.Hour},
			{Op: "fund", Token: "elastic", Amount: "100", Duration: time.Hour},
			{Op: "stake", Account: "alice", Shares: "1"},
			{At: time.Hour, Op: "rebase", Token: "elastic", Factor: "2"},
			{At: time.Hour, Op: "unstake", Account: "alice", Shares: "1", Token: "elastic", Expect: &Expect{Reward: "200"}},
		},
	})
	require.NoError(t, err)
	report, err := sim.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Accounts, 1)
	alice := report.Accounts[0]
	assert.Equal(t, "alice", alice.Account)
	assert.Equal(t, "0", alice.Shares)
	assert.Equal(t, "200", alice.Paid["elastic"])
	// 100 in less 10% on the way in, then 10% of 90 on the way out
	assert.Equal(t, "81", alice.Paid["fee"])
	assert.Equal(t, time.Hour, report.Elapsed)
}

func TestSimulation_ManyEventsInOneStep(t *testing.T) {
	const tokens = 150
	sc := &Scenario{Name: "wide", Policy: PolicySpec{Kind: "friendly"}}
	for i := range tokens {
		sc.Steps = append(sc.Steps, Step{Op: "fund", Token: fmt.Sprintf("t%d", i), Amount: "1", Duration: time.Hour})
	}
	sc.Steps = append(sc.Steps,
		Step{Op: "stake", Account: "alice", Shares: "1"},
		Step{At: time.Hour, Op: "unstake", Account: "alice", Shares: "1"},
	)

	sim, err := NewSimulation(sc)
	require.NoError(t, err)
	report, err := sim.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, tokens, report.Events["Funded"])
	assert.Equal(t, tokens, report.Events["Unlocked"])
	assert.Equal(t, tokens, report.Events["RewardsDistributed"])
	assert.Equal(t, 1, report.Events["Unstaked"])
}

func TestRunAll(t *testing.T) {
	db, err := kv.NewMem()
	require.NoError(t, err)
	defer db.Close()
	st := store.New(db)
	reg := newRegistry()
	defer reg.close()

	files, err := scenarioFiles([]string{"scenarios"})
	require.NoError(t, err)
	require.Len(t, files, 2)

	reports, err := runAll(context.Background(), files, 2, st, reg)
	require.NoError(t, err)
	require.Len(t, reports, 2)

	byName := map[string]*Report{}
	for _, r := range reports {
		byName[r.Name] = r
	}

	comp := byName["competitive-even"]
	require.NotNil(t, comp)
	assert.Equal(t, "competitive", comp.Policy)
	require.Len(t, comp.Tokens, 1)
	assert.Equal(t, 0, comp.Tokens[0].Fundings, "drained fundings are cleaned")
	assert.Equal(t, "1000", comp.Tokens[0].Distributed)
	assert.Equal(t, "0", comp.Staked)
	assert.Equal(t, 2, comp.Events["Unstaked"])
	assert.Equal(t, 1, comp.Events["Expired"])

	friendly := byName["friendly-dust"]
	require.NotNil(t, friendly)
	assert.Equal(t, 1, friendly.Reverts)
	require.Len(t, friendly.Tokens, 1)
	assert.Equal(t, "1000", friendly.Tokens[0].Distributed)
	assert.Equal(t, "0", friendly.Tokens[0].Locked)
	require.Len(t, friendly.Accounts, 2)
	assert.Equal(t, "187.5", friendly.Accounts[0].Paid["usdc"])
	assert.Equal(t, "812.5", friendly.Accounts[1].Paid["usdc"])
	assert.Equal(t, 1, friendly.Accounts[1].Stakes)

	assert.Equal(t, []string{"competitive-even", "friendly-dust"}, reg.Names())

	ids, err := st.IDs()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"competitive-even", "friendly-dust"}, ids)

	live, ok := reg.Pool("friendly-dust")
	require.True(t, ok)
	loaded, err := st.Load("friendly-dust", rewards.Config{Vault: vault.NewBank().Vault(addressOf("pool"))})
	require.NoError(t, err)
	assert.Equal(t, live.Snapshot(), loaded.Snapshot())
}

func TestRunAll_StopsOnFailure(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("name: bad\npolicy: {kind: friendly}\nsteps:\n  - op: unstake\n    account: x\n    shares: \"1\"\n"), 0o600))

	db, err := kv.NewMem()
	require.NoError(t, err)
	defer db.Close()

	_, err = runAll(context.Background(), []string{bad}, 1, store.New(db), newRegistry())
	assert.ErrorContains(t, err, "bad: step 0 (unstake)")
}

func TestWriteReports(t *testing.T) {
	reports := []*Report{{Name: "a", Policy: "friendly", Elapsed: time.Hour, Events: map[string]int{"Staked": 1}}}

	var buf bytes.Buffer
	require.NoError(t, writeReports(&buf, "yaml", reports))
	var decoded Report
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "a", decoded.Name)
	assert.Equal(t, time.Hour, decoded.Elapsed)

	buf.Reset()
	require.NoError(t, writeReports(&buf, "json", reports))
	var list []Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].Events["Staked"])

	assert.Error(t, writeReports(&buf, "csv", reports))
}

func TestRunAll_DuplicateNames(t *testing.T) {
	db, err := kv.NewMem()
	require.NoError(t, err)
	defer db.Close()

	file := filepath.Join("scenarios", "friendly.yaml")
	_, err = runAll(context.Background(), []string{file, file}, 1, store.New(db), newRegistry())
	assert.ErrorContains(t, err, "duplicate pool name")
}
