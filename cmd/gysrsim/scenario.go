// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"os"
	"time"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/gysr/ledger/fixed"
	"github.com/gysr/ledger/gysr"
	"github.com/gysr/ledger/rewards"
	"github.com/gysr/ledger/rewards/bonus"
)

// Scenario is a scripted sequence of pool calls.
type Scenario struct {
	Name          string     `yaml:"name"`
	Genesis       uint64     `yaml:"genesis"`
	Policy        PolicySpec `yaml:"policy"`
	Normalization string     `yaml:"normalization"`
	MaxFundings   int        `yaml:"max_fundings"`
	TransferFees  []FeeSpec  `yaml:"transfer_fees"`
	Steps         []Step     `yaml:"steps"`
}

// PolicySpec selects and parameterizes the distribution policy.
type PolicySpec struct {
	Kind          string        `yaml:"kind"`
	BonusMin      string        `yaml:"bonus_min"`
	BonusMax      string        `yaml:"bonus_max"`
	BonusPeriod   time.Duration `yaml:"bonus_period"`
	VestingStart  string        `yaml:"vesting_start"`
	VestingPeriod time.Duration `yaml:"vesting_period"`
}

// FeeSpec makes a token burn a fraction of every transfer.
type FeeSpec struct {
	Token string `yaml:"token"`
	Fee   string `yaml:"fee"`
}

// Step is one call, made at an offset from genesis. Offsets must not decrease.
type Step struct {
	At       time.Duration `yaml:"at"`
	Op       string        `yaml:"op"`
	Account  string        `yaml:"account"`
	Token    string        `yaml:"token"`
	Amount   string        `yaml:"amount"`
	Shares   string        `yaml:"shares"`
	Gysr     string        `yaml:"gysr"`
	Duration time.Duration `yaml:"duration"`
	Factor   string        `yaml:"factor"` // rebase
	Expect   *Expect       `yaml:"expect"`
}

// Expect checks the outcome of a step.
type Expect struct {
	Reward    string `yaml:"reward"`
	Revert    string `yaml:"revert"`
	Tolerance string `yaml:"tolerance"`
}

// LoadScenario reads a scenario from a YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read scenario")
	}
	return ParseScenario(data)
}

// ParseScenario decodes a YAML scenario and validates its shape.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, errors.Wrap(err, "decode scenario")
	}
	if sc.Name == "" {
		return nil, errors.New("scenario has no name")
	}
	var last time.Duration
	for i, step := range sc.Steps {
		if step.At < last {
			return nil, errors.Errorf("step %d: offset %v is before the previous step", i, step.At)
		}
		last = step.At
	}
	return &sc, nil
}

func (p PolicySpec) build() (rewards.Policy, error) {
	switch p.Kind {
	case "competitive":
		min, err := parseFixed(p.BonusMin, "1")
		if err != nil {
			return nil, err
		}
		max, err := parseFixed(p.BonusMax, "1")
		if err != nil {
			return nil, err
		}
		return rewards.Competitive{BonusMin: min, BonusMax: max, BonusPeriod: seconds(p.BonusPeriod)}, nil
	case "friendly":
		start, err := parseFixed(p.VestingStart, "1")
		if err != nil {
			return nil, err
		}
		return rewards.Friendly{VestingStart: start, VestingPeriod: seconds(p.VestingPeriod)}, nil
	default:
		return nil, errors.Errorf("unknown policy kind %q", p.Kind)
	}
}

func parseNormalization(s string) (bonus.Normalization, error) {
	switch s {
	case "", bonus.PerShare.String():
		return bonus.PerShare, nil
	case bonus.Portion.String():
		return bonus.Portion, nil
	default:
		return 0, errors.Errorf("unknown normalization %q", s)
	}
}

// parseFixed parses s, or def when s is empty.
func parseFixed(s, def string) (*uint256.Int, error) {
	if s == "" {
		s = def
	}
	return fixed.Parse(s)
}

func seconds(d time.Duration) uint64 {
	if d <= 0 {
		return 0
	}
	return uint64(d / time.Second)
}

// addressOf maps a scenario name to an address.
func addressOf(name string) gysr.Address {
	if addr, err := gysr.ParseAddress(name); err == nil {
		return addr
	}
	return gysr.BytesToAddress([]byte(name))
}
