// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package bonus

import (
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	"github.com/gysr/ledger/fixed"
)

// lnPrecision is the number of decimal digits carried through the log evaluation.
const lnPrecision = 30

var (
	// UsageOffset keeps the bonus finite while usage is zero.
	UsageOffset = fixed.MustParse("0.01")
	// Proportion is the share of the pool above which a GYSR spend gets diluted
	// under the Portion normalization.
	Proportion = fixed.MustParse("0.01")

	ln10 = mustLn(decimal.NewFromInt(10))
)

// Normalization selects how a GYSR spend is scaled against the shares it boosts.
type Normalization uint8

const (
	// PerShare divides the GYSR spent by the shares of the action.
	PerShare Normalization = iota
	// Portion keeps the GYSR spent as-is unless the action exceeds Proportion of the pool,
	// in which case it is scaled down by portion/shares.
	Portion
)

func (n Normalization) String() string {
	switch n {
	case PerShare:
		return "per-share"
	case Portion:
		return "portion"
	default:
		return "unknown"
	}
}

func mustLn(d decimal.Decimal) decimal.Decimal {
	v, err := d.Ln(lnPrecision)
	if err != nil {
		panic(err)
	}
	return v
}

// GysrBonus returns the multiplier bought by spending gysr on an action over
// shares, within a pool holding total shares after the action, at usage ratio usage:
//
//	mult = 1 + log10(1 + normalized / (0.01 + usage))
//
// The result is always >= 1 and exactly 1 when nothing is spent.
func GysrBonus(gysr, shares, total, usage *uint256.Int, norm Normalization) *uint256.Int {
	if gysr.IsZero() || shares.IsZero() || total.IsZero() {
		return fixed.One()
	}

	var normalized *uint256.Int
	switch norm {
	case Portion:
		normalized = fixed.Clone(gysr)
		portion := fixed.Mul(Proportion, total)
		if shares.Cmp(portion) > 0 {
			normalized = fixed.MulDiv(gysr, portion, shares)
		}
	default:
		normalized = fixed.Div(gysr, shares)
	}

	x := fixed.ToDecimal(normalized).
		DivRound(fixed.ToDecimal(fixed.Add(UsageOffset, usage)), lnPrecision).
		Add(decimal.NewFromInt(1))
	ln, err := x.Ln(lnPrecision)
	if err != nil {
		return fixed.One()
	}
	mult := fixed.FromDecimal(ln.DivRound(ln10, lnPrecision).Add(decimal.NewFromInt(1)))
	if mult.Cmp(fixed.One()) < 0 {
		return fixed.One()
	}
	return mult
}

// TimeBonus returns the competitive time multiplier for a stake of the given age,
// growing linearly from min to max over period seconds.
func TimeBonus(age uint64, min, max *uint256.Int, period uint64) *uint256.Int {
	if period == 0 {
		return fixed.Clone(max)
	}
	return linear(age, min, max, period)
}

// Vesting returns the friendly vesting coefficient for a stake of the given age,
// growing linearly from start to 1 over period seconds.
func Vesting(age uint64, start *uint256.Int, period uint64) *uint256.Int {
	if period == 0 {
		return fixed.One()
	}
	return linear(age, start, fixed.One(), period)
}

func linear(age uint64, from, to *uint256.Int, period uint64) *uint256.Int {
	if age >= period {
		return fixed.Clone(to)
	}
	if to.Cmp(from) <= 0 {
		return fixed.Clone(from)
	}
	span := new(uint256.Int).Sub(to, from)
	step := fixed.MulDiv(span, uint256.NewInt(age), uint256.NewInt(period))
	return step.Add(step, from)
}
