// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package fixed implements 18-decimal fixed point arithmetic on unsigned 256-bit integers.
// Token amounts, shares, multipliers and ratios all share this representation.
package fixed

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Decimals is the number of decimal places carried by a fixed value.
const Decimals = 18

var one = uint256.NewInt(1e18)

// One returns a fresh fixed value of 1.0.
func One() *uint256.Int {
	return new(uint256.Int).Set(one)
}

// Zero returns a fresh zero value.
func Zero() *uint256.Int {
	return new(uint256.Int)
}

// New returns v whole units as a fixed value.
func New(v uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(v), one)
}

// Clone copies x, treating nil as zero.
func Clone(x *uint256.Int) *uint256.Int {
	if x == nil {
		return new(uint256.Int)
	}
	return new(uint256.Int).Set(x)
}

// MulDiv returns floor(x*y/d) with a 512-bit intermediate product.
// A zero divisor yields zero and an overflowing quotient saturates.
func MulDiv(x, y, d *uint256.Int) *uint256.Int {
	if d.IsZero() {
		return new(uint256.Int)
	}
	z, overflow := new(uint256.Int).MulDivOverflow(x, y, d)
	if overflow {
		return new(uint256.Int).SetAllOne()
	}
	return z
}

// Mul multiplies two fixed values.
func Mul(x, y *uint256.Int) *uint256.Int {
	return MulDiv(x, y, one)
}

// Div divides two fixed values. Division by zero yields zero.
func Div(x, y *uint256.Int) *uint256.Int {
	return MulDiv(x, one, y)
}

// Add returns x+y, saturating on overflow.
func Add(x, y *uint256.Int) *uint256.Int {
	z, overflow := new(uint256.Int).AddOverflow(x, y)
	if overflow {
		return new(uint256.Int).SetAllOne()
	}
	return z
}

// Sub returns x-y clamped at zero.
func Sub(x, y *uint256.Int) *uint256.Int {
	if x.Cmp(y) <= 0 {
		return new(uint256.Int)
	}
	return new(uint256.Int).Sub(x, y)
}

// Min returns a copy of the smaller value.
func Min(x, y *uint256.Int) *uint256.Int {
	if x.Cmp(y) <= 0 {
		return new(uint256.Int).Set(x)
	}
	return new(uint256.Int).Set(y)
}

// Ratio returns a/b as a fixed value, computed from plain integers.
func Ratio(a, b uint64) *uint256.Int {
	return MulDiv(uint256.NewInt(a), one, uint256.NewInt(b))
}

// ToDecimal converts a fixed value into an exact decimal.
func ToDecimal(x *uint256.Int) decimal.Decimal {
	if x == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(x.ToBig(), -Decimals)
}

// FromDecimal converts a decimal into a fixed value, truncating extra precision.
// Negative values clamp to zero.
func FromDecimal(d decimal.Decimal) *uint256.Int {
	if d.Sign() <= 0 {
		return new(uint256.Int)
	}
	z, overflow := uint256.FromBig(d.Shift(Decimals).BigInt())
	if overflow {
		return new(uint256.Int).SetAllOne()
	}
	return z
}

// Parse reads a human decimal string such as "1000.5" into a fixed value.
func Parse(s string) (*uint256.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, errors.Wrapf(err, "parse fixed %q", s)
	}
	if d.Sign() < 0 {
		return nil, errors.Errorf("negative fixed %q", s)
	}
	return FromDecimal(d), nil
}

// MustParse is Parse that panics on error.
func MustParse(s string) *uint256.Int {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String renders a fixed value in human decimal form.
func String(x *uint256.Int) string {
	return ToDecimal(x).String()
}

// Float returns an approximate float projection, intended for tolerances and gauges.
func Float(x *uint256.Int) float64 {
	f, _ := ToDecimal(x).Float64()
	return f
}
