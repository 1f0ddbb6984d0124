// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package funding

import (
	"sort"

	"github.com/holiman/uint256"

	"github.com/gysr/ledger/fixed"
	"github.com/gysr/ledger/gysr"
	"github.com/gysr/ledger/reverts"
)

// MaxActive is the default cap on concurrently active fundings per reward token.
const MaxActive = 16

var (
	errZeroAmount    = reverts.New(reverts.InvalidArgument, "funding amount is zero")
	errStartInPast   = reverts.New(reverts.InvalidArgument, "funding start is in the past")
	errZeroShares    = reverts.New(reverts.InvalidArgument, "funding mints no shares")
	errExceedsActive = reverts.New(reverts.CapacityExceeded, "exceeds max active schedules")
)

// Unlocked reports shares released from one token's schedules during an unlock step.
type Unlocked struct {
	Token  gysr.Address
	Shares *uint256.Int
}

// Expired reports a funding removed by a clean step.
type Expired struct {
	Token   gysr.Address
	Funding *Funding
}

// Service manages the funding schedules of every reward token of a pool.
type Service struct {
	tokens    map[gysr.Address]*Token
	maxActive int
}

func New(maxActive int) *Service {
	if maxActive <= 0 {
		maxActive = MaxActive
	}
	return &Service{
		tokens:    make(map[gysr.Address]*Token),
		maxActive: maxActive,
	}
}

// MaxActive returns the per-token cap on active fundings.
func (s *Service) MaxActive() int {
	return s.maxActive
}

// Token returns the context of a reward token, or nil if it was never funded.
func (s *Service) Token(addr gysr.Address) *Token {
	return s.tokens[addr]
}

// Tokens lists funded reward tokens in address order.
func (s *Service) Tokens() []gysr.Address {
	addrs := make([]gysr.Address, 0, len(s.tokens))
	for addr := range s.tokens {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i].Compare(addrs[j]) < 0 })
	return addrs
}

// Restore installs a token context, replacing any existing one.
func (s *Service) Restore(tok *Token) {
	s.tokens[tok.Address] = tok
}

// Validate checks funding arguments before anything is transferred.
func Validate(amount *uint256.Int, start, now uint64) error {
	if amount == nil || amount.IsZero() {
		return errZeroAmount
	}
	if start < now {
		return errStartInPast
	}
	return nil
}

// Reserve makes room for one more funding of token, removing drained fundings if the token is at capacity.
// It must run after the unlock step.
func (s *Service) Reserve(addr gysr.Address) ([]Expired, error) {
	tok := s.tokens[addr]
	if tok == nil || len(tok.Fundings) < s.maxActive {
		return nil, nil
	}
	removed := s.clean(tok)
	if len(tok.Fundings) >= s.maxActive {
		return nil, errExceedsActive
	}
	return removed, nil
}

// Quote returns the shares a deposit of amount would mint. It fails when the deposit
// is too small to mint any at the current rate.
func (s *Service) Quote(addr gysr.Address, amount, balanceBefore *uint256.Int) (*uint256.Int, error) {
	tok := s.tokens[addr]
	if tok == nil {
		tok = newToken(addr)
	}
	shares := tok.TokensToShares(amount, balanceBefore)
	if shares.IsZero() {
		return nil, errZeroShares
	}
	return shares, nil
}

// Add appends a funding of received tokens to token. balanceBefore is the pool's
// token balance before the deposit and fixes the share rate.
func (s *Service) Add(addr gysr.Address, received, balanceBefore *uint256.Int, duration, start uint64) (*Funding, error) {
	tok := s.tokens[addr]
	if tok == nil {
		tok = newToken(addr)
	}
	if len(tok.Fundings) >= s.maxActive {
		return nil, errExceedsActive
	}
	shares := tok.TokensToShares(received, balanceBefore)
	if shares.IsZero() {
		return nil, errZeroShares
	}

	f := &Funding{
		Amount:   fixed.Clone(received),
		Shares:   shares,
		Locked:   fixed.Clone(shares),
		Duration: duration,
		Start:    start,
		Updated:  start,
	}
	tok.Fundings = append(tok.Fundings, f)
	tok.Locked = fixed.Add(tok.Locked, shares)
	tok.Total = fixed.Add(tok.Total, shares)
	tok.Funded = fixed.Add(tok.Funded, received)
	s.tokens[addr] = tok
	return f, nil
}

// Unlock is the unlock step: it advances every funding of every token to now.
// Only tokens that released shares are reported.
func (s *Service) Unlock(now uint64) []Unlocked {
	var out []Unlocked
	for _, addr := range s.Tokens() {
		if delta := s.tokens[addr].Unlock(now); !delta.IsZero() {
			out = append(out, Unlocked{Token: addr, Shares: delta})
		}
	}
	return out
}

// Clean removes drained fundings from every token. It must run after the unlock step.
func (s *Service) Clean() []Expired {
	var out []Expired
	for _, addr := range s.Tokens() {
		out = append(out, s.clean(s.tokens[addr])...)
	}
	return out
}

func (s *Service) clean(tok *Token) []Expired {
	var out []Expired
	for _, f := range tok.Clean() {
		out = append(out, Expired{Token: tok.Address, Funding: f})
	}
	return out
}

// Count returns the number of active fundings of token.
func (s *Service) Count(addr gysr.Address) int {
	if tok := s.tokens[addr]; tok != nil {
		return len(tok.Fundings)
	}
	return 0
}

func (s *Service) Clone() *Service {
	c := &Service{
		tokens:    make(map[gysr.Address]*Token, len(s.tokens)),
		maxActive: s.maxActive,
	}
	for addr, tok := range s.tokens {
		c.tokens[addr] = tok.Clone()
	}
	return c
}
