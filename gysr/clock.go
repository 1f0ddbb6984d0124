// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package gysr

import (
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common/mclock"
)

// Clock supplies the current timestamp in seconds. Successive readings must never decrease.
type Clock interface {
	Now() uint64
}

// SystemClock reads unix time from the wall clock.
type SystemClock struct{}

func (SystemClock) Now() uint64 {
	return uint64(time.Now().Unix())
}

// SimClock is a manually driven clock backed by a simulated monotonic clock.
type SimClock struct {
	mu   sync.Mutex
	sim  mclock.Simulated
	base uint64
}

// NewSimClock creates a simulated clock reading base seconds.
func NewSimClock(base uint64) *SimClock {
	return &SimClock{base: base}
}

func (c *SimClock) Now() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.base + uint64(time.Duration(c.sim.Now())/time.Second)
}

// Advance moves the clock forward by d.
func (c *SimClock) Advance(d time.Duration) {
	if d <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sim.Run(d)
}

// AdvanceTo moves the clock forward to ts. Earlier timestamps are ignored.
func (c *SimClock) AdvanceTo(ts uint64) {
	now := c.Now()
	if ts <= now {
		return
	}
	c.Advance(time.Duration(ts-now) * time.Second)
}
