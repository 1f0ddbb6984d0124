// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"fmt"

	"github.com/ethereum/go-ethereum/event"
	"github.com/holiman/uint256"

	"github.com/gysr/ledger/gysr"
)

// EventKind identifies what an Event reports.
type EventKind uint8

const (
	EventFunded EventKind = iota + 1
	EventUnlocked
	EventExpired
	EventStaked
	EventUnstaked
	EventClaimed
	EventRewardsDistributed
	EventGysrSpent
	EventGysrVested
	EventRewardsDust
)

func (k EventKind) String() string {
	switch k {
	case EventFunded:
		return "Funded"
	case EventUnlocked:
		return "Unlocked"
	case EventExpired:
		return "Expired"
	case EventStaked:
		return "Staked"
	case EventUnstaked:
		return "Unstaked"
	case EventClaimed:
		return "Claimed"
	case EventRewardsDistributed:
		return "RewardsDistributed"
	case EventGysrSpent:
		return "GysrSpent"
	case EventGysrVested:
		return "GysrVested"
	case EventRewardsDust:
		return "RewardsDust"
	default:
		return fmt.Sprintf("EventKind(%d)", uint8(k))
	}
}

// Event is emitted once a call has committed.
// Fields not relevant to the kind are left zero.
type Event struct {
	Kind      EventKind
	Account   gysr.Address
	Token     gysr.Address
	Amount    *uint256.Int // tokens, or GYSR for the Gysr kinds
	Shares    *uint256.Int
	Duration  uint64 // Funded and Expired
	Start     uint64 // Funded and Expired
	Timestamp uint64
}

// SubscribeEvents delivers the events of every committed call to ch.
// Delivery blocks the committing call, so receivers should keep up.
func (p *Pool) SubscribeEvents(ch chan *Event) event.Subscription {
	return p.scope.Track(p.feed.Subscribe(ch))
}

func (c *call) emit(ev *Event) {
	ev.Timestamp = c.now
	c.events = append(c.events, ev)
}
