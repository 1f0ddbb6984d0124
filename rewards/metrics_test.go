// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gysr/ledger/fixed"
	"github.com/gysr/ledger/metrics"
	"github.com/gysr/ledger/reverts"
)

func init() {
	metrics.InitializePrometheusMetrics()
}

func consumedSlices(t *testing.T) uint64 {
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == "gysr_ledger_rewards_consumed_slices" {
			return mf.GetMetric()[0].GetHistogram().GetSampleCount()
		}
	}
	return 0
}

func TestMetrics_ConsumedSlices(t *testing.T) {
	p := newTestPool(t, flatCompetitive())
	p.stake(t, alice, 10)
	p.stake(t, alice, 10)
	before := consumedSlices(t)

	_, err := p.Preview(alice, fixed.New(15), nil)
	require.NoError(t, err)
	assert.Equal(t, before, consumedSlices(t))

	_, err = p.Unstake(context.Background(), alice, fixed.New(21), nil)
	assert.True(t, reverts.Is(err, reverts.InsufficientBalance))
	assert.Equal(t, before, consumedSlices(t))

	_, err = p.Unstake(context.Background(), alice, fixed.New(15), nil)
	require.NoError(t, err)
	assert.Equal(t, before+1, consumedSlices(t))
}
