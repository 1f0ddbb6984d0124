// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"github.com/gysr/ledger/fixed"
	"github.com/gysr/ledger/metrics"
)

var (
	metricCalls          = metrics.LazyLoadCounterVec("rewards_calls_total", []string{"pool", "op"})
	metricReverts        = metrics.LazyLoadCounterVec("rewards_reverts_total", []string{"pool", "op"})
	metricUsageRatio     = metrics.LazyLoadGaugeVec("rewards_usage_ratio_ppm", []string{"pool"})
	metricActiveFundings = metrics.LazyLoadGaugeVec("rewards_active_fundings", []string{"pool", "token"})
	metricSlices         = metrics.LazyLoadHistogram("rewards_consumed_slices", metrics.BucketShares)
)

// ppm scales a fixed point ratio to parts per million.
var ppm = fixed.New(1_000_000)

func (p *Pool) reportGauges(st *state) {
	ratio := fixed.Mul(st.usage.Ratio(), ppm)
	metricUsageRatio().SetWithLabel(int64(fixed.Float(ratio)), map[string]string{"pool": p.name})
	for _, addr := range st.funding.Tokens() {
		metricActiveFundings().SetWithLabel(
			int64(st.funding.Count(addr)),
			map[string]string{"pool": p.name, "token": addr.String()},
		)
	}
}
