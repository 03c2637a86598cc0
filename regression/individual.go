// Copyright 2021-2022
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package regression

import (
	"math"
	"sort"

	"github.com/fundlens/fundlens/dataframe"
	"gonum.org/v1/gonum/stat"
)

// AssetStat reports how well a single asset explains fund returns on its
// own; diagnostic only, it does not feed into the ensemble
type AssetStat struct {
	Symbol   string
	Pearson  float64
	Spearman float64
	R2       float64
	Slope    float64
}

// AnalyzeIndividual computes correlation and single-variable regression
// statistics for every asset column against fund returns, sorted descending
// by R-squared
func AnalyzeIndividual(m *dataframe.DataFrame, fund []float64) []AssetStat {
	fundRanks := rank(fund)

	results := make([]AssetStat, 0, m.ColCount())
	for colIdx, symbol := range m.ColNames {
		col := m.Vals[colIdx]

		alpha, beta := stat.LinearRegression(col, fund, nil, false)
		r2 := stat.RSquared(col, fund, nil, alpha, beta)

		results = append(results, AssetStat{
			Symbol:   symbol,
			Pearson:  stat.Correlation(col, fund, nil),
			Spearman: stat.Correlation(rank(col), fundRanks, nil),
			R2:       r2,
			Slope:    beta,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i].R2, results[j].R2
		if math.IsNaN(b) {
			return !math.IsNaN(a)
		}
		if math.IsNaN(a) {
			return false
		}
		return a > b
	})

	return results
}

// rank converts values to their 1-based ranks, assigning tied values the
// average of their positions (same convention as Spearman's rho)
func rank(vals []float64) []float64 {
	n := len(vals)
	order := make([]int, n)
	for idx := range order {
		order[idx] = idx
	}
	sort.SliceStable(order, func(i, j int) bool {
		return vals[order[i]] < vals[order[j]]
	})

	ranks := make([]float64, n)
	for pos := 0; pos < n; {
		end := pos + 1
		for end < n && vals[order[end]] == vals[order[pos]] {
			end++
		}

		// average rank across the tie group
		avg := float64(pos+end+1) / 2.0
		for idx := pos; idx < end; idx++ {
			ranks[order[idx]] = avg
		}
		pos = end
	}

	return ranks
}
