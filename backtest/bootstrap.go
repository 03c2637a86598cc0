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

package backtest

import (
	"context"
	"math/rand"
	"time"

	"github.com/fundlens/fundlens/aligner"
	"github.com/fundlens/fundlens/dataframe"
	"github.com/fundlens/fundlens/solver"
	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"
)

const (
	lowerPercentile = 2.5
	upperPercentile = 97.5
)

// ConfidenceInterval is a per-asset 95% bootstrap interval on the ensemble
// weight
type ConfidenceInterval struct {
	Lower float64
	Upper float64
}

// Bootstrap resamples the aligned observations with replacement `samples`
// times and re-solves the constrained optimization for each resample,
// seeding the optimizer at the ensemble weights so it converges near the
// optimum. Each resample derives its own rand source from the base seed, so
// results are reproducible regardless of worker scheduling. Returns the
// 2.5th/97.5th percentile weight per asset
func Bootstrap(ctx context.Context, al *aligner.Aligned, ensembleWeights []float64, samples int, seed int64, workers int) (map[string]ConfidenceInterval, error) {
	n := al.Matrix.Len()
	k := al.Matrix.ColCount()

	drawn := make([][]float64, samples)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workers)

	for sampleIdx := 0; sampleIdx < samples; sampleIdx++ {
		sampleIdx := sampleIdx
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}

			rng := rand.New(rand.NewSource(seed + int64(sampleIdx) + 1))

			resampled := &dataframe.DataFrame{
				Dates:    make([]time.Time, n),
				ColNames: al.Assets(),
				Vals:     make([][]float64, k),
			}
			for colIdx := range resampled.Vals {
				resampled.Vals[colIdx] = make([]float64, n)
			}
			fund := make([]float64, n)

			for rowIdx := 0; rowIdx < n; rowIdx++ {
				draw := rng.Intn(n)
				resampled.Dates[rowIdx] = al.Matrix.Dates[draw]
				for colIdx := 0; colIdx < k; colIdx++ {
					resampled.Vals[colIdx][rowIdx] = al.Matrix.Vals[colIdx][draw]
				}
				fund[rowIdx] = al.Fund[draw]
			}

			solution, err := solver.Solve(resampled, fund, nil, ensembleWeights)
			if err != nil {
				return err
			}

			drawn[sampleIdx] = solution.Weights
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	intervals := make(map[string]ConfidenceInterval, k)
	assetDraws := make([]float64, samples)
	for colIdx, symbol := range al.Assets() {
		for sampleIdx := range drawn {
			assetDraws[sampleIdx] = drawn[sampleIdx][colIdx]
		}

		lower, err := stats.Percentile(assetDraws, lowerPercentile)
		if err != nil {
			return nil, err
		}
		upper, err := stats.Percentile(assetDraws, upperPercentile)
		if err != nil {
			return nil, err
		}

		intervals[symbol] = ConfidenceInterval{Lower: lower, Upper: upper}
	}

	return intervals, nil
}
