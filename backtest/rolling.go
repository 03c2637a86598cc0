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

// Package backtest re-estimates constrained weights over many data subsets:
// trailing rolling windows, walk-forward prediction windows and bootstrap
// resamples. Each sub-fit is independent; a failed solve falls back to its
// seed weights and never inherits a neighboring window's answer.
package backtest

import (
	"context"

	"github.com/fundlens/fundlens/aligner"
	"github.com/fundlens/fundlens/dataframe"
	"github.com/fundlens/fundlens/solver"
	"golang.org/x/sync/errgroup"
)

// Rolling re-solves the constrained weights on every trailing window of
// each requested size. The weight row stored at date t is fit on the window
// [t-size, t), so no row ever sees its own date. Window solves are
// independent and fan out across workers; a failed solve records equal
// weights for that window only
func Rolling(ctx context.Context, al *aligner.Aligned, windowSizes []int, workers int) (map[int]*dataframe.DataFrame, error) {
	results := make(map[int]*dataframe.DataFrame, len(windowSizes))

	for _, size := range windowSizes {
		n := al.Matrix.Len()
		if n <= size {
			continue
		}

		weights := &dataframe.DataFrame{
			Dates:    al.Dates()[size:],
			ColNames: al.Assets(),
			Vals:     make([][]float64, al.Matrix.ColCount()),
		}
		for colIdx := range weights.Vals {
			weights.Vals[colIdx] = make([]float64, n-size)
		}

		group, groupCtx := errgroup.WithContext(ctx)
		group.SetLimit(workers)

		for t := size; t < n; t++ {
			t := t
			group.Go(func() error {
				if err := groupCtx.Err(); err != nil {
					return err
				}

				window := al.Matrix.RowRange(t-size, t)
				fund := al.Fund[t-size : t]

				solution, err := solver.Solve(window, fund, nil, solver.EqualWeights(window.ColCount()))
				if err != nil {
					return err
				}

				for colIdx, w := range solution.Weights {
					weights.Vals[colIdx][t-size] = w
				}
				return nil
			})
		}

		if err := group.Wait(); err != nil {
			return nil, err
		}

		results[size] = weights
	}

	return results, nil
}
