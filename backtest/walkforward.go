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
	"math"
	"time"

	"github.com/fundlens/fundlens/aligner"
	"github.com/fundlens/fundlens/regression"
	"github.com/fundlens/fundlens/solver"
	"golang.org/x/sync/errgroup"
)

const (
	// minimum months of history before the first prediction
	minHistoryMonths = 12

	// trailing training window cap, in months
	maxTrainMonths = 24

	// displayR2Floor caps the reported ensemble R2 for display; the actual
	// value is retained for audit. Empirical policy constant
	displayR2Floor = -1.0
)

// WalkForwardResult is the out-of-sample backtest of the constrained model:
// date-indexed predicted fund returns and summary fit statistics
type WalkForwardResult struct {
	Dates     []time.Time
	Predicted []float64
	Actual    []float64

	// TrackingError is the RMSE between predicted and actual fund returns
	// over all predicted dates
	TrackingError float64

	// R2 is the display value, floored at displayR2Floor; R2Actual is the
	// uncapped value retained for audit
	R2       float64
	R2Actual float64
}

// WalkForward re-estimates constrained weights for every date with at least
// minHistoryMonths of preceding history, fitting on a trailing window of up
// to maxTrainMonths months that excludes the current date (no lookahead),
// then predicts the current month's fund return
func WalkForward(ctx context.Context, al *aligner.Aligned, workers int) (*WalkForwardResult, error) {
	n := al.Matrix.Len()
	if n <= minHistoryMonths {
		return &WalkForwardResult{
			TrackingError: math.NaN(),
			R2:            math.NaN(),
			R2Actual:      math.NaN(),
		}, nil
	}

	numPreds := n - minHistoryMonths
	predicted := make([]float64, numPreds)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workers)

	for i := minHistoryMonths; i < n; i++ {
		i := i
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}

			begin := i - maxTrainMonths
			if begin < 0 {
				begin = 0
			}

			train := al.Matrix.RowRange(begin, i)
			fund := al.Fund[begin:i]

			solution, err := solver.Solve(train, fund, nil, solver.EqualWeights(train.ColCount()))
			if err != nil {
				return err
			}

			row := al.Matrix.Row(i)
			var pred float64
			for colIdx, w := range solution.Weights {
				pred += row[colIdx] * w
			}
			predicted[i-minHistoryMonths] = pred
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	actual := al.Fund[minHistoryMonths:]
	r2 := regression.R2(actual, predicted, nil)

	return &WalkForwardResult{
		Dates:         al.Dates()[minHistoryMonths:],
		Predicted:     predicted,
		Actual:        actual,
		TrackingError: regression.RMSE(actual, predicted),
		R2:            math.Max(r2, displayR2Floor),
		R2Actual:      r2,
	}, nil
}
