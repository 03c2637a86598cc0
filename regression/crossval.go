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
	"errors"
	"math"

	"github.com/fundlens/fundlens/dataframe"
	"github.com/rs/zerolog/log"
)

var ErrNoFolds = errors.New("not enough rows for time-series cross validation")

// DefaultAlphas is the log-spaced penalty grid searched for all penalized
// models: 1e-6 .. 1e2
var DefaultAlphas = logspace(-6, 2, 9)

// DefaultL1Ratios is the elastic net L1/L2 mixing grid
var DefaultL1Ratios = []float64{0.1, 0.5, 0.7, 0.9}

// Fold is a forward-chaining train/test split: rows [0, TrainEnd) train the
// model and rows [TrainEnd, TestEnd) score it. Folds respect temporal order;
// no shuffling
type Fold struct {
	TrainEnd int
	TestEnd  int
}

// TimeSeriesFolds builds up to nSplits forward-chaining folds over n rows.
// Each test block has n/(nSplits+1) rows; the first fold trains on all
// remaining earlier rows. The split count shrinks when n is too small
func TimeSeriesFolds(n, nSplits int) []Fold {
	for nSplits > 1 && n/(nSplits+1) < 1 {
		nSplits--
	}

	testSize := n / (nSplits + 1)
	if testSize < 1 || n-nSplits*testSize < 1 {
		return nil
	}

	firstTrain := n - nSplits*testSize
	folds := make([]Fold, 0, nSplits)
	for ii := 0; ii < nSplits; ii++ {
		folds = append(folds, Fold{
			TrainEnd: firstTrain + ii*testSize,
			TestEnd:  firstTrain + (ii+1)*testSize,
		})
	}

	return folds
}

// GridResult is the best hyperparameter configuration found by SearchPenalized
type GridResult struct {
	Alpha   float64
	L1Ratio float64
	Score   float64 // negative mean squared error, higher is better
}

// SearchPenalized grid-searches the alpha (and l1 ratio) grid with
// forward-chaining time-series cross validation. Models are fit on the
// weighted training block and scored by unweighted negative MSE on the test
// block. Returns the best configuration; refitting is the caller's job
func SearchPenalized(m *dataframe.DataFrame, y, weights []float64, alphas, l1Ratios []float64) (*GridResult, error) {
	folds := TimeSeriesFolds(m.Len(), 5)
	if folds == nil {
		return nil, ErrNoFolds
	}

	best := &GridResult{Score: math.Inf(-1)}
	found := false

	for _, alpha := range alphas {
		for _, l1Ratio := range l1Ratios {
			var total float64
			scored := 0

			for _, fold := range folds {
				trainM := m.RowRange(0, fold.TrainEnd)
				trainY := y[:fold.TrainEnd]
				var trainW []float64
				if weights != nil {
					trainW = weights[:fold.TrainEnd]
				}

				fit, err := FitElasticNet(trainM, trainY, trainW, alpha, l1Ratio)
				if err != nil {
					continue
				}

				testM := m.RowRange(fold.TrainEnd, fold.TestEnd)
				preds := fit.PredictAll(testM)
				mse := MSE(y[fold.TrainEnd:fold.TestEnd], preds, nil)
				if math.IsNaN(mse) {
					continue
				}

				total += mse
				scored++
			}

			if scored == 0 {
				continue
			}

			score := -total / float64(scored)
			if score > best.Score {
				best.Alpha = alpha
				best.L1Ratio = l1Ratio
				best.Score = score
				found = true
			}
		}
	}

	if !found {
		return nil, ErrNoFolds
	}

	log.Debug().Float64("Alpha", best.Alpha).Float64("L1Ratio", best.L1Ratio).Float64("Score", best.Score).Msg("grid search complete")
	return best, nil
}

func logspace(lo, hi float64, num int) []float64 {
	vals := make([]float64, num)
	step := (hi - lo) / float64(num-1)
	for idx := range vals {
		vals[idx] = math.Pow(10, lo+float64(idx)*step)
	}
	return vals
}
