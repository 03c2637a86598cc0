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

	"github.com/fundlens/fundlens/dataframe"
)

const (
	cdMaxIterations = 1000
	cdTolerance     = 1e-7
)

// FitElasticNet fits a linear model with combined L1/L2 regularization by
// cyclic coordinate descent. l1Ratio=1 is the lasso, l1Ratio=0 is ridge.
// The objective matches the usual scaling:
//
//	1/(2W) * sum_i w_i (y_i - b0 - x_i . beta)^2
//	  + alpha * l1Ratio * |beta|_1
//	  + alpha * (1 - l1Ratio)/2 * |beta|_2^2
//
// where W is the total observation weight; nil weights fit unweighted
func FitElasticNet(m *dataframe.DataFrame, y, weights []float64, alpha, l1Ratio float64) (*LinearFit, error) {
	n := m.Len()
	k := m.ColCount()

	if n != len(y) {
		return nil, ErrDimensionMismatch
	}
	if n < 2 {
		return nil, ErrTooFewRows
	}

	w := weights
	if w == nil {
		w = make([]float64, n)
		for idx := range w {
			w[idx] = 1.0
		}
	}

	var wTotal float64
	for _, v := range w {
		wTotal += v
	}

	// per-feature weighted second moments, fixed across sweeps
	z := make([]float64, k)
	for colIdx := 0; colIdx < k; colIdx++ {
		for rowIdx := 0; rowIdx < n; rowIdx++ {
			x := m.Vals[colIdx][rowIdx]
			z[colIdx] += w[rowIdx] * x * x
		}
		z[colIdx] /= wTotal
	}

	l1Penalty := alpha * l1Ratio
	l2Penalty := alpha * (1.0 - l1Ratio)

	beta := make([]float64, k)
	intercept := weightedMean(y, w, wTotal)

	// residuals for the current coefficients
	resid := make([]float64, n)
	for rowIdx := range resid {
		resid[rowIdx] = y[rowIdx] - intercept
	}

	for iter := 0; iter < cdMaxIterations; iter++ {
		maxDelta := 0.0

		for colIdx := 0; colIdx < k; colIdx++ {
			if z[colIdx] == 0 {
				continue
			}

			// partial residual correlation with feature colIdx
			var rho float64
			for rowIdx := 0; rowIdx < n; rowIdx++ {
				x := m.Vals[colIdx][rowIdx]
				rho += w[rowIdx] * x * (resid[rowIdx] + x*beta[colIdx])
			}
			rho /= wTotal

			updated := softThreshold(rho, l1Penalty) / (z[colIdx] + l2Penalty)
			delta := updated - beta[colIdx]
			if delta != 0 {
				for rowIdx := 0; rowIdx < n; rowIdx++ {
					resid[rowIdx] -= delta * m.Vals[colIdx][rowIdx]
				}
				beta[colIdx] = updated
			}
			if math.Abs(delta) > maxDelta {
				maxDelta = math.Abs(delta)
			}
		}

		// re-center the intercept
		shift := weightedMean(resid, w, wTotal)
		if shift != 0 {
			intercept += shift
			for rowIdx := range resid {
				resid[rowIdx] -= shift
			}
		}

		if maxDelta < cdTolerance {
			break
		}
	}

	fit := &LinearFit{
		Intercept: intercept,
		Coef:      beta,
	}

	preds := fit.PredictAll(m)
	fit.R2 = R2(y, preds, weights)
	fit.MSE = MSE(y, preds, weights)

	return fit, nil
}

func softThreshold(v, threshold float64) float64 {
	switch {
	case v > threshold:
		return v - threshold
	case v < -threshold:
		return v + threshold
	default:
		return 0
	}
}

func weightedMean(vals, w []float64, wTotal float64) float64 {
	var sum float64
	for idx, v := range vals {
		sum += w[idx] * v
	}
	return sum / wTotal
}
