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
	"gonum.org/v1/gonum/mat"
)

var (
	ErrDimensionMismatch = errors.New("rows of return matrix do not match target length")
	ErrTooFewRows        = errors.New("not enough rows to fit model")
)

// LinearFit holds a fitted linear model: intercept, one coefficient per
// asset column, and in-sample fit quality
type LinearFit struct {
	Intercept float64
	Coef      []float64
	R2        float64
	MSE       float64
}

// Predict evaluates the fitted model on a single observation
func (fit *LinearFit) Predict(row []float64) float64 {
	pred := fit.Intercept
	for idx, c := range fit.Coef {
		pred += c * row[idx]
	}
	return pred
}

// PredictAll evaluates the fitted model on every row of the return matrix
func (fit *LinearFit) PredictAll(m *dataframe.DataFrame) []float64 {
	preds := make([]float64, m.Len())
	for rowIdx := range preds {
		preds[rowIdx] = fit.Predict(m.Row(rowIdx))
	}
	return preds
}

// FitOLS fits a least squares linear model with intercept via QR
// decomposition. Observations are scaled by sqrt(weight) so the solution
// minimizes the weighted squared error; nil weights fit unweighted
func FitOLS(m *dataframe.DataFrame, y, weights []float64) (*LinearFit, error) {
	n := m.Len()
	k := m.ColCount()

	if n != len(y) {
		return nil, ErrDimensionMismatch
	}
	if n < k+1 {
		return nil, ErrTooFewRows
	}

	design := mat.NewDense(n, k+1, nil)
	target := mat.NewVecDense(n, nil)
	for rowIdx := 0; rowIdx < n; rowIdx++ {
		scale := 1.0
		if weights != nil {
			scale = math.Sqrt(weights[rowIdx])
		}
		design.Set(rowIdx, 0, scale)
		for colIdx := 0; colIdx < k; colIdx++ {
			design.Set(rowIdx, colIdx+1, scale*m.Vals[colIdx][rowIdx])
		}
		target.SetVec(rowIdx, scale*y[rowIdx])
	}

	var qr mat.QR
	qr.Factorize(design)

	var beta mat.Dense
	if err := qr.SolveTo(&beta, false, target); err != nil {
		return nil, err
	}

	fit := &LinearFit{
		Intercept: beta.At(0, 0),
		Coef:      make([]float64, k),
	}
	for colIdx := 0; colIdx < k; colIdx++ {
		fit.Coef[colIdx] = beta.At(colIdx+1, 0)
	}

	preds := fit.PredictAll(m)
	fit.R2 = R2(y, preds, weights)
	fit.MSE = MSE(y, preds, weights)

	return fit, nil
}
