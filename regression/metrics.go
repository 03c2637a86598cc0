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

	"gonum.org/v1/gonum/floats"
)

// MSE computes the mean squared error between actual and predicted values.
// If weights is non-nil each observation's squared error is scaled by its
// weight and the result is divided by the weight total
func MSE(actual, predicted, weights []float64) float64 {
	if len(actual) != len(predicted) || len(actual) == 0 {
		return math.NaN()
	}

	var sum, wTotal float64
	for idx := range actual {
		w := 1.0
		if weights != nil {
			w = weights[idx]
		}
		diff := actual[idx] - predicted[idx]
		sum += w * diff * diff
		wTotal += w
	}

	return sum / wTotal
}

// RMSE is the square root of the unweighted mean squared error; used for
// tracking error
func RMSE(actual, predicted []float64) float64 {
	return math.Sqrt(MSE(actual, predicted, nil))
}

// R2 computes the coefficient of determination of predicted vs actual
// values, optionally weighting each observation
func R2(actual, predicted, weights []float64) float64 {
	if len(actual) != len(predicted) || len(actual) == 0 {
		return math.NaN()
	}

	var mean float64
	if weights == nil {
		mean = floats.Sum(actual) / float64(len(actual))
	} else {
		var wTotal float64
		for idx, v := range actual {
			mean += weights[idx] * v
			wTotal += weights[idx]
		}
		mean /= wTotal
	}

	var ssRes, ssTot float64
	for idx := range actual {
		w := 1.0
		if weights != nil {
			w = weights[idx]
		}
		resid := actual[idx] - predicted[idx]
		dev := actual[idx] - mean
		ssRes += w * resid * resid
		ssTot += w * dev * dev
	}

	if ssTot == 0 {
		return math.NaN()
	}

	return 1.0 - ssRes/ssTot
}
