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

package solver

import "math"

// Normalize projects raw coefficients onto the probability simplex the way
// every model's weights are reported: negative entries are clipped to zero
// and the remainder rescaled to sum to 1. A vector with no positive mass
// becomes equal weights
func Normalize(raw []float64) []float64 {
	weights := make([]float64, len(raw))

	var total float64
	for idx, v := range raw {
		if v > 0 && !math.IsNaN(v) {
			weights[idx] = v
			total += v
		}
	}

	if total <= 0 {
		return EqualWeights(len(raw))
	}

	for idx := range weights {
		weights[idx] /= total
	}

	return weights
}

// EqualWeights returns the uniform point of the k-simplex
func EqualWeights(k int) []float64 {
	weights := make([]float64, k)
	if k == 0 {
		return weights
	}
	for idx := range weights {
		weights[idx] = 1.0 / float64(k)
	}
	return weights
}
