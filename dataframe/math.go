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

package dataframe

import (
	"math"

	"github.com/montanaflynn/stats"
)

// FillForward replaces NaN values in every column with the last preceding
// non-NaN value in that column. Leading NaN values are left untouched.
func (df *DataFrame) FillForward() *DataFrame {
	for colIdx := range df.Vals {
		last := math.NaN()
		for rowIdx, v := range df.Vals[colIdx] {
			if math.IsNaN(v) {
				df.Vals[colIdx][rowIdx] = last
			} else {
				last = v
			}
		}
	}
	return df
}

// FillBackward replaces NaN values in every column with the next following
// non-NaN value in that column. Trailing NaN values are left untouched.
func (df *DataFrame) FillBackward() *DataFrame {
	for colIdx := range df.Vals {
		next := math.NaN()
		for rowIdx := len(df.Vals[colIdx]) - 1; rowIdx >= 0; rowIdx-- {
			v := df.Vals[colIdx][rowIdx]
			if math.IsNaN(v) {
				df.Vals[colIdx][rowIdx] = next
			} else {
				next = v
			}
		}
	}
	return df
}

// HasNaN returns true if any value in the dataframe is NaN
func (df *DataFrame) HasNaN() bool {
	for _, col := range df.Vals {
		for _, v := range col {
			if math.IsNaN(v) {
				return true
			}
		}
	}
	return false
}

// Quantile computes the pct quantile (0-100) of the named column, ignoring
// NaN values. Returns NaN when the column does not exist or has no values.
func (df *DataFrame) Quantile(colName string, pct float64) float64 {
	colIdx := df.ColIndex(colName)
	if colIdx == -1 {
		return math.NaN()
	}

	vals := make([]float64, 0, len(df.Vals[colIdx]))
	for _, v := range df.Vals[colIdx] {
		if !math.IsNaN(v) {
			vals = append(vals, v)
		}
	}

	q, err := stats.Percentile(vals, pct)
	if err != nil {
		return math.NaN()
	}
	return q
}
