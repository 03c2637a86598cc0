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

// Package trees implements weighted CART regression trees and the two tree
// ensembles built on them: random forest and least-squares gradient
// boosting. Feature importances are weighted impurity decreases; they are a
// proxy for portfolio weights, not regression coefficients.
package trees

import (
	"math"
	"sort"
)

type node struct {
	feature   int
	threshold float64
	left      *node
	right     *node
	value     float64
	leaf      bool
}

// Tree is a binary regression tree fit by recursive partitioning on
// weighted squared error
type Tree struct {
	MaxDepth int
	MinLeaf  int

	root        *node
	importances []float64
}

// Fit grows the tree on row-major observations X with targets y and
// observation weights w
func (t *Tree) Fit(X [][]float64, y, w []float64) {
	nFeatures := 0
	if len(X) > 0 {
		nFeatures = len(X[0])
	}
	t.importances = make([]float64, nFeatures)

	idx := make([]int, len(X))
	for ii := range idx {
		idx[ii] = ii
	}

	t.root = t.grow(X, y, w, idx, 0)
}

// Predict returns the tree's estimate for a single observation
func (t *Tree) Predict(row []float64) float64 {
	cur := t.root
	for cur != nil && !cur.leaf {
		if row[cur.feature] <= cur.threshold {
			cur = cur.left
		} else {
			cur = cur.right
		}
	}
	if cur == nil {
		return math.NaN()
	}
	return cur.value
}

// Importances returns the accumulated weighted impurity decrease per
// feature (unnormalized)
func (t *Tree) Importances() []float64 {
	return t.importances
}

func (t *Tree) grow(X [][]float64, y, w []float64, idx []int, depth int) *node {
	mean, sse, _ := weightedStats(y, w, idx)

	if depth >= t.MaxDepth || len(idx) < 2*t.MinLeaf || sse <= 0 {
		return &node{leaf: true, value: mean}
	}

	feature, threshold, decrease, leftIdx, rightIdx := t.bestSplit(X, y, w, idx, sse)
	if feature == -1 || len(leftIdx) < t.MinLeaf || len(rightIdx) < t.MinLeaf {
		return &node{leaf: true, value: mean}
	}

	t.importances[feature] += decrease

	return &node{
		feature:   feature,
		threshold: threshold,
		left:      t.grow(X, y, w, leftIdx, depth+1),
		right:     t.grow(X, y, w, rightIdx, depth+1),
	}
}

// bestSplit scans every feature for the threshold with the largest weighted
// SSE decrease. Returns feature -1 when no split improves on the parent
func (t *Tree) bestSplit(X [][]float64, y, w []float64, idx []int, parentSSE float64) (int, float64, float64, []int, []int) {
	nFeatures := len(X[idx[0]])

	bestFeature := -1
	var bestThreshold, bestDecrease float64

	order := make([]int, len(idx))
	for feature := 0; feature < nFeatures; feature++ {
		copy(order, idx)
		sort.SliceStable(order, func(i, j int) bool {
			return X[order[i]][feature] < X[order[j]][feature]
		})

		// prefix statistics over the sorted order
		var wSum, wySum, wyySum float64
		var totW, totWY, totWYY float64
		for _, rowIdx := range order {
			totW += w[rowIdx]
			totWY += w[rowIdx] * y[rowIdx]
			totWYY += w[rowIdx] * y[rowIdx] * y[rowIdx]
		}

		for pos := 0; pos < len(order)-1; pos++ {
			rowIdx := order[pos]
			wSum += w[rowIdx]
			wySum += w[rowIdx] * y[rowIdx]
			wyySum += w[rowIdx] * y[rowIdx] * y[rowIdx]

			// splits only between distinct feature values
			if X[order[pos]][feature] == X[order[pos+1]][feature] {
				continue
			}
			if wSum <= 0 || totW-wSum <= 0 {
				continue
			}

			leftSSE := wyySum - wySum*wySum/wSum
			rightW := totW - wSum
			rightWY := totWY - wySum
			rightSSE := (totWYY - wyySum) - rightWY*rightWY/rightW

			decrease := parentSSE - leftSSE - rightSSE
			if decrease > bestDecrease {
				bestDecrease = decrease
				bestFeature = feature
				bestThreshold = (X[order[pos]][feature] + X[order[pos+1]][feature]) / 2.0
			}
		}
	}

	if bestFeature == -1 {
		return -1, 0, 0, nil, nil
	}

	leftIdx := make([]int, 0, len(idx))
	rightIdx := make([]int, 0, len(idx))
	for _, rowIdx := range idx {
		if X[rowIdx][bestFeature] <= bestThreshold {
			leftIdx = append(leftIdx, rowIdx)
		} else {
			rightIdx = append(rightIdx, rowIdx)
		}
	}

	return bestFeature, bestThreshold, bestDecrease, leftIdx, rightIdx
}

func weightedStats(y, w []float64, idx []int) (mean, sse, wTotal float64) {
	var wySum, wyySum float64
	for _, rowIdx := range idx {
		wTotal += w[rowIdx]
		wySum += w[rowIdx] * y[rowIdx]
		wyySum += w[rowIdx] * y[rowIdx] * y[rowIdx]
	}

	if wTotal == 0 {
		return 0, 0, 0
	}

	mean = wySum / wTotal
	sse = wyySum - wySum*wySum/wTotal
	if sse < 0 {
		sse = 0 // floating drift on constant targets
	}
	return mean, sse, wTotal
}
