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

package trees

import (
	"math/rand"

	"github.com/fundlens/fundlens/dataframe"
	"github.com/fundlens/fundlens/regression"
)

const (
	forestMaxDepth = 10
	forestMinLeaf  = 1
)

// TreeModel is the fitted result of a tree ensemble: in-sample fit quality
// and the per-feature importance vector (raw impurity decreases summed over
// trees, one entry per asset column)
type TreeModel struct {
	Importances []float64
	R2          float64
}

// FitRandomForest fits numTrees regression trees on bootstrap samples of
// the aligned data and averages their predictions. The rng seed makes the
// bootstrap draws, and therefore the whole fit, reproducible
func FitRandomForest(m *dataframe.DataFrame, y, weights []float64, numTrees int, seed int64) *TreeModel {
	n := m.Len()
	k := m.ColCount()

	X := rowMajor(m)
	w := fillWeights(weights, n)
	rng := rand.New(rand.NewSource(seed))

	importances := make([]float64, k)
	sumPreds := make([]float64, n)

	sampleX := make([][]float64, n)
	sampleY := make([]float64, n)
	sampleW := make([]float64, n)

	for treeIdx := 0; treeIdx < numTrees; treeIdx++ {
		for ii := 0; ii < n; ii++ {
			draw := rng.Intn(n)
			sampleX[ii] = X[draw]
			sampleY[ii] = y[draw]
			sampleW[ii] = w[draw]
		}

		tree := &Tree{MaxDepth: forestMaxDepth, MinLeaf: forestMinLeaf}
		tree.Fit(sampleX, sampleY, sampleW)

		for featIdx, imp := range tree.Importances() {
			importances[featIdx] += imp
		}
		for rowIdx := 0; rowIdx < n; rowIdx++ {
			sumPreds[rowIdx] += tree.Predict(X[rowIdx])
		}
	}

	preds := make([]float64, n)
	for rowIdx := range preds {
		preds[rowIdx] = sumPreds[rowIdx] / float64(numTrees)
	}

	return &TreeModel{
		Importances: importances,
		R2:          regression.R2(y, preds, weights),
	}
}

func rowMajor(m *dataframe.DataFrame) [][]float64 {
	X := make([][]float64, m.Len())
	for rowIdx := range X {
		X[rowIdx] = m.Row(rowIdx)
	}
	return X
}

func fillWeights(weights []float64, n int) []float64 {
	if weights != nil {
		return weights
	}
	w := make([]float64, n)
	for idx := range w {
		w[idx] = 1.0
	}
	return w
}
