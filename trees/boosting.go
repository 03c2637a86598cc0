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
	"github.com/fundlens/fundlens/dataframe"
	"github.com/fundlens/fundlens/regression"
)

const (
	boostingLearningRate = 0.1
	boostingMaxDepth     = 3
	boostingMinLeaf      = 1
)

// FitGradientBoosting fits a least-squares gradient boosting ensemble:
// shallow trees fit successively to the residuals of the running prediction.
// The fit is deterministic; no subsampling is performed
func FitGradientBoosting(m *dataframe.DataFrame, y, weights []float64, numTrees int) *TreeModel {
	n := m.Len()
	k := m.ColCount()

	X := rowMajor(m)
	w := fillWeights(weights, n)

	// initial prediction is the weighted mean target
	var wySum, wTotal float64
	for rowIdx := range y {
		wySum += w[rowIdx] * y[rowIdx]
		wTotal += w[rowIdx]
	}
	base := wySum / wTotal

	preds := make([]float64, n)
	resid := make([]float64, n)
	for rowIdx := range preds {
		preds[rowIdx] = base
	}

	importances := make([]float64, k)
	for treeIdx := 0; treeIdx < numTrees; treeIdx++ {
		for rowIdx := range resid {
			resid[rowIdx] = y[rowIdx] - preds[rowIdx]
		}

		tree := &Tree{MaxDepth: boostingMaxDepth, MinLeaf: boostingMinLeaf}
		tree.Fit(X, resid, w)

		for featIdx, imp := range tree.Importances() {
			importances[featIdx] += imp
		}
		for rowIdx := range preds {
			preds[rowIdx] += boostingLearningRate * tree.Predict(X[rowIdx])
		}
	}

	return &TreeModel{
		Importances: importances,
		R2:          regression.R2(y, preds, weights),
	}
}
