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

import (
	"math"

	"github.com/fundlens/fundlens/dataframe"
	"github.com/fundlens/fundlens/regression"
)

// RecursiveFeatureElimination repeatedly drops the asset with the smallest
// absolute weighted-OLS coefficient until nSelect assets remain, and returns
// the survivors in their original column order. Informational only; the
// selection does not feed back into any model
func RecursiveFeatureElimination(m *dataframe.DataFrame, y, weights []float64, nSelect int) ([]string, error) {
	if nSelect >= m.ColCount() {
		selected := make([]string, len(m.ColNames))
		copy(selected, m.ColNames)
		return selected, nil
	}

	work := m.Copy()
	for work.ColCount() > nSelect {
		fit, err := regression.FitOLS(work, y, weights)
		if err != nil {
			return nil, err
		}

		dropIdx := 0
		dropVal := math.Inf(1)
		for colIdx, c := range fit.Coef {
			if math.Abs(c) < dropVal {
				dropVal = math.Abs(c)
				dropIdx = colIdx
			}
		}

		work.RemoveCol(work.ColNames[dropIdx])
	}

	selected := make([]string, 0, nSelect)
	for _, colName := range m.ColNames {
		if work.ColIndex(colName) != -1 {
			selected = append(selected, colName)
		}
	}

	return selected, nil
}
