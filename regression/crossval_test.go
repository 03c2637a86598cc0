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

package regression_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fundlens/fundlens/regression"
)

var _ = Describe("TimeSeriesFolds", func() {
	It("builds forward-chaining folds that respect temporal order", func() {
		folds := regression.TimeSeriesFolds(30, 5)
		Expect(folds).To(HaveLen(5))

		prevEnd := 0
		for _, fold := range folds {
			Expect(fold.TrainEnd).To(BeNumerically(">", 0))
			Expect(fold.TestEnd).To(BeNumerically(">", fold.TrainEnd))
			Expect(fold.TrainEnd).To(BeNumerically(">=", prevEnd))
			prevEnd = fold.TestEnd
		}
		Expect(folds[len(folds)-1].TestEnd).To(Equal(30))
	})

	It("shrinks the split count when rows are scarce", func() {
		folds := regression.TimeSeriesFolds(8, 5)
		Expect(len(folds)).To(BeNumerically("<", 6))
		Expect(len(folds)).To(BeNumerically(">", 0))
	})

	It("returns nil when no fold fits", func() {
		Expect(regression.TimeSeriesFolds(1, 5)).To(BeNil())
	})
})

var _ = Describe("SearchPenalized", func() {
	Context("on noise-free tracking data", func() {
		It("prefers the weakest penalty on the grid", func() {
			m, fund := trackingPanel(30)
			grid, err := regression.SearchPenalized(m, fund, nil, regression.DefaultAlphas, []float64{0.5})
			Expect(err).To(BeNil())
			Expect(grid.Alpha).To(Equal(regression.DefaultAlphas[0]))
			Expect(grid.L1Ratio).To(Equal(0.5))
			Expect(grid.Score).To(BeNumerically("~", 0.0, 1e-6))
		})
	})

	Context("with too little data", func() {
		It("errors instead of fabricating a configuration", func() {
			m, fund := trackingPanel(30)
			small := m.RowRange(0, 1)
			_, err := regression.SearchPenalized(small, fund[:1], nil, regression.DefaultAlphas, []float64{0.5})
			Expect(err).To(MatchError(regression.ErrNoFolds))
		})
	})
})
