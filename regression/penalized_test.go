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

var _ = Describe("FitElasticNet", func() {
	Context("with a negligible penalty", func() {
		It("recovers the exact tracking coefficients", func() {
			m, fund := trackingPanel(24)
			fit, err := regression.FitElasticNet(m, fund, nil, 1e-9, 0.5)
			Expect(err).To(BeNil())
			Expect(fit.Coef[0]).To(BeNumerically("~", 1.0, 1e-3))
			Expect(fit.Coef[1]).To(BeNumerically("~", 0.0, 1e-3))
			Expect(fit.Coef[2]).To(BeNumerically("~", 0.0, 1e-3))
			Expect(fit.R2).To(BeNumerically("~", 1.0, 1e-4))
		})
	})

	Context("with a strong ridge penalty", func() {
		It("shrinks coefficients toward zero", func() {
			m, fund := trackingPanel(24)
			weak, err := regression.FitElasticNet(m, fund, nil, 1e-6, 0)
			Expect(err).To(BeNil())
			strong, err := regression.FitElasticNet(m, fund, nil, 100, 0)
			Expect(err).To(BeNil())
			Expect(absSum(strong.Coef)).To(BeNumerically("<", absSum(weak.Coef)))
		})
	})

	Context("with a strong lasso penalty", func() {
		It("zeroes every coefficient", func() {
			m, fund := trackingPanel(24)
			fit, err := regression.FitElasticNet(m, fund, nil, 100, 1)
			Expect(err).To(BeNil())
			for _, c := range fit.Coef {
				Expect(c).To(Equal(0.0))
			}
		})
	})

	Context("with bad inputs", func() {
		It("rejects mismatched target lengths", func() {
			m, fund := trackingPanel(24)
			_, err := regression.FitElasticNet(m, fund[:5], nil, 0.1, 0.5)
			Expect(err).To(MatchError(regression.ErrDimensionMismatch))
		})
	})
})

func absSum(vals []float64) float64 {
	var total float64
	for _, v := range vals {
		if v < 0 {
			total -= v
		} else {
			total += v
		}
	}
	return total
}
