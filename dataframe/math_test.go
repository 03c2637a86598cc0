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

package dataframe_test

import (
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fundlens/fundlens/dataframe"
)

var _ = Describe("Math", func() {
	var df *dataframe.DataFrame

	BeforeEach(func() {
		dates := make([]time.Time, 5)
		for idx := range dates {
			dates[idx] = time.Date(2022, time.Month(idx+1), 28, 0, 0, 0, 0, time.UTC)
		}

		df = &dataframe.DataFrame{
			Dates:    dates,
			ColNames: []string{"BTC"},
			Vals:     [][]float64{{math.NaN(), 2, math.NaN(), 4, math.NaN()}},
		}
	})

	Describe("FillForward", func() {
		It("carries the last observation forward", func() {
			df.FillForward()
			Expect(df.Vals[0][2]).To(Equal(2.0))
			Expect(df.Vals[0][4]).To(Equal(4.0))
		})

		It("leaves leading NaN untouched", func() {
			df.FillForward()
			Expect(math.IsNaN(df.Vals[0][0])).To(BeTrue())
		})
	})

	Describe("FillBackward", func() {
		It("pulls the next observation backward", func() {
			df.FillBackward()
			Expect(df.Vals[0][0]).To(Equal(2.0))
			Expect(df.Vals[0][2]).To(Equal(4.0))
		})

		It("leaves trailing NaN untouched", func() {
			df.FillBackward()
			Expect(math.IsNaN(df.Vals[0][4])).To(BeTrue())
		})
	})

	Describe("HasNaN", func() {
		It("detects NaN values", func() {
			Expect(df.HasNaN()).To(BeTrue())
		})

		It("is false after filling both directions", func() {
			df.FillForward()
			df.FillBackward()
			Expect(df.HasNaN()).To(BeFalse())
		})
	})

	Describe("Quantile", func() {
		It("ignores NaN values", func() {
			Expect(df.Quantile("BTC", 100)).To(Equal(4.0))
			Expect(df.Quantile("BTC", 50)).To(BeNumerically("<=", 4.0))
			Expect(df.Quantile("BTC", 50)).To(BeNumerically(">=", 2.0))
		})

		It("returns NaN for an unknown column", func() {
			Expect(math.IsNaN(df.Quantile("DOGE", 50))).To(BeTrue())
		})
	})
})
