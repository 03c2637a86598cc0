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

var _ = Describe("DataFrame", func() {
	var tz *time.Location

	monthEnd := func(year int, month time.Month, day int) time.Time {
		return time.Date(year, month, day, 0, 0, 0, 0, tz)
	}

	BeforeEach(func() {
		tz = time.UTC
	})

	Context("with no values", func() {
		var df *dataframe.DataFrame

		BeforeEach(func() {
			df = &dataframe.DataFrame{}
		})

		It("has zero length", func() {
			Expect(df.Len()).To(Equal(0))
		})

		It("has zero columns", func() {
			Expect(df.ColCount()).To(Equal(0))
		})

		It("has a zero start date", func() {
			Expect(df.Start().IsZero()).To(BeTrue())
		})

		It("has a zero end date", func() {
			Expect(df.End().IsZero()).To(BeTrue())
		})

		It("does not error on drop", func() {
			df = df.Drop(1)
			Expect(df.Len()).To(Equal(0))
		})
	})

	Context("with a 3-column frame", func() {
		var df *dataframe.DataFrame

		BeforeEach(func() {
			df = &dataframe.DataFrame{
				Dates: []time.Time{
					monthEnd(2022, time.January, 31),
					monthEnd(2022, time.February, 28),
					monthEnd(2022, time.March, 31),
				},
				ColNames: []string{"BTC", "ETH", "SOL"},
				Vals: [][]float64{
					{1, 2, 3},
					{4, 5, 6},
					{7, 8, 9},
				},
			}
		})

		It("knows its shape", func() {
			Expect(df.Len()).To(Equal(3))
			Expect(df.ColCount()).To(Equal(3))
		})

		It("finds columns by name", func() {
			Expect(df.ColIndex("ETH")).To(Equal(1))
			Expect(df.ColIndex("DOGE")).To(Equal(-1))
			Expect(df.Col("SOL")).To(Equal([]float64{7, 8, 9}))
			Expect(df.Col("DOGE")).To(BeNil())
		})

		It("returns rows in column order", func() {
			Expect(df.Row(1)).To(Equal([]float64{2, 5, 8}))
		})

		It("reports start and end dates", func() {
			Expect(df.Start()).To(Equal(monthEnd(2022, time.January, 31)))
			Expect(df.End()).To(Equal(monthEnd(2022, time.March, 31)))
		})

		It("copies without sharing storage", func() {
			df2 := df.Copy()
			df2.Vals[0][0] = 100
			Expect(df.Vals[0][0]).To(Equal(1.0))
		})

		It("drops rows containing a value", func() {
			df = df.Drop(5)
			Expect(df.Len()).To(Equal(2))
			Expect(df.Col("BTC")).To(Equal([]float64{1, 3}))
			Expect(df.Dates).To(Equal([]time.Time{
				monthEnd(2022, time.January, 31),
				monthEnd(2022, time.March, 31),
			}))
		})

		It("drops rows containing NaN", func() {
			df.Vals[1][2] = math.NaN()
			df = df.Drop(math.NaN())
			Expect(df.Len()).To(Equal(2))
			Expect(df.Col("ETH")).To(Equal([]float64{4, 5}))
		})

		It("inserts a new column at the end", func() {
			df.Insert("DOGE", []float64{10, 11, 12})
			Expect(df.ColCount()).To(Equal(4))
			Expect(df.Col("DOGE")).To(Equal([]float64{10, 11, 12}))
		})

		It("removes a named column", func() {
			df.RemoveCol("ETH")
			Expect(df.ColNames).To(Equal([]string{"BTC", "SOL"}))
			Expect(df.Col("SOL")).To(Equal([]float64{7, 8, 9}))
		})

		It("ignores removal of an unknown column", func() {
			df.RemoveCol("DOGE")
			Expect(df.ColCount()).To(Equal(3))
		})

		It("slices a row range", func() {
			df2 := df.RowRange(1, 3)
			Expect(df2.Len()).To(Equal(2))
			Expect(df2.Col("BTC")).To(Equal([]float64{2, 3}))
			Expect(df2.Start()).To(Equal(monthEnd(2022, time.February, 28)))
		})

		It("splits requested columns into a separate frame", func() {
			one, two := df.Split("ETH")
			Expect(one.ColNames).To(Equal([]string{"ETH"}))
			Expect(two.ColNames).To(Equal([]string{"BTC", "SOL"}))
			Expect(one.Len()).To(Equal(3))
			Expect(two.Col("BTC")).To(Equal([]float64{1, 2, 3}))
		})

		It("renders a table", func() {
			out := df.Table()
			Expect(out).To(ContainSubstring("BTC"))
			Expect(out).To(ContainSubstring("2022-01-31"))
		})
	})
})
