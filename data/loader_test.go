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

package data_test

import (
	"math"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fundlens/fundlens/data"
)

var _ = Describe("Loader", func() {
	var (
		dir    string
		loader *data.Loader
	)

	writeFile := func(name, contents string) string {
		path := filepath.Join(dir, name)
		Expect(os.WriteFile(path, []byte(contents), 0600)).To(Succeed())
		return path
	}

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	Describe("AssetReturns", func() {
		BeforeEach(func() {
			loader = data.NewLoader(dir, "", time.UTC)
		})

		It("loads a month-end return series sorted by date", func() {
			writeFile("btc_usd_eom.csv", "Date,MoM_%_Chg\n2022-02-28,5.0\n2022-01-31,3.5\n")

			df, err := loader.AssetReturns("BTC")
			Expect(err).To(BeNil())
			Expect(df.ColNames).To(Equal([]string{"BTC"}))
			Expect(df.Len()).To(Equal(2))
			Expect(df.Start()).To(Equal(time.Date(2022, time.January, 31, 0, 0, 0, 0, time.UTC)))
			Expect(df.Vals[0]).To(Equal([]float64{3.5, 5.0}))
		})

		It("parses abbreviated month dates and percent suffixes", func() {
			writeFile("eth_usd_eom.csv", "Date,MoM_%_Chg\n31-Jan-22,4.2%\n")

			df, err := loader.AssetReturns("ETH")
			Expect(err).To(BeNil())
			Expect(df.Start()).To(Equal(time.Date(2022, time.January, 31, 0, 0, 0, 0, time.UTC)))
			Expect(df.Vals[0][0]).To(Equal(4.2))
		})

		It("turns non-numeric values into NaN", func() {
			writeFile("sol_usd_eom.csv", "Date,MoM_%_Chg\n2022-01-31,n/a\n")

			df, err := loader.AssetReturns("SOL")
			Expect(err).To(BeNil())
			Expect(math.IsNaN(df.Vals[0][0])).To(BeTrue())
		})

		It("skips rows with unparseable dates", func() {
			writeFile("ada_usd_eom.csv", "Date,MoM_%_Chg\nnot-a-date,1.0\n2022-01-31,2.0\n")

			df, err := loader.AssetReturns("ADA")
			Expect(err).To(BeNil())
			Expect(df.Len()).To(Equal(1))
		})

		It("reports a missing file with os.ErrNotExist", func() {
			_, err := loader.AssetReturns("DOGE")
			Expect(os.IsNotExist(err)).To(BeTrue())
		})

		It("rejects a file without the return column", func() {
			writeFile("xrp_usd_eom.csv", "Date,Close\n2022-01-31,1.0\n")

			_, err := loader.AssetReturns("XRP")
			Expect(err).To(MatchError(data.ErrMissingColumn))
		})

		It("rejects a file with only a header", func() {
			writeFile("ltc_usd_eom.csv", "Date,MoM_%_Chg\n")

			_, err := loader.AssetReturns("LTC")
			Expect(err).To(MatchError(data.ErrNoRows))
		})
	})

	Describe("FundReturns", func() {
		It("loads the fund series from its own path", func() {
			path := writeFile("fund.csv", "Date,MoM_%_Chg\n2022-01-31,1.5\n2022-02-28,-0.5\n")
			loader = data.NewLoader(dir, path, time.UTC)

			df, err := loader.FundReturns("FUND")
			Expect(err).To(BeNil())
			Expect(df.ColNames).To(Equal([]string{"FUND"}))
			Expect(df.Vals[0]).To(Equal([]float64{1.5, -0.5}))
		})
	})
})

var _ = Describe("ReadUniverse", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	It("returns symbols in file order", func() {
		path := filepath.Join(dir, "universe.json")
		contents := `[{"symbol": "BTC", "name": "Bitcoin"}, {"symbol": "ETH", "name": "Ethereum"}]`
		Expect(os.WriteFile(path, []byte(contents), 0600)).To(Succeed())

		symbols, err := data.ReadUniverse(path)
		Expect(err).To(BeNil())
		Expect(symbols).To(Equal([]string{"BTC", "ETH"}))
	})

	It("errors on a missing file", func() {
		_, err := data.ReadUniverse(filepath.Join(dir, "nope.json"))
		Expect(err).ToNot(BeNil())
	})

	It("errors on malformed JSON", func() {
		path := filepath.Join(dir, "bad.json")
		Expect(os.WriteFile(path, []byte("{not json"), 0600)).To(Succeed())

		_, err := data.ReadUniverse(path)
		Expect(err).ToNot(BeNil())
	})
})
