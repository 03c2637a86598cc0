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

package pipeline_test

import (
	"context"
	"errors"
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fundlens/fundlens/aligner"
	"github.com/fundlens/fundlens/dataframe"
	"github.com/fundlens/fundlens/pipeline"
	"github.com/fundlens/fundlens/report"
)

func monthEnds(n int) []time.Time {
	dates := make([]time.Time, n)
	for idx := range dates {
		first := time.Date(2019, time.January, 1, 0, 0, 0, 0, time.UTC)
		dates[idx] = first.AddDate(0, idx+1, -1)
	}
	return dates
}

func series(name string, dates []time.Time, vals []float64) *dataframe.DataFrame {
	return &dataframe.DataFrame{
		Dates:    dates,
		ColNames: []string{name},
		Vals:     [][]float64{vals},
	}
}

// syntheticInputs builds 36 months of fund and asset series where the fund
// holds 60% BTC, 30% ETH, 10% SOL
func syntheticInputs() (*dataframe.DataFrame, []*dataframe.DataFrame) {
	n := 36
	dates := monthEnds(n)

	btc := make([]float64, n)
	eth := make([]float64, n)
	sol := make([]float64, n)
	fund := make([]float64, n)
	for idx := range dates {
		btc[idx] = 10 * math.Sin(float64(idx))
		eth[idx] = 5 * math.Cos(float64(3*idx))
		sol[idx] = 8 * math.Sin(float64(7*idx)+1)
		fund[idx] = 0.6*btc[idx] + 0.3*eth[idx] + 0.1*sol[idx]
	}

	assets := []*dataframe.DataFrame{
		series("BTC", dates, btc),
		series("ETH", dates, eth),
		series("SOL", dates, sol),
	}
	return series(aligner.FundColumn, dates, fund), assets
}

func testConfig() pipeline.Config {
	cfg := pipeline.DefaultConfig()
	cfg.BootstrapSamples = 25
	cfg.NumTrees = 25
	cfg.Workers = 4
	return cfg
}

var _ = Describe("Pipeline", func() {
	Context("on a synthetic mixing panel", func() {
		var rep *report.Report

		BeforeEach(func() {
			fund, assets := syntheticInputs()
			var err error
			rep, err = pipeline.New(testConfig()).Run(context.Background(), fund, assets)
			Expect(err).To(BeNil())
		})

		It("assigns a run id and date range", func() {
			Expect(rep.RunID).ToNot(BeEmpty())
			Expect(rep.DataRange.Months).To(Equal(36))
			Expect(rep.DataRange.Start).To(Equal("2019-01-31"))
			Expect(rep.DataRange.End).To(Equal("2021-12-31"))
		})

		It("produces simplex ensemble weights", func() {
			var total float64
			for _, aw := range rep.EnsembleWeights {
				Expect(float64(aw.Weight)).To(BeNumerically(">=", 0.0))
				total += float64(aw.Weight)
			}
			Expect(total).To(BeNumerically("~", 1.0, 1e-6))
		})

		It("sorts ensemble weights descending", func() {
			for idx := 1; idx < len(rep.EnsembleWeights); idx++ {
				Expect(float64(rep.EnsembleWeights[idx-1].Weight)).To(
					BeNumerically(">=", float64(rep.EnsembleWeights[idx].Weight)))
			}
		})

		It("recovers the dominant holding", func() {
			Expect(rep.EnsembleWeights[0].Symbol).To(Equal("BTC"))
			Expect(float64(rep.EnsembleWeights[0].Weight)).To(BeNumerically(">", 0.4))
		})

		It("produces simplex weights for every model", func() {
			for _, m := range rep.Models {
				var total float64
				for _, w := range m.Weights {
					Expect(float64(w)).To(BeNumerically(">=", 0.0))
					total += float64(w)
				}
				Expect(total).To(BeNumerically("~", 1.0, 1e-6))
			}
		})

		It("fits the expected model bank", func() {
			names := make([]string, 0, len(rep.Models))
			for _, m := range rep.Models {
				names = append(names, m.Name)
			}
			Expect(names).To(ContainElements(
				"OLS", "Constrained", "Ridge", "Lasso", "ElasticNet",
				"RandomForest", "GradientBoosting"))
		})

		It("excludes poor fits from the ensemble", func() {
			for _, m := range rep.Models {
				if !math.IsNaN(float64(m.R2)) && float64(m.R2) < 0.3 {
					Expect(float64(m.Importance)).To(Equal(0.0))
				}
			}
		})

		It("reports rolling windows for each configured size", func() {
			Expect(rep.RollingWindows).To(HaveKey("3m"))
			Expect(rep.RollingWindows).To(HaveKey("6m"))
			Expect(rep.RollingWindows).To(HaveKey("12m"))
		})

		It("keeps confidence bounds around each ensemble weight", func() {
			for _, aw := range rep.EnsembleWeights {
				Expect(float64(aw.LowerCI)).To(BeNumerically("<=", float64(aw.UpperCI)))
			}
		})

		It("backtests with a small tracking error", func() {
			Expect(float64(rep.TrackingError)).To(BeNumerically("<", 1.0))
		})

		It("keeps the audit R2 alongside the display value", func() {
			Expect(float64(rep.EnsembleR2)).To(BeNumerically(">=", -1.0))
			if float64(rep.EnsembleR2Actual) >= -1.0 {
				Expect(rep.EnsembleR2).To(Equal(rep.EnsembleR2Actual))
			} else {
				Expect(float64(rep.EnsembleR2)).To(Equal(-1.0))
			}
		})

		It("selects explanatory assets", func() {
			Expect(rep.SelectedAssets).ToNot(BeEmpty())
		})
	})

	Context("determinism", func() {
		It("produces identical estimates for a fixed seed", func() {
			fund, assets := syntheticInputs()
			one, err := pipeline.New(testConfig()).Run(context.Background(), fund, assets)
			Expect(err).To(BeNil())

			fund2, assets2 := syntheticInputs()
			two, err := pipeline.New(testConfig()).Run(context.Background(), fund2, assets2)
			Expect(err).To(BeNil())

			Expect(one.EnsembleWeights).To(Equal(two.EnsembleWeights))
			Expect(one.Models).To(Equal(two.Models))
			Expect(one.TrackingError).To(Equal(two.TrackingError))
		})
	})

	Context("with a stale asset series", func() {
		It("propagates the DataCompletenessError", func() {
			fund, assets := syntheticInputs()
			stale := assets[1]
			stale.Dates = stale.Dates[:30]
			stale.Vals[0] = stale.Vals[0][:30]

			_, err := pipeline.New(testConfig()).Run(context.Background(), fund, assets)
			var completeness *aligner.DataCompletenessError
			Expect(errors.As(err, &completeness)).To(BeTrue())
		})
	})

	Context("with an asset that has no data", func() {
		It("excludes the asset and completes the run", func() {
			fund, assets := syntheticInputs()
			empty := series("DOGE", monthEnds(3), []float64{1, 2, 3})
			empty.Dates = []time.Time{
				time.Date(2000, time.January, 31, 0, 0, 0, 0, time.UTC),
				time.Date(2000, time.February, 29, 0, 0, 0, 0, time.UTC),
				time.Date(2000, time.March, 31, 0, 0, 0, 0, time.UTC),
			}
			assets = append(assets, empty)

			rep, err := pipeline.New(testConfig()).Run(context.Background(), fund, assets)
			Expect(err).To(BeNil())
			Expect(rep.ExcludedAssets).To(Equal([]string{"DOGE"}))
			Expect(rep.EnsembleWeights).To(HaveLen(3))
		})
	})
})
