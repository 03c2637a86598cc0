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

// Package pipeline wires the estimation stages together. Each stage is a
// pure function over explicit inputs; Run only sequences them and carries
// the intermediate values forward.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/fundlens/fundlens/aligner"
	"github.com/fundlens/fundlens/backtest"
	"github.com/fundlens/fundlens/dataframe"
	"github.com/fundlens/fundlens/ensemble"
	"github.com/fundlens/fundlens/regression"
	"github.com/fundlens/fundlens/report"
	"github.com/fundlens/fundlens/solver"
	"github.com/fundlens/fundlens/trees"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Pipeline struct {
	cfg Config
}

func New(cfg Config) *Pipeline {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.BootstrapSamples < 1 {
		cfg.BootstrapSamples = 1
	}
	if cfg.NumTrees < 1 {
		cfg.NumTrees = 1
	}
	return &Pipeline{cfg: cfg}
}

// Run executes the full estimation sequence: alignment, per-asset
// diagnostics, the individual model fits, ensemble blending, bootstrap
// confidence intervals and the walk-forward validation. Errors from the
// alignment stage (including DataCompletenessError) abort the run; a model
// that cannot be fit is logged and skipped so the remaining models still
// contribute to the blend.
func (p *Pipeline) Run(ctx context.Context, fund *dataframe.DataFrame, assets []*dataframe.DataFrame) (*report.Report, error) {
	start := time.Now()

	al, err := aligner.Align(fund, assets)
	if err != nil {
		return nil, err
	}

	symbols := al.Assets()
	log.Info().Strs("Assets", symbols).Int("Months", len(al.Fund)).Msg("aligned fund and asset histories")

	individual := regression.AnalyzeIndividual(al.Matrix, al.Fund)

	results := p.fitModels(al)
	if len(results) == 0 {
		return nil, fmt.Errorf("no model could be fit on %d months of data", len(al.Fund))
	}

	blend := ensemble.Combine(results, len(symbols))

	selected, err := solver.RecursiveFeatureElimination(al.Matrix, al.Fund, al.TimeWeights, minInt(p.cfg.RFESelect, len(symbols)))
	if err != nil {
		log.Warn().Err(err).Msg("recursive feature elimination failed")
		selected = symbols
	}

	rolling, err := backtest.Rolling(ctx, al, p.cfg.RollingWindows, p.cfg.Workers)
	if err != nil {
		return nil, err
	}

	intervals, err := backtest.Bootstrap(ctx, al, blend.Weights, p.cfg.BootstrapSamples, p.cfg.Seed, p.cfg.Workers)
	if err != nil {
		return nil, err
	}

	wf, err := backtest.WalkForward(ctx, al, p.cfg.Workers)
	if err != nil {
		return nil, err
	}

	rep := p.buildReport(al, individual, results, blend, selected, rolling, intervals, wf)
	log.Info().Dur("Elapsed", time.Since(start)).Str("RunID", rep.RunID).Msg("estimation run complete")
	return rep, nil
}

// fitModels runs the seven estimators over the aligned panel. The returned
// slice preserves a stable model order for reporting.
func (p *Pipeline) fitModels(al *aligner.Aligned) []*ensemble.ModelResult {
	results := make([]*ensemble.ModelResult, 0, 7)

	ols, err := regression.FitOLS(al.Matrix, al.Fund, al.TimeWeights)
	var initial []float64
	if err != nil {
		log.Warn().Err(err).Msg("ols fit failed")
		initial = solver.EqualWeights(al.Matrix.ColCount())
	} else {
		initial = solver.Normalize(ols.Coef)
		results = append(results, &ensemble.ModelResult{
			Name:       "OLS",
			RawWeights: ols.Coef,
			Weights:    initial,
			R2:         ols.R2,
		})
	}

	if sol, err := solver.Solve(al.Matrix, al.Fund, al.TimeWeights, initial); err != nil {
		log.Warn().Err(err).Msg("constrained solve failed")
	} else {
		preds := predict(al.Matrix, sol.Weights)
		results = append(results, &ensemble.ModelResult{
			Name:       "Constrained",
			RawWeights: sol.Weights,
			Weights:    sol.Weights,
			R2:         regression.R2(al.Fund, preds, al.TimeWeights),
		})
	}

	penalized := []struct {
		name     string
		l1Ratios []float64
	}{
		{"Ridge", []float64{0}},
		{"Lasso", []float64{1}},
		{"ElasticNet", regression.DefaultL1Ratios},
	}
	for _, family := range penalized {
		res := fitPenalized(al, family.name, family.l1Ratios)
		if res != nil {
			results = append(results, res)
		}
	}

	forest := trees.FitRandomForest(al.Matrix, al.Fund, al.TimeWeights, p.cfg.NumTrees, p.cfg.Seed)
	results = append(results, &ensemble.ModelResult{
		Name:       "RandomForest",
		RawWeights: forest.Importances,
		Weights:    solver.Normalize(forest.Importances),
		R2:         forest.R2,
		Hyper:      map[string]float64{"n_estimators": float64(p.cfg.NumTrees)},
	})

	boosted := trees.FitGradientBoosting(al.Matrix, al.Fund, al.TimeWeights, p.cfg.NumTrees)
	results = append(results, &ensemble.ModelResult{
		Name:       "GradientBoosting",
		RawWeights: boosted.Importances,
		Weights:    solver.Normalize(boosted.Importances),
		R2:         boosted.R2,
		Hyper:      map[string]float64{"n_estimators": float64(p.cfg.NumTrees)},
	})

	return results
}

// fitPenalized cross-validates the regularization strength on expanding
// time-series folds and refits the winning hyperparameters on the full
// weighted panel.
func fitPenalized(al *aligner.Aligned, name string, l1Ratios []float64) *ensemble.ModelResult {
	grid, err := regression.SearchPenalized(al.Matrix, al.Fund, al.TimeWeights, regression.DefaultAlphas, l1Ratios)
	if err != nil {
		log.Warn().Err(err).Str("Model", name).Msg("hyperparameter search failed")
		return nil
	}

	fit, err := regression.FitElasticNet(al.Matrix, al.Fund, al.TimeWeights, grid.Alpha, grid.L1Ratio)
	if err != nil {
		log.Warn().Err(err).Str("Model", name).Msg("refit failed")
		return nil
	}

	hyper := map[string]float64{"alpha": grid.Alpha}
	if name == "ElasticNet" {
		hyper["l1_ratio"] = grid.L1Ratio
	}

	return &ensemble.ModelResult{
		Name:       name,
		RawWeights: fit.Coef,
		Weights:    solver.Normalize(fit.Coef),
		R2:         fit.R2,
		Hyper:      hyper,
	}
}

func (p *Pipeline) buildReport(al *aligner.Aligned, individual []regression.AssetStat, results []*ensemble.ModelResult, blend *ensemble.Blend, selected []string, rolling map[int]*dataframe.DataFrame, intervals map[string]backtest.ConfidenceInterval, wf *backtest.WalkForwardResult) *report.Report {
	symbols := al.Assets()
	dates := al.Dates()

	weights := make([]report.AssetWeight, len(symbols))
	for idx, symbol := range symbols {
		ci := intervals[symbol]
		weights[idx] = report.AssetWeight{
			Symbol:  symbol,
			Weight:  report.Float(blend.Weights[idx]),
			LowerCI: report.Float(ci.Lower),
			UpperCI: report.Float(ci.Upper),
		}
	}
	sort.SliceStable(weights, func(i, j int) bool {
		return float64(weights[i].Weight) > float64(weights[j].Weight)
	})

	analysis := make([]report.AssetAnalysis, len(individual))
	for idx, stat := range individual {
		analysis[idx] = report.AssetAnalysis{
			Symbol:   stat.Symbol,
			Pearson:  report.Float(stat.Pearson),
			Spearman: report.Float(stat.Spearman),
			R2:       report.Float(stat.R2),
			Slope:    report.Float(stat.Slope),
		}
	}

	models := make([]report.ModelSummary, len(results))
	for idx, res := range results {
		summary := report.ModelSummary{
			Name:       res.Name,
			R2:         report.Float(res.R2),
			Importance: report.Float(blend.Importances[res.Name]),
			Weights:    make(map[string]report.Float, len(symbols)),
		}
		if len(res.Hyper) > 0 {
			summary.Hyperparameters = make(map[string]report.Float, len(res.Hyper))
			for k, v := range res.Hyper {
				summary.Hyperparameters[k] = report.Float(v)
			}
		}
		for colIdx, symbol := range symbols {
			summary.Weights[symbol] = report.Float(res.Weights[colIdx])
		}
		models[idx] = summary
	}

	windows := make(map[string]map[string]report.Float, len(rolling))
	for size, frame := range rolling {
		if frame.Len() == 0 {
			continue
		}
		last := frame.Row(frame.Len() - 1)
		latest := make(map[string]report.Float, len(frame.ColNames))
		for colIdx, symbol := range frame.ColNames {
			latest[symbol] = report.Float(last[colIdx])
		}
		windows[fmt.Sprintf("%dm", size)] = latest
	}

	return &report.Report{
		RunID:       uuid.New().String(),
		GeneratedAt: time.Now(),
		DataRange: report.DataRange{
			Start:  dates[0].Format("2006-01-02"),
			End:    dates[len(dates)-1].Format("2006-01-02"),
			Months: len(dates),
		},
		EnsembleWeights:    weights,
		IndividualAnalysis: analysis,
		Models:             models,
		RollingWindows:     windows,
		SelectedAssets:     selected,
		ExcludedAssets:     al.Excluded,
		TrackingError:      report.Float(wf.TrackingError),
		EnsembleR2:         report.Float(wf.R2),
		EnsembleR2Actual:   report.Float(wf.R2Actual),
	}
}

func predict(m *dataframe.DataFrame, weights []float64) []float64 {
	preds := make([]float64, m.Len())
	for rowIdx := range preds {
		var sum float64
		for colIdx := range m.Vals {
			sum += m.Vals[colIdx][rowIdx] * weights[colIdx]
		}
		preds[rowIdx] = sum
	}
	return preds
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
