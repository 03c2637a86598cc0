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

package ensemble

import (
	"math"

	"github.com/fundlens/fundlens/solver"
	"github.com/rs/zerolog/log"
)

const (
	// MinR2 excludes poor-fit models from the blend entirely
	MinR2 = 0.3

	// ImportancePower rewards higher-accuracy models disproportionately.
	// Empirical tuning constant subject to revision, not a derived
	// mathematical necessity
	ImportancePower = 4.0
)

// ModelResult is the immutable output of a single fitted model: raw
// coefficients (or importances), their simplex normalization, fit quality
// and any selected hyperparameters
type ModelResult struct {
	Name       string
	RawWeights []float64
	Weights    []float64 // normalized to the simplex
	R2         float64
	Hyper      map[string]float64
}

// Blend is the combined ensemble weight vector together with each model's
// importance score
type Blend struct {
	Weights     []float64
	Importances map[string]float64
}

// Combine blends the normalized weight vectors of all fitted models using
// R-squared based importance scores: a model with R2 below MinR2
// contributes exactly zero; otherwise its importance is R2^ImportancePower.
// Importances are normalized to sum to 1 and the blended vector is
// renormalized onto the simplex. When no model clears the bar the ensemble
// falls back to equal weights
func Combine(results []*ModelResult, numAssets int) *Blend {
	importances := make(map[string]float64, len(results))

	var total float64
	for _, res := range results {
		imp := 0.0
		if !math.IsNaN(res.R2) && res.R2 >= MinR2 {
			imp = math.Pow(res.R2, ImportancePower)
		}
		importances[res.Name] = imp
		total += imp
	}

	if total <= 0 {
		log.Warn().Msg("no model cleared the minimum R2 bar; ensemble falls back to equal weights")
		for name := range importances {
			importances[name] = 0
		}
		return &Blend{
			Weights:     solver.EqualWeights(numAssets),
			Importances: importances,
		}
	}

	blended := make([]float64, numAssets)
	for _, res := range results {
		imp := importances[res.Name] / total
		importances[res.Name] = imp
		for idx, w := range res.Weights {
			blended[idx] += imp * w
		}
	}

	return &Blend{
		Weights:     solver.Normalize(blended),
		Importances: importances,
	}
}
