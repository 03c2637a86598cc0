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

package report

import (
	"os"
	"time"

	"github.com/goccy/go-json"
)

// AssetWeight is the ensemble estimate for a single asset with its 95%
// bootstrap confidence interval
type AssetWeight struct {
	Symbol  string `json:"symbol"`
	Weight  Float  `json:"weight"`
	LowerCI Float  `json:"lower_ci"`
	UpperCI Float  `json:"upper_ci"`
}

// AssetAnalysis carries the diagnostic single-asset statistics
type AssetAnalysis struct {
	Symbol   string `json:"symbol"`
	Pearson  Float  `json:"pearson_correlation"`
	Spearman Float  `json:"spearman_correlation"`
	R2       Float  `json:"r_squared"`
	Slope    Float  `json:"ols_slope"`
}

// ModelSummary reports one fitted model: fit quality, importance in the
// ensemble, selected hyperparameters and the normalized weight vector
type ModelSummary struct {
	Name            string           `json:"name"`
	R2              Float            `json:"r_squared"`
	Importance      Float            `json:"importance"`
	Hyperparameters map[string]Float `json:"hyperparameters,omitempty"`
	Weights         map[string]Float `json:"weights"`
}

// DataRange describes the aligned monthly calendar the estimates cover
type DataRange struct {
	Start  string `json:"start"`
	End    string `json:"end"`
	Months int    `json:"months"`
}

// Report is the full output of one estimation run
type Report struct {
	RunID              string                      `json:"run_id"`
	GeneratedAt        time.Time                   `json:"generated_at"`
	DataRange          DataRange                   `json:"data_range"`
	EnsembleWeights    []AssetWeight               `json:"ensemble_weights"`
	IndividualAnalysis []AssetAnalysis             `json:"individual_analysis"`
	Models             []ModelSummary              `json:"models"`
	RollingWindows     map[string]map[string]Float `json:"rolling_windows"`
	SelectedAssets     []string                    `json:"selected_assets"`
	ExcludedAssets     []string                    `json:"excluded_assets"`
	TrackingError      Float                       `json:"tracking_error"`
	EnsembleR2         Float                       `json:"ensemble_r2"`
	EnsembleR2Actual   Float                       `json:"ensemble_r2_actual"`
}

// JSON serializes the report
func (r *Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// WriteFile serializes the report to the given path
func (r *Report) WriteFile(path string) error {
	raw, err := r.JSON()
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0600)
}

// Failure is the structured result emitted when a run aborts; raw crashes
// are never surfaced directly
type Failure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// NewFailure wraps an error into a serializable failure result
func NewFailure(err error) *Failure {
	return &Failure{Success: false, Error: err.Error()}
}

// JSON serializes the failure result
func (f *Failure) JSON() []byte {
	raw, err := json.Marshal(f)
	if err != nil {
		return []byte(`{"success":false,"error":"unserializable failure"}`)
	}
	return raw
}
