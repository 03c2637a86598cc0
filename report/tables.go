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
	"fmt"
	"math"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// EnsembleTable renders the ensemble weights with confidence bounds
func (r *Report) EnsembleTable() string {
	s := &strings.Builder{}
	table := tablewriter.NewWriter(s)
	table.SetHeader([]string{"Asset", "Weight", "Lower CI", "Upper CI"})
	table.SetBorder(false)

	for _, aw := range r.EnsembleWeights {
		table.Append([]string{aw.Symbol, fmtFloat(aw.Weight), fmtFloat(aw.LowerCI), fmtFloat(aw.UpperCI)})
	}

	table.Render()
	return s.String()
}

// AnalysisTable renders the per-asset diagnostic statistics
func (r *Report) AnalysisTable() string {
	s := &strings.Builder{}
	table := tablewriter.NewWriter(s)
	table.SetHeader([]string{"Asset", "Pearson", "Spearman", "R^2", "OLS Slope"})
	table.SetBorder(false)

	for _, aa := range r.IndividualAnalysis {
		table.Append([]string{aa.Symbol, fmtFloat(aa.Pearson), fmtFloat(aa.Spearman), fmtFloat(aa.R2), fmtFloat(aa.Slope)})
	}

	table.Render()
	return s.String()
}

// ModelTable renders per-model fit quality and importance
func (r *Report) ModelTable() string {
	s := &strings.Builder{}
	table := tablewriter.NewWriter(s)
	table.SetHeader([]string{"Model", "R^2", "Importance"})
	table.SetBorder(false)

	for _, m := range r.Models {
		table.Append([]string{m.Name, fmtFloat(m.R2), fmtFloat(m.Importance)})
	}

	table.Render()
	return s.String()
}

func fmtFloat(f Float) string {
	if math.IsNaN(float64(f)) {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", float64(f))
}
