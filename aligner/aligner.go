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

package aligner

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/fundlens/fundlens/dataframe"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
)

const (
	// FundColumn is the reserved column name of the fund return series
	FundColumn = "FUND"

	// half-life of the exponential recency decay, in months
	halfLifeMonths = 12.0

	// average month length in days, used to convert date offsets to months
	daysPerMonth = 30.44
)

// DataCompletenessError is raised when the most recent fund-return dates
// have no corresponding asset data. Asset data must be updated before the
// fund's most recent observations can be explained.
type DataCompletenessError struct {
	Assets []string
	Dates  []time.Time
}

func (e *DataCompletenessError) Error() string {
	dates := make([]string, 0, len(e.Dates))
	for _, d := range e.Dates {
		dates = append(dates, d.Format("2006-01-02"))
	}
	return fmt.Sprintf("asset data does not cover most recent fund dates (assets: %s; dates: %s)",
		strings.Join(e.Assets, ", "), strings.Join(dates, ", "))
}

// Aligned is the cleaned dataset every model consumes: a complete return
// matrix on the fund's monthly calendar plus recency-decay time weights
type Aligned struct {
	// Matrix contains one return column per asset with no missing values
	Matrix *dataframe.DataFrame

	// Fund holds the fund returns parallel to Matrix rows
	Fund []float64

	// TimeWeights are positive, sum to 1 and decay exponentially with age
	TimeWeights []float64

	// Excluded lists assets dropped because no data was available
	Excluded []string
}

// Assets returns the asset symbols present in the aligned matrix
func (al *Aligned) Assets() []string {
	return al.Matrix.ColNames
}

// Dates returns the aligned monthly calendar
func (al *Aligned) Dates() []time.Time {
	return al.Matrix.Dates
}

// Align left joins the per-asset return series onto the fund's monthly
// calendar, caps outliers, fills gaps and computes time weights. Assets with
// no overlapping data are excluded with a logged warning; assets whose data
// ends before the fund's most recent dates produce a DataCompletenessError
func Align(fund *dataframe.DataFrame, assets []*dataframe.DataFrame) (*Aligned, error) {
	merged := &dataframe.DataFrame{
		Dates:    make([]time.Time, len(fund.Dates)),
		ColNames: []string{FundColumn},
		Vals:     [][]float64{make([]float64, fund.Len())},
	}
	copy(merged.Dates, fund.Dates)
	copy(merged.Vals[0], fund.Vals[0])

	stale := make([]string, 0)
	staleDates := make(map[time.Time]bool)
	excluded := make([]string, 0)

	for _, asset := range assets {
		symbol := asset.ColNames[0]

		byDate := make(map[time.Time]float64, asset.Len())
		for idx, date := range asset.Dates {
			byDate[date] = asset.Vals[0][idx]
		}

		col := make([]float64, merged.Len())
		lastObserved := -1
		observed := 0
		for idx, date := range merged.Dates {
			if v, ok := byDate[date]; ok && !math.IsNaN(v) {
				col[idx] = v
				lastObserved = idx
				observed++
			} else {
				col[idx] = math.NaN()
			}
		}

		if observed == 0 {
			log.Warn().Str("Asset", symbol).Msg("no data for asset; excluding from return matrix")
			excluded = append(excluded, symbol)
			continue
		}

		// asset series must cover the fund's most recent observations;
		// forward-filling stale data here would silently fabricate the
		// latest months
		if lastObserved < merged.Len()-1 {
			stale = append(stale, symbol)
			for _, date := range merged.Dates[lastObserved+1:] {
				staleDates[date] = true
			}
		}

		merged.Insert(symbol, col)
	}

	if len(stale) > 0 {
		dates := make([]time.Time, 0, len(staleDates))
		for _, date := range merged.Dates {
			if staleDates[date] {
				dates = append(dates, date)
			}
		}
		return nil, &DataCompletenessError{Assets: stale, Dates: dates}
	}

	if merged.ColCount() == 1 {
		log.Error().Msg("no asset columns remain after exclusions")
		return nil, fmt.Errorf("no asset data available")
	}

	capOutliers(merged)
	merged.FillForward()
	merged.FillBackward()
	merged.Drop(math.NaN())

	if merged.Len() == 0 {
		return nil, fmt.Errorf("no complete rows remain after alignment")
	}

	fundCol, matrix := merged.Split(FundColumn)

	return &Aligned{
		Matrix:      matrix,
		Fund:        fundCol.Vals[0],
		TimeWeights: TimeWeights(matrix.Dates),
		Excluded:    excluded,
	}, nil
}

// capOutliers clips values outside [Q5 - 1.5*IQR, Q95 + 1.5*IQR] to missing
// so they are re-filled from neighboring observations. IQR here is the
// distance between the 5th and 95th percentile
func capOutliers(df *dataframe.DataFrame) {
	for colIdx, colName := range df.ColNames {
		q1 := df.Quantile(colName, 5)
		q3 := df.Quantile(colName, 95)
		if math.IsNaN(q1) || math.IsNaN(q3) {
			continue
		}

		iqr := q3 - q1
		lower := q1 - 1.5*iqr
		upper := q3 + 1.5*iqr

		for rowIdx, v := range df.Vals[colIdx] {
			if v < lower || v > upper {
				df.Vals[colIdx][rowIdx] = math.NaN()
			}
		}
	}
}

// TimeWeights computes exponential recency weights for the supplied dates:
// w_t = exp(ln(2)/12 * months_since_start_t), normalized to sum to 1. The
// half-life means an observation a year older carries half the weight
func TimeWeights(dates []time.Time) []float64 {
	if len(dates) == 0 {
		return nil
	}

	decay := math.Ln2 / halfLifeMonths
	start := dates[0]

	weights := make([]float64, len(dates))
	for idx, date := range dates {
		months := date.Sub(start).Hours() / 24.0 / daysPerMonth
		weights[idx] = math.Exp(decay * months)
	}

	total := floats.Sum(weights)
	floats.Scale(1.0/total, weights)

	return weights
}
