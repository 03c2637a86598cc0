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

package data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fundlens/fundlens/dataframe"
	"github.com/rs/zerolog/log"
)

const (
	dateColumn   = "Date"
	returnColumn = "MoM_%_Chg"
)

var (
	ErrMissingColumn = errors.New("required column not found")
	ErrNoRows        = errors.New("no data rows in file")
)

// date formats observed in the return files; fund exports use the
// abbreviated month form
var dateFormats = []string{"2006-01-02", "2-Jan-06", "02-Jan-06", "01/02/2006"}

// Loader reads month-end return series from disk
type Loader struct {
	DataDir  string
	FundPath string
	tz       *time.Location
}

func NewLoader(dataDir, fundPath string, tz *time.Location) *Loader {
	return &Loader{
		DataDir:  dataDir,
		FundPath: fundPath,
		tz:       tz,
	}
}

// FundReturns loads the fund's monthly return series
func (loader *Loader) FundReturns(colName string) (*dataframe.DataFrame, error) {
	return loader.readReturnCSV(loader.FundPath, colName)
}

// AssetReturns loads the month-end return series for an asset symbol. The
// file is expected at {dataDir}/{symbol}_usd_eom.csv; a missing file is
// reported with os.ErrNotExist so callers can skip the asset
func (loader *Loader) AssetReturns(symbol string) (*dataframe.DataFrame, error) {
	fn := fmt.Sprintf("%s_usd_eom.csv", strings.ToLower(symbol))
	return loader.readReturnCSV(filepath.Join(loader.DataDir, fn), symbol)
}

func (loader *Loader) readReturnCSV(path string, colName string) (*dataframe.DataFrame, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	reader := csv.NewReader(fh)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(records) < 2 {
		return nil, ErrNoRows
	}

	dateIdx := -1
	valIdx := -1
	for idx, name := range records[0] {
		switch strings.TrimSpace(name) {
		case dateColumn:
			dateIdx = idx
		case returnColumn:
			valIdx = idx
		}
	}

	if dateIdx == -1 || valIdx == -1 {
		log.Error().Str("FilePath", path).Strs("Header", records[0]).Msg("return file missing Date or MoM_%_Chg column")
		return nil, ErrMissingColumn
	}

	type row struct {
		date time.Time
		val  float64
	}

	rows := make([]row, 0, len(records)-1)
	for _, record := range records[1:] {
		date, err := loader.parseDate(record[dateIdx])
		if err != nil {
			log.Warn().Str("FilePath", path).Str("Date", record[dateIdx]).Msg("skipping row with unparseable date")
			continue
		}
		rows = append(rows, row{date: date, val: parseReturn(record[valIdx])})
	}

	if len(rows) == 0 {
		return nil, ErrNoRows
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].date.Before(rows[j].date)
	})

	df := &dataframe.DataFrame{
		Dates:    make([]time.Time, 0, len(rows)),
		ColNames: []string{colName},
		Vals:     [][]float64{make([]float64, 0, len(rows))},
	}

	for _, r := range rows {
		df.Dates = append(df.Dates, r.date)
		df.Vals[0] = append(df.Vals[0], r.val)
	}

	return df, nil
}

func (loader *Loader) parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, format := range dateFormats {
		if date, err := time.ParseInLocation(format, s, loader.tz); err == nil {
			return date, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date: %s", s)
}

// parseReturn coerces the value to a float64; non-numeric values become NaN
func parseReturn(s string) float64 {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
