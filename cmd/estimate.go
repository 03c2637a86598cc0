// Copyright 2021-2022
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/fundlens/fundlens/aligner"
	"github.com/fundlens/fundlens/common"
	"github.com/fundlens/fundlens/data"
	"github.com/fundlens/fundlens/dataframe"
	"github.com/fundlens/fundlens/pipeline"
	"github.com/fundlens/fundlens/report"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	estimateCmdAssets  []string
	estimateCmdOutput  string
	estimateCmdNoTable bool
)

func init() {
	rootCmd.AddCommand(estimateCmd)

	estimateCmd.Flags().StringSliceVar(&estimateCmdAssets, "assets", []string{}, "restrict the estimate to a subset of universe symbols")
	estimateCmd.Flags().StringVarP(&estimateCmdOutput, "output", "o", "report.json", "file to write the JSON report to")
	estimateCmd.Flags().BoolVar(&estimateCmdNoTable, "no-tables", false, "suppress ASCII result tables on stdout")

	estimateCmd.Flags().Int64("seed", 42, "random seed for bootstrap and tree models")
	viper.BindPFlag("estimate.seed", estimateCmd.Flags().Lookup("seed"))

	estimateCmd.Flags().Int("bootstrap-samples", 1000, "number of bootstrap resamples behind the confidence intervals")
	viper.BindPFlag("estimate.bootstrap_samples", estimateCmd.Flags().Lookup("bootstrap-samples"))

	estimateCmd.Flags().Int("workers", 0, "parallel solver workers; 0 uses all CPUs")
	viper.BindPFlag("estimate.workers", estimateCmd.Flags().Lookup("workers"))
}

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Estimate the fund's implicit portfolio weights",
	Long: `Estimate aligns the fund and per-asset return histories, fits the
model bank, blends the results into an ensemble weight vector and writes a
JSON report with confidence intervals and backtest statistics.`,
	Run: func(cmd *cobra.Command, args []string) {
		common.SetupLogging()

		if err := runEstimate(cmd.Context()); err != nil {
			// unexpected errors surface as a structured failure result,
			// never a raw crash
			fmt.Fprintln(os.Stderr, string(report.NewFailure(err).JSON()))
			os.Exit(1)
		}
	},
}

func runEstimate(ctx context.Context) error {
	symbols, err := data.ReadUniverse(viper.GetString("data.universe_file"))
	if err != nil {
		return fmt.Errorf("could not read asset universe: %w", err)
	}

	if len(estimateCmdAssets) > 0 {
		common.ArrToUpper(estimateCmdAssets)
		symbols = filterSymbols(symbols, estimateCmdAssets)
		if len(symbols) == 0 {
			return fmt.Errorf("no universe symbols match the requested subset")
		}
	}

	loader := data.NewLoader(viper.GetString("data.dir"), viper.GetString("data.fund_file"), common.GetTimezone())

	fund, err := loader.FundReturns(aligner.FundColumn)
	if err != nil {
		return fmt.Errorf("could not load fund returns: %w", err)
	}

	assets := make([]*dataframe.DataFrame, 0, len(symbols))
	for _, symbol := range symbols {
		series, err := loader.AssetReturns(symbol)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				log.Warn().Str("Asset", symbol).Msg("no data file for asset; skipping")
				continue
			}
			return fmt.Errorf("could not load returns for %s: %w", symbol, err)
		}
		assets = append(assets, series)
	}

	cfg := pipeline.DefaultConfig()
	cfg.Seed = viper.GetInt64("estimate.seed")
	cfg.BootstrapSamples = viper.GetInt("estimate.bootstrap_samples")
	if workers := viper.GetInt("estimate.workers"); workers > 0 {
		cfg.Workers = workers
	}

	rep, err := pipeline.New(cfg).Run(ctx, fund, assets)
	if err != nil {
		return err
	}

	if err := rep.WriteFile(estimateCmdOutput); err != nil {
		return fmt.Errorf("could not write report: %w", err)
	}
	log.Info().Str("FilePath", estimateCmdOutput).Msg("wrote report")

	if !estimateCmdNoTable {
		fmt.Println(rep.EnsembleTable())
		fmt.Println(rep.AnalysisTable())
		fmt.Println(rep.ModelTable())
	}

	return nil
}

func filterSymbols(universe, requested []string) []string {
	keep := make(map[string]bool, len(requested))
	for _, symbol := range requested {
		keep[symbol] = true
	}

	filtered := make([]string, 0, len(universe))
	for _, symbol := range universe {
		if keep[symbol] {
			filtered = append(filtered, symbol)
		}
	}
	return filtered
}
