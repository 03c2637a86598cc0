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
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Data locations
	viper.BindEnv("data.dir", "FUNDLENS_DATA_DIR")
	rootCmd.PersistentFlags().String("data-dir", "data", "Directory containing per-asset return CSV files")
	viper.BindPFlag("data.dir", rootCmd.PersistentFlags().Lookup("data-dir"))

	viper.BindEnv("data.fund_file", "FUNDLENS_FUND_FILE")
	rootCmd.PersistentFlags().String("fund-file", "data/fund_returns.csv", "CSV file with the fund's monthly returns")
	viper.BindPFlag("data.fund_file", rootCmd.PersistentFlags().Lookup("fund-file"))

	viper.BindEnv("data.universe_file", "FUNDLENS_UNIVERSE_FILE")
	rootCmd.PersistentFlags().String("universe-file", "data/universe.json", "JSON file describing the asset universe")
	viper.BindPFlag("data.universe_file", rootCmd.PersistentFlags().Lookup("universe-file"))

	// Logging configuration
	viper.BindEnv("log.level", "FUNDLENS_LOG_LEVEL")
	rootCmd.PersistentFlags().String("log-level", "warning", "Logging level")
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	viper.BindEnv("log.report_caller", "FUNDLENS_LOG_REPORT_CALLER")
	rootCmd.PersistentFlags().Bool("log-report-caller", false, "Log function name that called log statement")
	viper.BindPFlag("log.report_caller", rootCmd.PersistentFlags().Lookup("log-report-caller"))

	viper.BindEnv("log.output", "FUNDLENS_LOG_OUTPUT")
	rootCmd.PersistentFlags().String("log-output", "stderr", "Write logs to specified output one of: `stdout`, or `stderr`")
	viper.BindPFlag("log.output", rootCmd.PersistentFlags().Lookup("log-output"))

	viper.BindEnv("log.pretty", "FUNDLENS_LOG_PRETTY")
	rootCmd.PersistentFlags().Bool("log-pretty", false, "Print colorized logs for humans")
	viper.BindPFlag("log.pretty", rootCmd.PersistentFlags().Lookup("log-pretty"))
}

var rootCmd = &cobra.Command{
	Use:     "fundlens",
	Version: "v" + Version,
	Short:   "Fundlens estimates a fund's implicit crypto portfolio weights",
	Long: `Fundlens fits multiple regression and tree models against monthly fund
returns and blends them into a single ensemble weight vector with bootstrap
confidence intervals and a walk-forward tracking-error backtest.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
