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

package pipeline

import "runtime"

// Config is the explicit configuration object passed to the pipeline
// constructor; the core never reads ambient globals
type Config struct {
	// Seed makes the bootstrap and tree models reproducible
	Seed int64

	// BootstrapSamples is the number of resamples behind the confidence
	// intervals
	BootstrapSamples int

	// Workers bounds the parallel fan-out of rolling/bootstrap solves
	Workers int

	// RollingWindows are the trailing re-estimation window sizes in months
	RollingWindows []int

	// NumTrees is the ensemble size for the random forest and gradient
	// boosting models
	NumTrees int

	// RFESelect is how many assets recursive feature elimination keeps
	RFESelect int
}

func DefaultConfig() Config {
	return Config{
		Seed:             42,
		BootstrapSamples: 1000,
		Workers:          runtime.NumCPU(),
		RollingWindows:   []int{3, 6, 12},
		NumTrees:         100,
		RFESelect:        5,
	}
}
