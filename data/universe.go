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
	"os"

	"github.com/goccy/go-json"
)

// Asset describes a single entry of the asset universe configuration
type Asset struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// ReadUniverse loads the asset universe configuration from a JSON file and
// returns the list of asset symbols in file order
func ReadUniverse(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var assets []Asset
	if err := json.Unmarshal(raw, &assets); err != nil {
		return nil, err
	}

	symbols := make([]string, 0, len(assets))
	for _, asset := range assets {
		symbols = append(symbols, asset.Symbol)
	}

	return symbols, nil
}
