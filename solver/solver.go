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

// Package solver fits simplex-constrained portfolio weights: non-negative,
// bounded by 1, summing to 1. The constraints are folded into a quadratic
// penalty and several optimization methods are attempted; the best projected
// solution wins. When every method fails the caller-supplied initial guess
// is kept, so windows seeded with equal weights degrade to equal weights and
// bootstrap resamples seeded with ensemble weights degrade to those.
package solver

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/fundlens/fundlens/dataframe"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/optimize"
)

// quadratic penalty scale for constraint violations; large relative to the
// monthly-return MSE objective
const penaltyScale = 1e4

type FailureReason string

const (
	ReasonNoConvergence FailureReason = "no_convergence"
	ReasonNumerical     FailureReason = "numerical_error"
	ReasonInfeasible    FailureReason = "infeasible_constraints"
)

// OptimizationFailure is a recoverable failure of a single constrained
// solve. It is always logged and never silently ignored; the associated
// Solution carries the documented fallback weights
type OptimizationFailure struct {
	Reason FailureReason
	Detail string
}

func (e *OptimizationFailure) Error() string {
	return fmt.Sprintf("constrained optimization failed (%s): %s", e.Reason, e.Detail)
}

var ErrDimensionMismatch = errors.New("rows of return matrix do not match target length")

// Solution is the result of a constrained solve
type Solution struct {
	Weights   []float64
	Objective float64 // weighted MSE of Matrix . Weights vs the target
	Method    string
	FellBack  bool
	Failure   *OptimizationFailure
}

// Solve minimizes the weighted mean squared error of m.Vals' rows dotted
// with the weight vector against y, subject to the weights lying on the
// probability simplex. initial seeds every optimization attempt and is the
// fallback when all attempts fail; it must already satisfy the constraints
func Solve(m *dataframe.DataFrame, y, weights, initial []float64) (*Solution, error) {
	n := m.Len()
	k := m.ColCount()

	if n != len(y) {
		return nil, ErrDimensionMismatch
	}
	if k == 0 || n == 0 {
		failure := &OptimizationFailure{Reason: ReasonInfeasible, Detail: "empty return matrix"}
		log.Warn().Err(failure).Msg("constrained solve infeasible")
		return &Solution{Weights: initial, Objective: math.NaN(), FellBack: true, Failure: failure}, nil
	}

	objective := func(v []float64) float64 {
		return weightedMSE(m, y, weights, v) + constraintPenalty(v)
	}

	gradient := func(grad, v []float64) {
		mseGradient(grad, m, y, weights, v)
		addPenaltyGradient(grad, v)
	}

	problem := optimize.Problem{
		Func: objective,
		Grad: gradient,
	}

	methods := []struct {
		name   string
		method optimize.Method
	}{
		{"bfgs", &optimize.BFGS{}},
		{"nelder-mead", &optimize.NelderMead{}},
	}

	best := &Solution{
		Weights:   initial,
		Objective: weightedMSE(m, y, weights, initial),
		FellBack:  true,
	}

	var lastFailure *OptimizationFailure
	for _, candidate := range methods {
		projected, err := runMethod(problem, initial, candidate.method)
		if err != nil {
			lastFailure = classify(err)
			log.Debug().Err(lastFailure).Str("Method", candidate.name).Msg("constrained solve attempt failed")
			continue
		}

		obj := weightedMSE(m, y, weights, projected)
		if math.IsNaN(obj) {
			lastFailure = &OptimizationFailure{Reason: ReasonNumerical, Detail: "objective is NaN"}
			continue
		}

		if best.FellBack || obj < best.Objective {
			best = &Solution{
				Weights:   projected,
				Objective: obj,
				Method:    candidate.name,
			}
		}
	}

	if best.FellBack {
		best.Failure = lastFailure
		if best.Failure == nil {
			best.Failure = &OptimizationFailure{Reason: ReasonNoConvergence, Detail: "no method produced a solution"}
		}
		log.Warn().Err(best.Failure).Msg("all constrained solve attempts failed; using fallback weights")
	}

	return best, nil
}

// runMethod performs a single optimization attempt and projects the result
// back onto the simplex. Numerical panics inside the optimizer are converted
// to errors
func runMethod(problem optimize.Problem, initial []float64, method optimize.Method) (projected []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			projected = nil
			err = fmt.Errorf("optimizer panic: %v", r)
		}
	}()

	x0 := make([]float64, len(initial))
	copy(x0, initial)

	result, err := optimize.Minimize(problem, x0, nil, method)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, errors.New("optimizer returned no result")
	}

	for _, v := range result.X {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.New("optimizer produced non-finite weights")
		}
	}

	return Normalize(result.X), nil
}

func classify(err error) *OptimizationFailure {
	msg := err.Error()
	if strings.Contains(msg, "panic") || strings.Contains(msg, "non-finite") ||
		strings.Contains(msg, "NaN") || strings.Contains(msg, "Inf") {
		return &OptimizationFailure{Reason: ReasonNumerical, Detail: msg}
	}
	return &OptimizationFailure{Reason: ReasonNoConvergence, Detail: msg}
}

func weightedMSE(m *dataframe.DataFrame, y, weights, v []float64) float64 {
	var sum, wTotal float64
	for rowIdx := range y {
		var pred float64
		for colIdx := range v {
			pred += m.Vals[colIdx][rowIdx] * v[colIdx]
		}

		w := 1.0
		if weights != nil {
			w = weights[rowIdx]
		}
		diff := y[rowIdx] - pred
		sum += w * diff * diff
		wTotal += w
	}
	return sum / wTotal
}

func mseGradient(grad []float64, m *dataframe.DataFrame, y, weights, v []float64) {
	for colIdx := range grad {
		grad[colIdx] = 0
	}

	var wTotal float64
	for rowIdx := range y {
		var pred float64
		for colIdx := range v {
			pred += m.Vals[colIdx][rowIdx] * v[colIdx]
		}

		w := 1.0
		if weights != nil {
			w = weights[rowIdx]
		}
		resid := y[rowIdx] - pred
		for colIdx := range v {
			grad[colIdx] -= 2.0 * w * resid * m.Vals[colIdx][rowIdx]
		}
		wTotal += w
	}

	for colIdx := range grad {
		grad[colIdx] /= wTotal
	}
}

func constraintPenalty(v []float64) float64 {
	var sum float64
	var violation float64
	for _, x := range v {
		sum += x
		if x < 0 {
			violation += x * x
		} else if x > 1 {
			violation += (x - 1) * (x - 1)
		}
	}
	drift := sum - 1.0
	return penaltyScale * (drift*drift + violation)
}

func addPenaltyGradient(grad, v []float64) {
	var sum float64
	for _, x := range v {
		sum += x
	}
	drift := sum - 1.0

	for idx, x := range v {
		grad[idx] += 2.0 * penaltyScale * drift
		if x < 0 {
			grad[idx] += 2.0 * penaltyScale * x
		} else if x > 1 {
			grad[idx] += 2.0 * penaltyScale * (x - 1)
		}
	}
}
