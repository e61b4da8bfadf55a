// Copyright © 2024 The PASTML authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package optimize

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"

	"github.com/js-arias/pastml/internal/model"
	"github.com/js-arias/pastml/internal/tree"
)

// gradientStep is the forward-difference step in the unconstrained
// coordinates, matching original_source/param_minimization.c's
// GRADIENT_STEP.
const gradientStep = 1e-7

// initialGradientTolerance, the iteration cap, and the rule below that
// tightens the tolerance tenfold (down to minGradientTolerance) each time
// it is met within the first 10 iterations all mirror
// original_source/param_minimization.c's minimize_params driver loop.
const (
	initialGradientTolerance = 1e-3
	minGradientTolerance     = 1e-5
	tightenBeforeIteration   = 10
	maxIterations            = 200
)

// Result is the outcome of a parameter optimization.
type Result struct {
	Freqs   []float64
	S       float64
	Epsilon float64
	LogLike float64
}

// Run maximizes the tree's log-likelihood over epsilon (and, under F81,
// the equilibrium frequencies), starting from the given initial values
// (an initial epsilon on or outside its bounds is moved just inside them),
// and returns the optimum found. When optimizeScale is true, s is also a
// free variable; otherwise it is held fixed at initS throughout (§6's
// `-s F` turns this off). The tree's Pij/BottomUp buffers are overwritten
// as a side effect; call likelihood.BottomUp again with the returned
// parameters if a final, clean pass is needed.
func Run(t *tree.Tree, kind model.Kind, initFreqs []float64, initS, initEps float64, bounds Bounds, optimizeScale bool, evalNegLogLike func(freqs []float64, s, eps float64) float64) Result {
	k := t.K
	n := 1
	if optimizeScale {
		n++
	}
	if kind == model.F81 {
		n += k
	}

	x0 := make([]float64, n)
	idx := 0
	if kind == model.F81 {
		copy(x0[:k], invSoftmax(initFreqs))
		idx = k
	}
	if optimizeScale {
		x0[idx] = invSigmoid(initS, bounds.SLo, bounds.SHi)
		idx++
	}
	// invSigmoid has no finite value on or outside a bound, so a starting
	// epsilon there is pulled just inside the interval.
	startEps := initEps
	if margin := (bounds.EHi - bounds.ELo) * 1e-3; startEps <= bounds.ELo {
		startEps = bounds.ELo + margin
	} else if startEps >= bounds.EHi {
		startEps = bounds.EHi - margin
	}
	x0[idx] = invSigmoid(startEps, bounds.ELo, bounds.EHi)

	toNatural := func(x []float64) ([]float64, float64, float64) {
		var freqs []float64
		idx := 0
		if kind == model.F81 {
			freqs = softmax(x[:k])
			idx = k
		} else {
			freqs = model.UniformFreqs(k)
		}
		s := initS
		if optimizeScale {
			s = sigmoid(x[idx], bounds.SLo, bounds.SHi)
			idx++
		}
		eps := sigmoid(x[idx], bounds.ELo, bounds.EHi)
		return freqs, s, eps
	}

	negLogLike := func(x []float64) float64 {
		freqs, s, eps := toNatural(x)
		return clampInf(evalNegLogLike(freqs, s, eps))
	}

	grad := func(dst, x []float64) {
		f0 := negLogLike(x)
		xh := make([]float64, len(x))
		basis := make([]float64, len(x))
		for i := range x {
			basis[i] = 1
			floats.AddScaledTo(xh, x, gradientStep, basis)
			basis[i] = 0
			dst[i] = (negLogLike(xh) - f0) / gradientStep
		}
	}

	problem := optimize.Problem{
		Func: negLogLike,
		Grad: grad,
	}

	best := append([]float64(nil), x0...)
	bestF := negLogLike(x0)

	x := x0
	tol := initialGradientTolerance
	iterUsed := 0
	for iterUsed < maxIterations {
		settings := &optimize.Settings{
			GradientThreshold: tol,
			MajorIterations:   maxIterations - iterUsed,
		}
		result, err := optimize.Minimize(problem, x, settings, &optimize.BFGS{})
		if result == nil {
			// Line-search/setup failure: not an error per §4.5/§7,
			// the best point found so far is kept.
			break
		}
		iterUsed += result.Stats.MajorIterations
		if result.F < bestF {
			bestF = result.F
			best = append(best[:0], result.X...)
		}
		x = result.X

		if err != nil || result.Status == optimize.Failure {
			break
		}
		if result.Status == optimize.GradientThreshold {
			if iterUsed < tightenBeforeIteration && tol > minGradientTolerance {
				tol /= 10
				continue
			}
			break
		}
		// Any other terminal status (iteration limit, function
		// convergence, ...) ends the search with the best point.
		break
	}

	freqs, s, eps := toNatural(best)
	return Result{
		Freqs:   freqs,
		S:       s,
		Epsilon: eps,
		LogLike: -bestF,
	}
}

// BoundCheck reports whether s and eps fall within bounds, to within a
// small tolerance; used by tests to verify §8's bound-respect invariant.
func BoundCheck(r Result, b Bounds) bool {
	const tol = 1e-9
	if r.S < b.SLo-tol || r.S > b.SHi+tol {
		return false
	}
	if r.Epsilon < b.ELo-tol || r.Epsilon > b.EHi+tol {
		return false
	}
	return true
}

// clampInf guards against a negative-log-likelihood evaluation at a
// numerically invalid point (a NumericFailure from the likelihood kernel)
// poisoning the line search: it is mapped to a large finite sentinel
// instead of +Inf, since gonum/optimize's line search expects finite
// function values to compare against.
func clampInf(negLogLike float64) float64 {
	if math.IsInf(negLogLike, 1) || math.IsNaN(negLogLike) {
		return math.MaxFloat64 / 2
	}
	return negLogLike
}
