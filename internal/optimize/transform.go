// Copyright © 2024 The PASTML authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package optimize estimates the scaling factor, the epsilon floor, and
// (under F81) the equilibrium frequencies that maximize a tree's
// log-likelihood, by BFGS minimization of the negative log-likelihood over
// a reparameterized, unconstrained space.
//
// The reparameterization (softmax for frequencies, sigmoid for bounded
// scalars) and the forward-difference gradient are grounded on
// original_source/param_minimization.c's softmax/sigmoid/anti_sigmoid and
// d_minus_loglikelihood, reimplemented on top of
// gonum.org/v1/gonum/optimize's BFGS method instead of GSL's
// gsl_multimin_fdfminimizer.
package optimize

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// softmax maps n unconstrained reals to a point in the open simplex.
func softmax(x []float64) []float64 {
	max := floats.Max(x)
	p := make([]float64, len(x))
	for i, v := range x {
		p[i] = math.Exp(v - max)
	}
	floats.Scale(1/floats.Sum(p), p)
	return p
}

// invSoftmax returns an unconstrained point that softmax maps back to p
// (any vector differing by an additive constant across all entries works;
// this picks the elementwise log).
func invSoftmax(p []float64) []float64 {
	x := make([]float64, len(p))
	for i, v := range p {
		x[i] = math.Log(v)
	}
	return x
}

// sigmoid maps an unconstrained real to (lo, hi).
func sigmoid(x, lo, hi float64) float64 {
	return lo + (hi-lo)/(1+math.Exp(-x))
}

// invSigmoid returns an unconstrained value that sigmoid maps back to v.
func invSigmoid(v, lo, hi float64) float64 {
	return -math.Log((hi-lo)/(v-lo) - 1)
}
