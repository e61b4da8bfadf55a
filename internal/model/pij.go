// Copyright © 2024 The PASTML authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package model

import "math"

// TransitionMatrix returns the row-stochastic transition-probability
// matrix for a branch of original length ln, under scaling s, equilibrium
// frequencies freqs, and numerical floor eps.
//
// For t = s*ln and d = exp(-mu*t), the raw entry is
//
//	P[i][j] = d*1[i==j] + (1-d)*freqs[j]
//
// eps is then added to every entry and each row is renormalized to sum to
// 1, to keep every transition probability strictly positive.
func TransitionMatrix(freqs []float64, ln, s, eps float64) [][]float64 {
	k := len(freqs)
	mu := Mu(freqs)
	t := s * ln
	d := math.Exp(-mu * t)

	p := make([][]float64, k)
	for i := range p {
		row := make([]float64, k)
		var sum float64
		for j := range row {
			v := (1 - d) * freqs[j]
			if i == j {
				v += d
			}
			v += eps
			row[j] = v
			sum += v
		}
		for j := range row {
			row[j] /= sum
		}
		p[i] = row
	}
	return p
}

// FillTransitionMatrix fills the pre-allocated k×k matrix dst in place,
// avoiding an allocation when called repeatedly (once per node, per
// likelihood pass).
func FillTransitionMatrix(dst [][]float64, freqs []float64, ln, s, eps float64) {
	k := len(freqs)
	mu := Mu(freqs)
	t := s * ln
	d := math.Exp(-mu * t)

	for i := 0; i < k; i++ {
		row := dst[i]
		var sum float64
		for j := 0; j < k; j++ {
			v := (1 - d) * freqs[j]
			if i == j {
				v += d
			}
			v += eps
			row[j] = v
			sum += v
		}
		for j := 0; j < k; j++ {
			row[j] /= sum
		}
	}
}
