// Copyright © 2024 The PASTML authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package model implements the Jukes-Cantor (JC) and Felsenstein-1981
// (F81) continuous-time Markov models of discrete character substitution,
// and the transition-probability matrices derived from them.
package model

// A Kind names a substitution model.
type Kind int

const (
	// JC is the Jukes-Cantor model: equilibrium frequencies are uniform
	// and never optimized.
	JC Kind = iota

	// F81 is the Felsenstein-1981 model: equilibrium frequencies are
	// free parameters.
	F81
)

// String returns the CLI spelling of k.
func (k Kind) String() string {
	switch k {
	case JC:
		return "JC"
	case F81:
		return "F81"
	default:
		return "unknown"
	}
}

// ParseKind parses a model name, as given on the command line.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "JC":
		return JC, true
	case "F81":
		return F81, true
	default:
		return 0, false
	}
}

// UniformFreqs returns the equilibrium frequency vector for k states under
// JC: every entry is 1/k.
func UniformFreqs(k int) []float64 {
	f := make([]float64, k)
	u := 1 / float64(k)
	for i := range f {
		f[i] = u
	}
	return f
}

// Mu returns the normalization factor that makes the expected number of
// substitutions per unit branch length equal to 1 under the stationary
// distribution freqs.
func Mu(freqs []float64) float64 {
	var sumSq float64
	for _, f := range freqs {
		sumSq += f * f
	}
	return 1 / (1 - sumSq)
}
