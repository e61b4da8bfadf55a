// Copyright © 2024 The PASTML authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package model

import (
	"math"
	"testing"
)

func TestTransitionMatrixRowStochastic(t *testing.T) {
	freqs := []float64{0.25, 0.25, 0.25, 0.25}
	p := TransitionMatrix(freqs, 0.3, 1.5, 1e-6)
	for i, row := range p {
		var sum float64
		for _, v := range row {
			if v <= 0 {
				t.Errorf("row %d: entry %v must be strictly positive", i, v)
			}
			sum += v
		}
		if math.Abs(sum-1) > 1e-12 {
			t.Errorf("row %d sums to %v, want 1", i, sum)
		}
	}
}

func TestTransitionMatrixZeroLengthIsIdentity(t *testing.T) {
	freqs := []float64{0.5, 0.5}
	p := TransitionMatrix(freqs, 0, 1, 0)
	if math.Abs(p[0][0]-1) > 1e-9 || math.Abs(p[1][1]-1) > 1e-9 {
		t.Errorf("expected near-identity matrix for zero branch length, got %v", p)
	}
}

func TestParseKind(t *testing.T) {
	if k, ok := ParseKind("JC"); !ok || k != JC {
		t.Errorf("expected JC")
	}
	if k, ok := ParseKind("F81"); !ok || k != F81 {
		t.Errorf("expected F81")
	}
	if _, ok := ParseKind("bogus"); ok {
		t.Errorf("expected failure for unknown model")
	}
}

func TestUniformFreqsSumToOne(t *testing.T) {
	f := UniformFreqs(3)
	var sum float64
	for _, v := range f {
		sum += v
	}
	if math.Abs(sum-1) > 1e-12 {
		t.Errorf("sum = %v, want 1", sum)
	}
}
