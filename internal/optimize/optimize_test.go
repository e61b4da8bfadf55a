// Copyright © 2024 The PASTML authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package optimize

import (
	"math"
	"strings"
	"testing"

	"github.com/js-arias/pastml/internal/annot"
	"github.com/js-arias/pastml/internal/likelihood"
	"github.com/js-arias/pastml/internal/model"
	"github.com/js-arias/pastml/internal/newick"
)

func TestTransformRoundTrip(t *testing.T) {
	p := []float64{0.1, 0.2, 0.3, 0.4}
	x := invSoftmax(p)
	got := softmax(x)
	for i := range p {
		if math.Abs(got[i]-p[i]) > 1e-9 {
			t.Errorf("softmax(invSoftmax(p))[%d] = %v, want %v", i, got[i], p[i])
		}
	}

	v := invSigmoid(0.3, 0.1, 1.0)
	if got := sigmoid(v, 0.1, 1.0); math.Abs(got-0.3) > 1e-9 {
		t.Errorf("sigmoid(invSigmoid(v)) = %v, want 0.3", got)
	}
}

func TestRunRespectsBounds(t *testing.T) {
	a, err := annot.ReadCSV(strings.NewReader("A,0\nB,1\nC,0\n"))
	if err != nil {
		t.Fatalf("annot: %v", err)
	}
	tr, err := newick.Read(strings.NewReader("((A:0.1,B:0.1):0.1,C:0.2);"), a.Alphabet.Len())
	if err != nil {
		t.Fatalf("newick: %v", err)
	}
	if err := likelihood.InitTips(tr, a); err != nil {
		t.Fatalf("init tips: %v", err)
	}

	bounds := DeriveBounds(tr.AvgBranchLen, tr.MinBranchLen, tr.AvgTipBranchLen)
	initS := InitialS(tr.AvgBranchLen)
	initEps := InitialEpsilon(tr.MinBranchLen)
	freqs := model.UniformFreqs(a.Alphabet.Len())

	eval := func(freqs []float64, s, eps float64) float64 {
		ll, err := likelihood.BottomUp(tr, freqs, s, eps)
		if err != nil {
			return math.Inf(1)
		}
		return -ll
	}

	res := Run(tr, model.JC, freqs, initS, initEps, bounds, true, eval)
	if !BoundCheck(res, bounds) {
		t.Errorf("optimum (s=%v, eps=%v) outside bounds %+v", res.S, res.Epsilon, bounds)
	}
	if math.IsInf(res.LogLike, 0) || math.IsNaN(res.LogLike) {
		t.Errorf("expected finite log-likelihood, got %v", res.LogLike)
	}
}

func TestRunF81ImprovesOverInitial(t *testing.T) {
	a, err := annot.ReadCSV(strings.NewReader("A,0\nB,0\nC,1\nD,0\n"))
	if err != nil {
		t.Fatalf("annot: %v", err)
	}
	tr, err := newick.Read(strings.NewReader("((A:0.1,B:0.1):0.1,(C:0.1,D:0.1):0.1);"), a.Alphabet.Len())
	if err != nil {
		t.Fatalf("newick: %v", err)
	}
	if err := likelihood.InitTips(tr, a); err != nil {
		t.Fatalf("init tips: %v", err)
	}

	bounds := DeriveBounds(tr.AvgBranchLen, tr.MinBranchLen, tr.AvgTipBranchLen)
	initS := InitialS(tr.AvgBranchLen)
	initEps := InitialEpsilon(tr.MinBranchLen)
	initFreqs := model.UniformFreqs(a.Alphabet.Len())

	eval := func(freqs []float64, s, eps float64) float64 {
		ll, err := likelihood.BottomUp(tr, freqs, s, eps)
		if err != nil {
			return math.Inf(1)
		}
		return -ll
	}

	initLogLike, err := likelihood.BottomUp(tr, initFreqs, initS, initEps)
	if err != nil {
		t.Fatalf("initial bottom-up: %v", err)
	}

	res := Run(tr, model.F81, initFreqs, initS, initEps, bounds, true, eval)
	if res.LogLike < initLogLike-1e-9 {
		t.Errorf("optimized log-likelihood %v worse than initial %v", res.LogLike, initLogLike)
	}

	var sum float64
	for _, f := range res.Freqs {
		if f < 0 || f > 1 {
			t.Errorf("frequency %v outside [0,1]", f)
		}
		sum += f
	}
	if math.Abs(sum-1) > 1e-6 {
		t.Errorf("frequencies sum to %v, want 1", sum)
	}
}
