// Copyright © 2024 The PASTML authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package ancestral turns per-node marginal posteriors into a per-node set
// of predicted states, following one of four selection policies. It is
// grounded on github.com/js-arias/phygeo's infer/diffusion package, which
// performs the analogous step of collapsing a pixel-probability surface
// into a best-pixel (or best-region) report after its own uppass; here the
// surface is a discrete-state posterior rather than a geographic raster.
package ancestral

import (
	"sort"

	"github.com/js-arias/pastml/internal/tree"
)

// Method is a state-selection policy.
type Method int

const (
	// MarginalApprox includes states by descending posterior until the
	// included mass exceeds what remains excluded. It is the default
	// policy.
	MarginalApprox Method = iota

	// Marginal reports the full distribution; BestStates is the argmax
	// only.
	Marginal

	// MaxPosteriori selects the singleton argmax at every node.
	MaxPosteriori

	// Joint runs a Pupko-style dynamic program selecting a single
	// jointly most probable assignment across all internal nodes.
	Joint
)

// String returns the method's CLI spelling.
func (m Method) String() string {
	switch m {
	case MarginalApprox:
		return "marginal_approx"
	case Marginal:
		return "marginal"
	case MaxPosteriori:
		return "max_posteriori"
	case Joint:
		return "joint"
	default:
		return "unknown"
	}
}

// ParseMethod parses a method's CLI spelling.
func ParseMethod(s string) (Method, bool) {
	switch s {
	case "marginal_approx":
		return MarginalApprox, true
	case "marginal":
		return Marginal, true
	case "max_posteriori":
		return MaxPosteriori, true
	case "joint":
		return Joint, true
	default:
		return 0, false
	}
}

// Select fills BestStates at every node of t according to method. Marginal
// must already have been computed for the non-Joint policies; Joint only
// needs Pij (filled by likelihood.BottomUp) and the model's equilibrium
// frequencies, and ignores Marginal entirely.
// Tip nodes with an observed state are always fixed to that singleton,
// regardless of method.
func Select(t *tree.Tree, method Method, freqs []float64) {
	if method == Joint {
		selectJoint(t, freqs)
		return
	}

	for _, n := range t.Nodes {
		if n.IsTip() && n.State != -1 {
			n.BestStates = []int{n.State}
			continue
		}
		switch method {
		case MarginalApprox:
			n.BestStates = marginalApprox(n.Marginal)
		case Marginal, MaxPosteriori:
			n.BestStates = []int{argmax(n.Marginal)}
		}
	}
}

// argmax returns the index of the largest entry, breaking ties by lowest
// index.
func argmax(p []float64) int {
	best := 0
	for i, v := range p {
		if v > p[best] {
			best = i
		}
	}
	return best
}

// marginalApprox sorts states by descending posterior and includes them
// one at a time until the included mass exceeds the mass still excluded
// (i.e. the included set becomes a strict majority of the total, which is
// always 1) — comparing against the full excluded remainder, not just the
// next single state, is what makes the stopping rule monotonic: adding
// one more state never stops being worthwhile just because that one
// state happens to be small while several smaller ones remain. Ties in
// posterior are broken by lowest state index in the sort, so when the
// majority is reached partway through a group of equally probable states,
// the lower-indexed ones are included and the rest are not.
func marginalApprox(p []float64) []int {
	idx := make([]int, len(p))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		if p[idx[a]] != p[idx[b]] {
			return p[idx[a]] > p[idx[b]]
		}
		return idx[a] < idx[b]
	})

	var included []int
	var sum float64
	for _, i := range idx {
		included = append(included, i)
		sum += p[i]
		if sum > 1-sum {
			break
		}
	}
	sort.Ints(included)
	return included
}
