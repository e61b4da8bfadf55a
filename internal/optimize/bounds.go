// Copyright © 2024 The PASTML authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package optimize

import "math"

// Bounds holds the derived lower/upper bounds for the scaling factor s and
// the epsilon floor, computed from tree branch-length statistics, per
// §4.5.
type Bounds struct {
	SLo, SHi float64
	ELo, EHi float64
}

// DeriveBounds computes Bounds from tree aggregates, following the rule in
// original_source/runpastml.c: s in [0.01/avg, 10/avg], epsilon in
// [min(minBL/10, avgTipBL/100), min(minBL*10, avgTipBL/10)].
func DeriveBounds(avgBranchLen, minBranchLen, avgTipBranchLen float64) Bounds {
	return Bounds{
		SLo: 0.01 / avgBranchLen,
		SHi: 10 / avgBranchLen,
		ELo: math.Min(minBranchLen/10, avgTipBranchLen/100),
		EHi: math.Min(minBranchLen*10, avgTipBranchLen/10),
	}
}

// InitialS is the starting value for the scaling factor.
func InitialS(avgBranchLen float64) float64 {
	return 1 / avgBranchLen
}

// InitialEpsilon is the starting value for epsilon: the minimum positive
// branch length, matching runpastml.c's
// parameters[num_annotations+1] = s_tree->min_branch_len (the
// authoritative choice among the three divergent revisions spec.md §9
// flags as an open question).
func InitialEpsilon(minBranchLen float64) float64 {
	return minBranchLen
}
