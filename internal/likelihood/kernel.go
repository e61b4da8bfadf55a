// Copyright © 2024 The PASTML authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package likelihood implements the two-pass belief-propagation likelihood
// calculation over a tree under a continuous-time Markov substitution
// model: post-order bottom-up conditional likelihoods and pre-order
// top-down partial likelihoods, both with underflow rescaling.
//
// The traversal shape (post-order accumulate-into-parent, pre-order
// accumulate-from-parent-and-siblings) is grounded on
// github.com/js-arias/phygeo's infer/walk package (downpass.go,
// conditional.go) and infer/diffusion's uppass.go, generalized from that
// package's per-pixel/per-category vectors in log space to this package's
// per-discrete-state vectors in linear space with explicit rescaling.
package likelihood

import (
	"math"

	"github.com/js-arias/pastml/internal/model"
	"github.com/js-arias/pastml/internal/tree"
)

// LimP is the underflow threshold: a bottom-up or top-down vector whose
// maximum component falls below LimP is divided by that maximum, and the
// log of the maximum is folded into the node's running log-scaler.
var LimP = math.Ldexp(1, -500)

// ErrNumeric is returned when a bottom-up vector collapses to all zeros,
// or becomes non-finite, at some node.
type ErrNumeric struct {
	NodeID int
}

func (e *ErrNumeric) Error() string {
	return "likelihood: non-finite or all-zero conditional likelihood at node"
}

// BottomUp performs the post-order pass, filling BottomUp and LogScaler at
// every node and ChildTerm at every non-root node, and returns the tree's
// total log-likelihood.
//
// Tip vectors must already have been set (see InitTips); this function
// only recomputes internal nodes, but it fills the transition matrix Pij
// of every non-root node (tips included), since Pij depends on the current
// parameter vector and must be refreshed before every pass.
func BottomUp(t *tree.Tree, freqs []float64, s, eps float64) (float64, error) {
	k := t.K
	for _, n := range t.Nodes {
		if n.Parent == tree.NoParent {
			continue
		}
		model.FillTransitionMatrix(n.Pij, freqs, n.ParentLen, s, eps)
	}

	for _, id := range t.PostOrder() {
		n := t.Node(id)

		if !n.IsTip() {
			for i := 0; i < k; i++ {
				n.BottomUp[i] = 1
			}
			var logScaler float64
			for _, cid := range n.Children {
				c := t.Node(cid)
				fillChildTerm(c, k)
				for i := 0; i < k; i++ {
					n.BottomUp[i] *= c.ChildTerm[i]
				}
				logScaler += c.LogScaler
			}
			n.LogScaler = logScaler
		}

		max := maxOf(n.BottomUp)
		if math.IsNaN(max) || math.IsInf(max, 0) {
			return math.Inf(-1), &ErrNumeric{NodeID: id}
		}
		if max <= 0 {
			return math.Inf(-1), &ErrNumeric{NodeID: id}
		}
		if max < LimP {
			for i := range n.BottomUp {
				n.BottomUp[i] /= max
			}
			n.LogScaler += math.Log(max)
		}
	}

	root := t.Node(t.Root)
	var like float64
	for i, p := range root.BottomUp {
		like += p * freqs[i]
	}
	if like <= 0 || math.IsNaN(like) {
		return math.Inf(-1), &ErrNumeric{NodeID: root.ID}
	}
	return math.Log(like) + root.LogScaler, nil
}

// fillChildTerm computes c.ChildTerm[i] = sum_j c.Pij[i][j]*c.BottomUp[j]
// for every parent-state i, reusing c's already-filled Pij and BottomUp.
func fillChildTerm(c *tree.Node, k int) {
	for i := 0; i < k; i++ {
		var sum float64
		row := c.Pij[i]
		for j := 0; j < k; j++ {
			sum += row[j] * c.BottomUp[j]
		}
		c.ChildTerm[i] = sum
	}
}

// TopDown performs the pre-order pass, filling TopDown and
// TopDownLogScaler at every node. BottomUp must have already been run with
// the same parameters, since TopDown reuses ChildTerm and Pij.
func TopDown(t *tree.Tree, freqs []float64) {
	k := t.K
	siblingProd := make([]float64, k)

	for _, id := range t.PreOrder() {
		n := t.Node(id)
		if n.Parent == tree.NoParent {
			copy(n.TopDown, freqs)
			n.TopDownLogScaler = 0
			continue
		}

		v := t.Node(n.Parent)
		for j := range siblingProd {
			siblingProd[j] = 1
		}
		var logScaler float64
		for _, sibID := range v.Children {
			if sibID == id {
				continue
			}
			sib := t.Node(sibID)
			for j := 0; j < k; j++ {
				siblingProd[j] *= sib.ChildTerm[j]
			}
			logScaler += sib.LogScaler
		}
		logScaler += v.TopDownLogScaler

		for i := 0; i < k; i++ {
			var sum float64
			for j := 0; j < k; j++ {
				sum += n.Pij[j][i] * v.TopDown[j] * siblingProd[j]
			}
			n.TopDown[i] = sum
		}

		max := maxOf(n.TopDown)
		if max > 0 && max < LimP {
			for i := range n.TopDown {
				n.TopDown[i] /= max
			}
			logScaler += math.Log(max)
		}
		n.TopDownLogScaler = logScaler
	}
}

// Marginal fills Marginal at every node as the normalized product of
// BottomUp and TopDown.
func Marginal(t *tree.Tree) {
	for _, n := range t.Nodes {
		var sum float64
		for i := range n.Marginal {
			p := n.BottomUp[i] * n.TopDown[i]
			n.Marginal[i] = p
			sum += p
		}
		if sum <= 0 {
			continue
		}
		for i := range n.Marginal {
			n.Marginal[i] /= sum
		}
	}
}

func maxOf(v []float64) float64 {
	m := v[0]
	for _, x := range v[1:] {
		if x > m {
			m = x
		}
	}
	return m
}
