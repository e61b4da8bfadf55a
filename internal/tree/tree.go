// Copyright © 2024 The PASTML authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package tree implements an arena-based rooted phylogenetic tree.
//
// Nodes are addressed by a dense integer id; children are referenced by id,
// never by pointer, so the arena is the sole owner of node storage. The
// per-node numeric buffers used by the likelihood kernel (bottom-up,
// top-down, marginal, and the transition matrix) are allocated once, when the
// node is created, and are reused across optimizer iterations and both
// likelihood passes.
package tree

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// NoParent marks the root node, which has no incident branch.
const NoParent = -1

// A Node is a node of a rooted phylogenetic tree.
type Node struct {
	ID       int
	Name     string
	Parent   int
	Children []int

	// ParentLen is the branch length to Parent; zero for the root.
	ParentLen float64

	// BottomUp is the conditional likelihood of the subtree rooted here,
	// per state, possibly rescaled.
	BottomUp []float64

	// LogScaler is the running sum of log-rescale factors applied to
	// BottomUp.
	LogScaler float64

	// TopDown is the partial likelihood of the complement of this
	// subtree, per state.
	TopDown []float64

	// TopDownLogScaler is the running sum of log-rescale factors applied
	// to TopDown.
	TopDownLogScaler float64

	// Marginal is the normalized posterior per state at this node.
	Marginal []float64

	// BestStates are the state ids chosen by the selection policy, in
	// ascending order.
	BestStates []int

	// Pij is the transition probability matrix over ParentLen, under
	// the current model and scaling; Pij[i][j] is P(j|i).
	Pij [][]float64

	// State is the observed tip state index, or -1 if this is not a tip
	// or the tip's state is missing.
	State int

	// ChildTerm[i] is sum_j Pij[i][j]*BottomUp[j], the per-parent-state
	// contribution this node makes to its parent's bottom-up product.
	// It is filled during the bottom-up pass and reused, unmodified,
	// during the top-down pass to build sibling products.
	ChildTerm []float64
}

// IsTip reports whether n has no children.
func (n *Node) IsTip() bool {
	return len(n.Children) == 0
}

// A Tree is an arena of nodes with a single designated root.
type Tree struct {
	Nodes []*Node
	Root  int
	K     int

	NTips int

	// Aggregates, recomputed by RecomputeAggregates.
	AvgBranchLen    float64
	MinBranchLen    float64
	AvgTipBranchLen float64
}

// New creates an empty tree for an alphabet of size k.
func New(k int) *Tree {
	return &Tree{
		Root: NoParent,
		K:    k,
	}
}

// AddNode creates a new node with k-sized buffers and appends it to the
// arena, returning its id.
func (t *Tree) AddNode(name string, parent int, parentLen float64) int {
	id := len(t.Nodes)
	n := &Node{
		ID:        id,
		Name:      name,
		Parent:    parent,
		ParentLen: parentLen,
		BottomUp:  make([]float64, t.K),
		TopDown:   make([]float64, t.K),
		Marginal:  make([]float64, t.K),
		Pij:       newMatrix(t.K),
		State:     -1,
		ChildTerm: make([]float64, t.K),
	}
	t.Nodes = append(t.Nodes, n)
	if parent != NoParent {
		p := t.Nodes[parent]
		p.Children = append(p.Children, id)
	}
	return id
}

func newMatrix(k int) [][]float64 {
	m := make([][]float64, k)
	for i := range m {
		m[i] = make([]float64, k)
	}
	return m
}

// Node returns the node with the given id.
func (t *Tree) Node(id int) *Node {
	return t.Nodes[id]
}

// PostOrder returns node ids in post-order (children before parents),
// suitable for a bottom-up pass.
func (t *Tree) PostOrder() []int {
	order := make([]int, 0, len(t.Nodes))
	var walk func(id int)
	walk = func(id int) {
		n := t.Nodes[id]
		for _, c := range n.Children {
			walk(c)
		}
		order = append(order, id)
	}
	if t.Root != NoParent {
		walk(t.Root)
	}
	return order
}

// PreOrder returns node ids in pre-order (parents before children),
// suitable for a top-down pass.
func (t *Tree) PreOrder() []int {
	order := make([]int, 0, len(t.Nodes))
	var walk func(id int)
	walk = func(id int) {
		order = append(order, id)
		n := t.Nodes[id]
		for _, c := range n.Children {
			walk(c)
		}
	}
	if t.Root != NoParent {
		walk(t.Root)
	}
	return order
}

// Rescale multiplies every branch length by factor, then replaces any
// length below floor with floor. The root's branch length is always zero
// and is left untouched. Aggregates are recomputed afterward.
func (t *Tree) Rescale(factor, floor float64) {
	for _, n := range t.Nodes {
		if n.Parent == NoParent {
			n.ParentLen = 0
			continue
		}
		l := n.ParentLen * factor
		if l < floor {
			l = floor
		}
		n.ParentLen = l
	}
	t.RecomputeAggregates()
}

// Collapse replaces any branch length below threshold with threshold,
// leaving longer branches unchanged. Unlike Rescale, lengths are not
// multiplied by any factor. Aggregates are recomputed afterward.
func (t *Tree) Collapse(threshold float64) {
	for _, n := range t.Nodes {
		if n.Parent == NoParent {
			continue
		}
		if n.ParentLen < threshold {
			n.ParentLen = threshold
		}
	}
	t.RecomputeAggregates()
}

// RecomputeAggregates recalculates the average branch length, the minimum
// positive branch length, and the average tip branch length. The means are
// computed with gonum/stat.Mean and the minimum positive length with
// gonum/floats.Min, rather than hand-rolled accumulation.
func (t *Tree) RecomputeAggregates() {
	var lens, tipLens, positive []float64
	var tipN int

	for _, nd := range t.Nodes {
		if nd.IsTip() {
			tipN++
		}
		if nd.Parent == NoParent {
			continue
		}
		l := nd.ParentLen
		lens = append(lens, l)
		if l > 0 {
			positive = append(positive, l)
		}
		if nd.IsTip() {
			tipLens = append(tipLens, l)
		}
	}

	if len(lens) > 0 {
		t.AvgBranchLen = stat.Mean(lens, nil)
	}
	if len(positive) > 0 {
		t.MinBranchLen = floats.Min(positive)
	} else {
		t.MinBranchLen = 0
	}
	if len(tipLens) > 0 {
		t.AvgTipBranchLen = stat.Mean(tipLens, nil)
	}
	t.NTips = tipN
}

// NTipsCount returns the number of tip nodes in the tree.
func (t *Tree) NTipsCount() int {
	return t.NTips
}
