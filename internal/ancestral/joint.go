// Copyright © 2024 The PASTML authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package ancestral

import "github.com/js-arias/pastml/internal/tree"

// selectJoint runs the Pupko dynamic program: a post-order pass computes,
// for every node and every hypothetical state of its parent, the subtree's
// best achievable likelihood and the node's own best state under that
// hypothesis; a pre-order pass then walks those choices down from the root,
// picking a single globally best joint assignment.
//
// likelihood.BottomUp must already have filled Pij on every non-root node
// (the transition matrices this DP reuses); Marginal/TopDown are not
// required.
func selectJoint(t *tree.Tree, freqs []float64) {
	k := t.K
	n := len(t.Nodes)

	// subtreeL[v][j] is the best likelihood of the subtree at v given
	// that v itself is assigned state j.
	subtreeL := make([][]float64, n)

	// bestOwn[v][i] and bestVal[v][i] are only meaningful for non-root
	// v: the node's best own state, and the corresponding likelihood,
	// given that v's parent is assigned state i.
	bestOwn := make([][]int, n)
	bestVal := make([][]float64, n)

	for _, id := range t.PostOrder() {
		nd := t.Node(id)
		l := make([]float64, k)
		if nd.IsTip() {
			for j := 0; j < k; j++ {
				if nd.State == -1 || nd.State == j {
					l[j] = 1
				}
			}
		} else {
			for j := 0; j < k; j++ {
				l[j] = 1
			}
			for _, cid := range nd.Children {
				cv := bestVal[cid]
				for j := 0; j < k; j++ {
					l[j] *= cv[j]
				}
			}
		}
		subtreeL[id] = l

		if nd.Parent == tree.NoParent {
			continue
		}
		own := make([]int, k)
		val := make([]float64, k)
		for i := 0; i < k; i++ {
			row := nd.Pij[i]
			bestJ, bestV := 0, row[0]*l[0]
			for j := 1; j < k; j++ {
				v := row[j] * l[j]
				if v > bestV {
					bestV, bestJ = v, j
				}
			}
			own[i], val[i] = bestJ, bestV
		}
		bestOwn[id] = own
		bestVal[id] = val
	}

	root := t.Node(t.Root)
	weighted := make([]float64, k)
	for j := 0; j < k; j++ {
		weighted[j] = freqs[j] * subtreeL[t.Root][j]
	}
	assigned := make([]int, n)
	assigned[t.Root] = argmax(weighted)
	root.BestStates = []int{assigned[t.Root]}

	for _, id := range t.PreOrder() {
		nd := t.Node(id)
		if nd.Parent == tree.NoParent {
			continue
		}
		if nd.IsTip() && nd.State != -1 {
			assigned[id] = nd.State
		} else {
			assigned[id] = bestOwn[id][assigned[nd.Parent]]
		}
		nd.BestStates = []int{assigned[id]}
	}
}
