// Copyright © 2024 The PASTML authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package likelihood

import (
	"fmt"

	"github.com/js-arias/pastml/internal/annot"
	"github.com/js-arias/pastml/internal/tree"
)

// InitTips sets the bottom-up conditional likelihood vector of every tip
// node from the annotation: a one-hot vector at the observed state, or all
// ones if the tip's state is missing. It returns an error if a tip in the
// tree has no entry in the annotation.
func InitTips(t *tree.Tree, a *annot.Annotation) error {
	for _, n := range t.Nodes {
		if !n.IsTip() {
			continue
		}
		state, ok := a.States[n.Name]
		if !ok {
			return fmt.Errorf("likelihood: tip %q has no annotation", n.Name)
		}
		n.State = state
		n.LogScaler = 0
		if state == annot.Missing {
			for i := range n.BottomUp {
				n.BottomUp[i] = 1
			}
			continue
		}
		for i := range n.BottomUp {
			n.BottomUp[i] = 0
		}
		n.BottomUp[state] = 1
	}
	return nil
}
