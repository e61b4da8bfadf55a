// Copyright © 2024 The PASTML authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package output

import (
	"io"

	"github.com/js-arias/pastml/internal/newick"
	"github.com/js-arias/pastml/internal/tree"
)

// WriteTree rescales every branch length by s, floors any length below eps
// at eps, and writes the result as Newick, per §6's tree-file-out rule.
// Rescaling mutates t in place; callers that still need the unscaled
// lengths should rescale a copy, or write the tree before any other use of
// the original lengths.
func WriteTree(w io.Writer, t *tree.Tree, s, eps float64) error {
	t.Rescale(s, eps)
	return newick.Write(w, t)
}
