// Copyright © 2024 The PASTML authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package newick

import (
	"fmt"
	"io"

	"github.com/js-arias/pastml/internal/tree"
)

// Write writes t as a Newick expression, terminated by ';'. Internal nodes
// are named deterministically by id ("n0", "n1", ...); tip names are kept
// as-is. Branch lengths are written as currently stored on each node — the
// caller is expected to have already applied any scaling or epsilon floor
// via tree.Rescale.
func Write(w io.Writer, t *tree.Tree) error {
	if err := writeNode(w, t, t.Root); err != nil {
		return err
	}
	_, err := fmt.Fprint(w, ";")
	return err
}

func writeNode(w io.Writer, t *tree.Tree, id int) error {
	n := t.Node(id)
	if n.IsTip() {
		_, err := fmt.Fprintf(w, "%s:%.6f", n.Name, n.ParentLen)
		return err
	}

	if _, err := fmt.Fprint(w, "("); err != nil {
		return err
	}
	for i, c := range n.Children {
		if i > 0 {
			if _, err := fmt.Fprint(w, ","); err != nil {
				return err
			}
		}
		if err := writeNode(w, t, c); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprint(w, ")"); err != nil {
		return err
	}

	name := fmt.Sprintf("n%d", n.ID)
	if n.Parent == tree.NoParent {
		_, err := fmt.Fprint(w, name)
		return err
	}
	_, err := fmt.Fprintf(w, "%s:%.6f", name, n.ParentLen)
	return err
}
