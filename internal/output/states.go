// Copyright © 2024 The PASTML authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package output writes the three result files the pipeline produces: the
// per-node state-probability table, the optimized-parameters table, and
// the annotated output tree. The CSV writers follow
// github.com/js-arias/phygeo's trait.Data.Format conventions
// (encoding/csv, a header row, one record per entity), adjusted from that
// package's tab-separated/CRLF table to the plain-comma, LF-terminated
// table §6 requires.
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/js-arias/pastml/internal/annot"
	"github.com/js-arias/pastml/internal/tree"
)

// WriteStates writes the per-node marginal probability table: header row
// `node,<label_1>,...,<label_K>,best_states`, one row per node in tree id
// order, with the selected state set joined by "|" (state labels, not
// indices) in the last column.
func WriteStates(w io.Writer, t *tree.Tree, alphabet *annot.Alphabet) error {
	tab := csv.NewWriter(w)

	header := make([]string, 0, alphabet.Len()+2)
	header = append(header, "node")
	for i := 0; i < alphabet.Len(); i++ {
		header = append(header, alphabet.Label(i))
	}
	header = append(header, "best_states")
	if err := tab.Write(header); err != nil {
		return fmt.Errorf("output: write state header: %v", err)
	}

	row := make([]string, len(header))
	for _, n := range t.Nodes {
		row[0] = nodeLabel(n)
		for i, p := range n.Marginal {
			row[1+i] = strconv.FormatFloat(p, 'g', -1, 64)
		}
		labels := make([]string, len(n.BestStates))
		for i, s := range n.BestStates {
			labels[i] = alphabet.Label(s)
		}
		row[len(row)-1] = strings.Join(labels, "|")
		if err := tab.Write(row); err != nil {
			return fmt.Errorf("output: write state row: %v", err)
		}
	}

	tab.Flush()
	return tab.Error()
}

// nodeLabel returns a tip's name, or "n<id>" for an internal node, matching
// the naming the Newick writer assigns to internal nodes.
func nodeLabel(n *tree.Node) string {
	if n.IsTip() {
		return n.Name
	}
	return fmt.Sprintf("n%d", n.ID)
}
