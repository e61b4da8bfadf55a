// Copyright © 2024 The PASTML authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package newick reads and writes rooted phylogenetic trees in Newick
// (parenthetical) format.
//
// The reader is a thin external collaborator: it knows nothing about
// character states or likelihood, it only builds the bare arena defined by
// package tree. It is grounded on the recursive-descent, rune-at-a-time
// reader used by github.com/js-arias/ramita's likelihood.ReadTree,
// generalized from a strictly binary tree to an arbitrary number of
// children per node, since an unrooted input may have a trifurcation at
// the root and any internal node may be a polytomy.
package newick

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"

	"github.com/js-arias/pastml/internal/tree"
)

// MaxNameLength is the maximum accepted length of a taxon or node name.
const MaxNameLength = 255

// MaxTreeLength is the maximum accepted size, in bytes, of a Newick file.
const MaxTreeLength = 10_000_000

// a parsed clade, before it is committed to a tree.Tree arena.
type clade struct {
	name     string
	length   float64
	hasLen   bool
	children []*clade
}

func (c *clade) isTip() bool {
	return len(c.children) == 0
}

// Read parses a single Newick tree, terminated by ';', from r, and returns
// it as a tree.Tree with per-node buffers sized for a k-state alphabet.
//
// If the tree is unrooted (a trifurcation at the root), one child is
// promoted to root and its former branch length is replaced by a synthetic
// zero-length root edge, per the rooting rule of the tree store.
func Read(r io.Reader, k int) (*tree.Tree, error) {
	br := bufio.NewReader(r)

	root, err := readClade(br)
	if err != nil {
		return nil, errors.Wrap(err, "newick: read")
	}
	if err := expectSemicolon(br); err != nil {
		return nil, errors.Wrap(err, "newick: read")
	}

	if len(root.children) == 3 {
		root = promoteToRoot(root)
	}

	t := tree.New(k)
	buildArena(t, root, tree.NoParent, 0)
	t.RecomputeAggregates()
	return t, nil
}

// promoteToRoot turns an unrooted trifurcation into a rooted bifurcation by
// promoting the first child to root: the promoted child keeps its own
// children and gains its former siblings as additional children, while its
// own former branch length is discarded in favor of a zero-length root
// edge.
func promoteToRoot(virtual *clade) *clade {
	newRoot := virtual.children[0]
	newRoot.length = 0
	newRoot.hasLen = false
	newRoot.children = append(newRoot.children, virtual.children[1:]...)
	return newRoot
}

func buildArena(t *tree.Tree, c *clade, parent int, depth int) int {
	length := c.length
	if parent == tree.NoParent {
		length = 0
	}
	id := t.AddNode(c.name, parent, length)
	if parent == tree.NoParent {
		t.Root = id
	}
	for _, ch := range c.children {
		buildArena(t, ch, id, depth+1)
	}
	return id
}

func expectSemicolon(r *bufio.Reader) error {
	for {
		ru, _, err := r.ReadRune()
		if err != nil {
			return errors.New("unexpected end of input, expecting ';'")
		}
		if unicode.IsSpace(ru) {
			continue
		}
		if ru == ';' {
			return nil
		}
		return errors.Errorf("unexpected character %q, expecting ';'", ru)
	}
}

// readClade reads a single clade: either a parenthesized list of child
// clades, or a leaf name, optionally followed by ":" and a branch length.
func readClade(r *bufio.Reader) (*clade, error) {
	ru, err := skipSpace(r)
	if err != nil {
		return nil, err
	}

	c := &clade{}
	if ru == '(' {
		for {
			child, err := readClade(r)
			if err != nil {
				return nil, err
			}
			c.children = append(c.children, child)

			sep, err := skipSpace(r)
			if err != nil {
				return nil, errors.Wrap(err, "unterminated clade")
			}
			if sep == ',' {
				continue
			}
			if sep == ')' {
				break
			}
			return nil, errors.Errorf("unexpected character %q inside clade", sep)
		}
	} else {
		r.UnreadRune()
	}

	name, err := readName(r)
	if err != nil {
		return nil, err
	}
	if len(name) > MaxNameLength {
		return nil, errors.Errorf("name %q exceeds maximum length", name)
	}
	c.name = name

	hasLen, length, err := readLength(r)
	if err != nil {
		return nil, err
	}
	c.hasLen = hasLen
	c.length = length

	return c, nil
}

func skipSpace(r *bufio.Reader) (rune, error) {
	for {
		ru, _, err := r.ReadRune()
		if err != nil {
			return 0, err
		}
		if unicode.IsSpace(ru) {
			continue
		}
		return ru, nil
	}
}

func readName(r *bufio.Reader) (string, error) {
	var b strings.Builder
	for {
		ru, _, err := r.ReadRune()
		if err != nil {
			return b.String(), nil
		}
		if unicode.IsSpace(ru) {
			continue
		}
		if ru == ':' || ru == ',' || ru == ')' || ru == ';' {
			r.UnreadRune()
			return b.String(), nil
		}
		b.WriteRune(ru)
	}
}

func readLength(r *bufio.Reader) (bool, float64, error) {
	ru, _, err := r.ReadRune()
	if err != nil {
		return false, 0, nil
	}
	if ru != ':' {
		r.UnreadRune()
		return false, 0, nil
	}

	var b strings.Builder
	for {
		ru, _, err := r.ReadRune()
		if err != nil {
			break
		}
		if unicode.IsSpace(ru) {
			continue
		}
		if ru == ',' || ru == ')' || ru == ';' {
			r.UnreadRune()
			break
		}
		b.WriteRune(ru)
	}
	l, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return false, 0, errors.Wrapf(err, "bad branch length %q", b.String())
	}
	if l < 0 {
		return false, 0, errors.Errorf("negative branch length %q", b.String())
	}
	return true, l, nil
}
