// Copyright © 2024 The PASTML authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package annot builds the discrete state alphabet and per-tip state
// assignments from an annotation table.
//
// The bookkeeping (first-occurrence label ordering, a label-to-index map
// with its inverse) is grounded on github.com/js-arias/phygeo's
// trait.Data, generalized from "a taxon may carry several trait
// observations" to "a tip carries exactly one state, or none" and from a
// header-driven TSV to the two unnamed-column CSV the annotation file uses.
package annot

// Missing marks a tip with no observed state.
const Missing = -1

// An Alphabet is an ordered set of distinct state labels, discovered by
// first occurrence in an annotation table.
type Alphabet struct {
	labels []string
	index  map[string]int
}

// NewAlphabet creates an empty alphabet.
func NewAlphabet() *Alphabet {
	return &Alphabet{
		index: make(map[string]int),
	}
}

// Add returns the index of label, assigning it the next index if it has
// not been seen before.
func (a *Alphabet) Add(label string) int {
	if i, ok := a.index[label]; ok {
		return i
	}
	i := len(a.labels)
	a.labels = append(a.labels, label)
	a.index[label] = i
	return i
}

// Index returns the index of label and whether it is known.
func (a *Alphabet) Index(label string) (int, bool) {
	i, ok := a.index[label]
	return i, ok
}

// Label returns the label for state index i.
func (a *Alphabet) Label(i int) string {
	return a.labels[i]
}

// Len returns the alphabet size K.
func (a *Alphabet) Len() int {
	return len(a.labels)
}

// An Annotation is the result of reading an annotation table: the
// alphabet it implies, and a map from tip name to observed state index
// (or Missing).
type Annotation struct {
	Alphabet *Alphabet
	States   map[string]int
}

// isMissing reports whether a label is empty or "?", the two spellings of
// "no observation" accepted by the annotation file.
func isMissing(label string) bool {
	return label == "" || label == "?"
}
