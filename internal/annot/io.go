// Copyright © 2024 The PASTML authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package annot

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// ReadCSV reads an annotation table from r.
//
// Each row has exactly two unnamed columns: a tip name and a state label.
// An empty label, or the label "?", marks the tip as missing. The first
// non-missing label encountered defines state 0, the next new label state
// 1, and so on; label comparison is exact byte equality.
func ReadCSV(r io.Reader) (*Annotation, error) {
	tab := csv.NewReader(r)
	tab.Comma = ','
	tab.FieldsPerRecord = -1

	a := &Annotation{
		Alphabet: NewAlphabet(),
		States:   make(map[string]int),
	}

	for {
		row, err := tab.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		ln, _ := tab.FieldPos(0)
		if err != nil {
			return nil, fmt.Errorf("annot: on row %d: %v", ln, err)
		}
		if len(row) < 2 {
			return nil, fmt.Errorf("annot: on row %d: expecting two columns, got %d", ln, len(row))
		}

		name := row[0]
		if name == "" {
			continue
		}
		label := row[1]

		if isMissing(label) {
			a.States[name] = Missing
			continue
		}
		a.States[name] = a.Alphabet.Add(label)
	}

	if a.Alphabet.Len() == 0 {
		return nil, errors.New("annot: no observed states in annotation file")
	}
	return a, nil
}
