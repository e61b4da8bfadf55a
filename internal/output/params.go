// Copyright © 2024 The PASTML authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/js-arias/pastml/internal/annot"
	"github.com/js-arias/pastml/internal/model"
)

// WriteParams writes the optimized-parameters table: one column per
// equilibrium frequency (F81 only), plus scaling, epsilon, and the final
// log-likelihood, each as a header/value pair of rows.
func WriteParams(w io.Writer, kind model.Kind, alphabet *annot.Alphabet, freqs []float64, s, eps, logLike float64) error {
	tab := csv.NewWriter(w)

	header := make([]string, 0, alphabet.Len()+3)
	value := make([]string, 0, alphabet.Len()+3)
	if kind == model.F81 {
		for i := 0; i < alphabet.Len(); i++ {
			header = append(header, "freq_"+alphabet.Label(i))
			value = append(value, strconv.FormatFloat(freqs[i], 'g', -1, 64))
		}
	}
	header = append(header, "s", "epsilon", "log_likelihood")
	value = append(value,
		strconv.FormatFloat(s, 'g', -1, 64),
		strconv.FormatFloat(eps, 'g', -1, 64),
		strconv.FormatFloat(logLike, 'g', -1, 64),
	)

	if err := tab.Write(header); err != nil {
		return fmt.Errorf("output: write param header: %v", err)
	}
	if err := tab.Write(value); err != nil {
		return fmt.Errorf("output: write param row: %v", err)
	}

	tab.Flush()
	return tab.Error()
}
