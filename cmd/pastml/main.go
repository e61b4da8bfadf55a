// Copyright © 2024 The PASTML authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Pastml reconstructs ancestral discrete-character states on a rooted
// phylogenetic tree using maximum-likelihood models of character
// evolution.
package main

import (
	"fmt"
	"math"
	"os"

	"github.com/js-arias/command"

	"github.com/js-arias/pastml/internal/ancestral"
	"github.com/js-arias/pastml/internal/model"
	"github.com/js-arias/pastml/internal/pastml"
	"github.com/js-arias/pastml/internal/pastmlerr"
)

var app = &command.Command{
	Usage: `pastml -a <annotation-file> -t <tree-file>
	[-o <output-annotation-file>] [-n <output-tree-file>]
	[-m <model>] [-M <method>] [-s <T|F>] [-B <threshold>]
	[-p <output-parameter-file>]`,
	Short: "reconstruct ancestral states on a phylogenetic tree",
	Long: `
Command pastml reads a tree in Newick format and a table of observed tip
states, and reconstructs the marginal and selected ancestral states at every
internal node using a maximum-likelihood substitution model (Jukes-Cantor or
Felsenstein-1981).

The flag -a gives the annotation file (required): a CSV table with two
unnamed columns, tip name and observed state label; an empty label or "?"
marks a tip as missing.

The flag -t gives the input tree file (required): a single Newick expression.

The flag -o sets the output annotation path; by default it is the input
annotation path with ".pastml.out.csv" appended. The flag -n sets the output
tree path; by default it is the input tree path with ".pastml.out.nwk"
appended. The flag -p, if given, also writes the optimized model parameters
(frequencies, scaling, epsilon, and the final log-likelihood) to the given
path.

The flag -m selects the substitution model, either "JC" (Jukes-Cantor,
default) or "F81" (Felsenstein-1981, with optimized equilibrium
frequencies).

The flag -M selects the state-selection policy: "marginal_approx"
(default), "marginal", "max_posteriori", or "joint".

The flag -s turns branch-length scaling optimization on ("T", default) or
off ("F").

The flag -B, if given, collapses (floors) any branch shorter than 10^-B to
that threshold before optimization.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var (
	annotPath   string
	treePath    string
	outAnnot    string
	outTree     string
	outParam    string
	modelFlag   string
	methodFlag  string
	scaleFlag   string
	collapseB   float64
	hasCollapse bool
)

func setFlags(c *command.Command) {
	c.Flags().StringVar(&annotPath, "a", "", "")
	c.Flags().StringVar(&treePath, "t", "", "")
	c.Flags().StringVar(&outAnnot, "o", "", "")
	c.Flags().StringVar(&outTree, "n", "", "")
	c.Flags().StringVar(&outParam, "p", "", "")
	c.Flags().StringVar(&modelFlag, "m", "JC", "")
	c.Flags().StringVar(&methodFlag, "M", "marginal_approx", "")
	c.Flags().StringVar(&scaleFlag, "s", "T", "")
	c.Flags().Func("B", "", func(s string) error {
		var v float64
		if _, err := fmt.Sscanf(s, "%g", &v); err != nil {
			return fmt.Errorf("bad -B value %q", s)
		}
		collapseB = v
		hasCollapse = true
		return nil
	})
}

func run(c *command.Command, args []string) error {
	if annotPath == "" {
		return c.UsageError("expecting annotation file (-a)")
	}
	if treePath == "" {
		return c.UsageError("expecting tree file (-t)")
	}

	kind, ok := model.ParseKind(modelFlag)
	if !ok {
		return c.UsageError(fmt.Sprintf("unknown model %q", modelFlag))
	}
	method, ok := ancestral.ParseMethod(methodFlag)
	if !ok {
		return c.UsageError(fmt.Sprintf("unknown method %q", methodFlag))
	}
	var scale bool
	switch scaleFlag {
	case "T":
		scale = true
	case "F":
		scale = false
	default:
		return c.UsageError(fmt.Sprintf("unknown value %q for -s, expecting T or F", scaleFlag))
	}

	opt := pastml.Options{
		AnnotPath:    annotPath,
		TreePath:     treePath,
		OutAnnotPath: outAnnot,
		OutTreePath:  outTree,
		ParamPath:    outParam,
		Model:        kind,
		Method:       method,
		Scale:        scale,
	}
	if opt.OutAnnotPath == "" {
		opt.OutAnnotPath = annotPath + ".pastml.out.csv"
	}
	if opt.OutTreePath == "" {
		opt.OutTreePath = treePath + ".pastml.out.nwk"
	}
	if hasCollapse {
		threshold := math.Pow(10, -collapseB)
		opt.Collapse = &threshold
	}

	res, err := pastml.Run(opt)
	if err != nil {
		if perr, ok := err.(*pastmlerr.Error); ok {
			fmt.Fprintf(os.Stderr, "pastml: %v\n", perr)
			os.Exit(perr.Kind.ExitCode())
		}
		return err
	}

	fmt.Fprintf(os.Stderr, "pastml: log-likelihood = %.6f, s = %.6f, epsilon = %.6g\n", res.LogLike, res.S, res.Epsilon)
	return nil
}

func main() {
	app.Main()
}
