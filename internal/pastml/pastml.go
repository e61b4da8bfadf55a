// Copyright © 2024 The PASTML authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package pastml orchestrates a single ancestral-state reconstruction
// invocation: it wires together internal/annot, internal/newick,
// internal/model, internal/likelihood, internal/optimize,
// internal/ancestral, and internal/output in the strict sequential order
// §5 specifies, and classifies every failure through internal/pastmlerr.
//
// The shape of Run (open inputs, validate, build in-memory structures,
// run the algorithm, write outputs, return a single classified error) is
// grounded on github.com/js-arias/phygeo's cmd/phygeo/infer/difflike
// package's run function.
package pastml

import (
	"fmt"
	"math"
	"os"

	"github.com/js-arias/pastml/internal/ancestral"
	"github.com/js-arias/pastml/internal/annot"
	"github.com/js-arias/pastml/internal/likelihood"
	"github.com/js-arias/pastml/internal/model"
	"github.com/js-arias/pastml/internal/newick"
	"github.com/js-arias/pastml/internal/optimize"
	"github.com/js-arias/pastml/internal/output"
	"github.com/js-arias/pastml/internal/pastmlerr"
	"github.com/js-arias/pastml/internal/tree"
)

// Options holds one invocation's parsed arguments.
type Options struct {
	AnnotPath    string
	TreePath     string
	OutAnnotPath string
	OutTreePath  string
	ParamPath    string

	Model  model.Kind
	Method ancestral.Method

	// Scale enables branch-length scaling optimization (§6 -s); when
	// false, s is held fixed at 1.
	Scale bool

	// Collapse, when non-nil, is the branch-length floor (10^-B) applied
	// before optimization; nil means no collapse.
	Collapse *float64
}

// Result summarizes a completed run, for logging or testing.
type Result struct {
	Freqs   []float64
	S       float64
	Epsilon float64
	LogLike float64
}

// Run executes the full pipeline described in §5 and writes the state,
// tree, and parameter output files. Any failure is returned as a
// *pastmlerr.Error.
func Run(opt Options) (Result, error) {
	annotFile, err := os.Open(opt.AnnotPath)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{}, pastmlerr.New(pastmlerr.NotFound, err)
		}
		return Result{}, pastmlerr.New(pastmlerr.BadInput, err)
	}
	defer annotFile.Close()

	a, err := annot.ReadCSV(annotFile)
	if err != nil {
		return Result{}, pastmlerr.New(pastmlerr.BadInput, err)
	}

	info, err := os.Stat(opt.TreePath)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{}, pastmlerr.New(pastmlerr.NotFound, err)
		}
		return Result{}, pastmlerr.New(pastmlerr.BadInput, err)
	}
	if info.Size() > newick.MaxTreeLength {
		return Result{}, pastmlerr.New(pastmlerr.TooLarge, fmt.Errorf("pastml: tree file %q exceeds %d bytes", opt.TreePath, newick.MaxTreeLength))
	}

	treeFile, err := os.Open(opt.TreePath)
	if err != nil {
		return Result{}, pastmlerr.New(pastmlerr.NotFound, err)
	}
	defer treeFile.Close()

	t, err := newick.Read(treeFile, a.Alphabet.Len())
	if err != nil {
		return Result{}, pastmlerr.New(pastmlerr.BadInput, err)
	}

	if err := checkTipsMatch(t, a); err != nil {
		return Result{}, pastmlerr.New(pastmlerr.BadInput, err)
	}

	if opt.Collapse != nil {
		t.Collapse(*opt.Collapse)
	}

	if err := likelihood.InitTips(t, a); err != nil {
		return Result{}, pastmlerr.New(pastmlerr.BadInput, err)
	}

	bounds := optimize.DeriveBounds(t.AvgBranchLen, t.MinBranchLen, t.AvgTipBranchLen)
	initS := 1.0
	if opt.Scale {
		initS = optimize.InitialS(t.AvgBranchLen)
	}
	initEps := optimize.InitialEpsilon(t.MinBranchLen)
	initFreqs := model.UniformFreqs(a.Alphabet.Len())

	eval := func(freqs []float64, s, eps float64) float64 {
		ll, err := likelihood.BottomUp(t, freqs, s, eps)
		if err != nil {
			return math.Inf(1)
		}
		return -ll
	}

	initLogLike, err := likelihood.BottomUp(t, initFreqs, initS, initEps)
	if err != nil {
		return Result{}, pastmlerr.New(pastmlerr.NumericFailure, err)
	}

	var res optimize.Result
	if initLogLike >= 0 {
		// Already at the maximum possible log-likelihood (log(1) = 0,
		// every tip and internal state concordant): optimization
		// cannot improve on this, so it is skipped.
		res = optimize.Result{Freqs: initFreqs, S: initS, Epsilon: initEps, LogLike: initLogLike}
	} else {
		res = optimize.Run(t, opt.Model, initFreqs, initS, initEps, bounds, opt.Scale, eval)
	}

	finalLogLike, err := likelihood.BottomUp(t, res.Freqs, res.S, res.Epsilon)
	if err != nil {
		return Result{}, pastmlerr.New(pastmlerr.NumericFailure, err)
	}
	likelihood.TopDown(t, res.Freqs)
	likelihood.Marginal(t)
	ancestral.Select(t, opt.Method, res.Freqs)

	if err := writeOutputs(opt, t, a, res, finalLogLike); err != nil {
		return Result{}, pastmlerr.New(pastmlerr.BadInput, err)
	}

	return Result{Freqs: res.Freqs, S: res.S, Epsilon: res.Epsilon, LogLike: finalLogLike}, nil
}

// checkTipsMatch verifies that every tip in the tree has a corresponding
// entry in the annotation table (possibly Missing) and vice versa.
func checkTipsMatch(t *tree.Tree, a *annot.Annotation) error {
	treeTips := make(map[string]bool)
	for _, n := range t.Nodes {
		if !n.IsTip() {
			continue
		}
		treeTips[n.Name] = true
		if _, ok := a.States[n.Name]; !ok {
			return fmt.Errorf("pastml: tip %q in tree has no annotation", n.Name)
		}
	}
	for name := range a.States {
		if !treeTips[name] {
			return fmt.Errorf("pastml: annotation %q has no matching tip in tree", name)
		}
	}
	return nil
}

func writeOutputs(opt Options, t *tree.Tree, a *annot.Annotation, res optimize.Result, logLike float64) error {
	statesFile, err := os.Create(opt.OutAnnotPath)
	if err != nil {
		return err
	}
	defer statesFile.Close()
	if err := output.WriteStates(statesFile, t, a.Alphabet); err != nil {
		return err
	}

	treeFile, err := os.Create(opt.OutTreePath)
	if err != nil {
		return err
	}
	defer treeFile.Close()
	if err := output.WriteTree(treeFile, t, res.S, res.Epsilon); err != nil {
		return err
	}

	if opt.ParamPath == "" {
		return nil
	}
	paramFile, err := os.Create(opt.ParamPath)
	if err != nil {
		return err
	}
	defer paramFile.Close()
	return output.WriteParams(paramFile, opt.Model, a.Alphabet, res.Freqs, res.S, res.Epsilon, logLike)
}
