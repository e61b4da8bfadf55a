// Copyright © 2024 The PASTML authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package pastml

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/js-arias/pastml/internal/ancestral"
	"github.com/js-arias/pastml/internal/model"
	"github.com/js-arias/pastml/internal/pastmlerr"
)

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestRunEndToEndTwoTipJC(t *testing.T) {
	dir := t.TempDir()
	annotPath := writeTemp(t, dir, "in.csv", "A,0\nB,1\n")
	treePath := writeTemp(t, dir, "in.nwk", "(A:0.5,B:0.5);")

	opt := Options{
		AnnotPath:    annotPath,
		TreePath:     treePath,
		OutAnnotPath: filepath.Join(dir, "out.csv"),
		OutTreePath:  filepath.Join(dir, "out.nwk"),
		ParamPath:    filepath.Join(dir, "out.param.csv"),
		Model:        model.JC,
		Method:       ancestral.MarginalApprox,
		Scale:        true,
	}

	res, err := Run(opt)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if math.IsInf(res.LogLike, 0) || math.IsNaN(res.LogLike) {
		t.Errorf("log-likelihood = %v, want finite", res.LogLike)
	}
	for _, p := range []string{opt.OutAnnotPath, opt.OutTreePath, opt.ParamPath} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("expected output file %s: %v", p, err)
		}
	}
}

func TestRunMismatchedTipsIsBadInput(t *testing.T) {
	dir := t.TempDir()
	annotPath := writeTemp(t, dir, "in.csv", "A,0\nZ,1\n")
	treePath := writeTemp(t, dir, "in.nwk", "(A:0.5,B:0.5);")

	opt := Options{
		AnnotPath:    annotPath,
		TreePath:     treePath,
		OutAnnotPath: filepath.Join(dir, "out.csv"),
		OutTreePath:  filepath.Join(dir, "out.nwk"),
		Model:        model.JC,
		Method:       ancestral.MarginalApprox,
		Scale:        true,
	}

	_, err := Run(opt)
	var perr *pastmlerr.Error
	if err == nil {
		t.Fatal("expected error for mismatched tips")
	}
	if !asPastmlErr(err, &perr) || perr.Kind != pastmlerr.BadInput {
		t.Errorf("err = %v, want BadInput", err)
	}
}

func TestRunMissingFileIsNotFound(t *testing.T) {
	dir := t.TempDir()
	treePath := writeTemp(t, dir, "in.nwk", "(A:0.5,B:0.5);")

	opt := Options{
		AnnotPath:    filepath.Join(dir, "missing.csv"),
		TreePath:     treePath,
		OutAnnotPath: filepath.Join(dir, "out.csv"),
		OutTreePath:  filepath.Join(dir, "out.nwk"),
		Model:        model.JC,
		Method:       ancestral.MarginalApprox,
		Scale:        true,
	}

	_, err := Run(opt)
	var perr *pastmlerr.Error
	if err == nil {
		t.Fatal("expected error for missing annotation file")
	}
	if !asPastmlErr(err, &perr) || perr.Kind != pastmlerr.NotFound {
		t.Errorf("err = %v, want NotFound", err)
	}
}

func TestRunCollapseFloorsShortBranch(t *testing.T) {
	dir := t.TempDir()
	annotPath := writeTemp(t, dir, "in.csv", "A,0\nB,1\nC,0\n")
	treePath := writeTemp(t, dir, "in.nwk", "((A:0.0000001,B:0.1):0.1,C:0.2);")

	threshold := 1e-6
	opt := Options{
		AnnotPath:    annotPath,
		TreePath:     treePath,
		OutAnnotPath: filepath.Join(dir, "out.csv"),
		OutTreePath:  filepath.Join(dir, "out.nwk"),
		Model:        model.JC,
		Method:       ancestral.MarginalApprox,
		Scale:        true,
		Collapse:     &threshold,
	}

	if _, err := Run(opt); err != nil {
		t.Fatalf("run: %v", err)
	}
}

// starNewick builds a star tree with n tips named "t0".."t(n-1)", each
// with the given branch length.
func starNewick(n int, branchLen float64) string {
	var b strings.Builder
	b.WriteString("(")
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, "t%d:%s", i, strconv.FormatFloat(branchLen, 'f', -1, 64))
	}
	b.WriteString(");")
	return b.String()
}

func TestRunF81FrequencyRecovery(t *testing.T) {
	dir := t.TempDir()
	var csv strings.Builder
	for i := 0; i < 100; i++ {
		label := "0"
		if i >= 70 {
			label = "1"
		}
		fmt.Fprintf(&csv, "t%d,%s\n", i, label)
	}
	annotPath := writeTemp(t, dir, "in.csv", csv.String())
	treePath := writeTemp(t, dir, "in.nwk", starNewick(100, 1.0))

	opt := Options{
		AnnotPath:    annotPath,
		TreePath:     treePath,
		OutAnnotPath: filepath.Join(dir, "out.csv"),
		OutTreePath:  filepath.Join(dir, "out.nwk"),
		Model:        model.F81,
		Method:       ancestral.MarginalApprox,
		Scale:        true,
	}

	res, err := Run(opt)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if math.Abs(res.Freqs[0]-0.7) > 0.05 {
		t.Errorf("freq[0] = %v, want ~0.7", res.Freqs[0])
	}
	if math.Abs(res.Freqs[1]-0.3) > 0.05 {
		t.Errorf("freq[1] = %v, want ~0.3", res.Freqs[1])
	}
}

func TestRunScalingSensitivity(t *testing.T) {
	dir := t.TempDir()
	annotPath := writeTemp(t, dir, "in.csv", "A,0\nB,1\nC,0\nD,1\n")
	unscaledPath := writeTemp(t, dir, "unscaled.nwk", "((A:0.1,B:0.2):0.1,(C:0.15,D:0.1):0.2);")
	scaledPath := writeTemp(t, dir, "scaled.nwk", "((A:1.0,B:2.0):1.0,(C:1.5,D:1.0):2.0);")

	base := Options{
		AnnotPath:    annotPath,
		OutAnnotPath: filepath.Join(dir, "out1.csv"),
		OutTreePath:  filepath.Join(dir, "out1.nwk"),
		Model:        model.F81,
		Method:       ancestral.MarginalApprox,
		Scale:        true,
	}

	unscaledOpt := base
	unscaledOpt.TreePath = unscaledPath
	unscaledRes, err := Run(unscaledOpt)
	if err != nil {
		t.Fatalf("run unscaled: %v", err)
	}

	scaledOpt := base
	scaledOpt.TreePath = scaledPath
	scaledOpt.OutAnnotPath = filepath.Join(dir, "out2.csv")
	scaledOpt.OutTreePath = filepath.Join(dir, "out2.nwk")
	scaledRes, err := Run(scaledOpt)
	if err != nil {
		t.Fatalf("run scaled: %v", err)
	}

	ratio := scaledRes.S / unscaledRes.S
	if math.Abs(ratio-0.1) > 0.02 {
		t.Errorf("s ratio = %v, want ~0.1", ratio)
	}
	if math.Abs(scaledRes.LogLike-unscaledRes.LogLike) > 0.05 {
		t.Errorf("log-likelihoods differ: unscaled %v, scaled %v", unscaledRes.LogLike, scaledRes.LogLike)
	}
}

func asPastmlErr(err error, target **pastmlerr.Error) bool {
	if e, ok := err.(*pastmlerr.Error); ok {
		*target = e
		return true
	}
	return false
}
