// Copyright © 2024 The PASTML authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package pastmlerr

import (
	"errors"
	"testing"
)

func TestExitCodes(t *testing.T) {
	cases := []struct {
		kind Kind
		want int
	}{
		{BadInput, EINVAL},
		{NotFound, ENOENT},
		{TooLarge, EFBIG},
		{OutOfMemory, ENOMEM},
		{NumericFailure, ENUMERIC},
	}
	for _, c := range cases {
		if got := c.kind.ExitCode(); got != c.want {
			t.Errorf("%v.ExitCode() = %d, want %d", c.kind, got, c.want)
		}
	}
}

func TestUnwrap(t *testing.T) {
	inner := errors.New("boom")
	e := New(BadInput, inner)
	if !errors.Is(e, inner) {
		t.Errorf("errors.Is(e, inner) = false, want true")
	}
}
