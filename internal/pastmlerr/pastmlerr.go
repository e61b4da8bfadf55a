// Copyright © 2024 The PASTML authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package pastmlerr classifies the errors the pipeline can raise into the
// kinds named in §7, and maps each kind to a process exit code, following
// the style of github.com/js-arias/command's UsageError (a distinguished
// error type the CLI layer type-switches on to pick an exit code) rather
// than stdlib's bare os.Exit(1).
package pastmlerr

import "syscall"

// Kind classifies a pipeline failure.
type Kind int

const (
	// BadInput covers malformed arguments, an unknown model or
	// selection method, malformed CSV, or a tip/tree name mismatch.
	BadInput Kind = iota

	// NotFound covers a missing input file.
	NotFound

	// TooLarge covers a Newick file exceeding the size bound.
	TooLarge

	// OutOfMemory covers allocation failure.
	OutOfMemory

	// NumericFailure covers a bottom-up pass yielding a non-finite or
	// all-zero conditional likelihood at some node.
	NumericFailure
)

// Exit codes. `original_source/main.c` exits with the real POSIX errno
// values (`<errno.h>`'s EINVAL, ENOENT, EFBIG, ENOMEM), so these reuse
// syscall's own constants rather than inventing small integers that would
// either collide with unrelated errnos or merely coincide with them.
const (
	EINVAL = int(syscall.EINVAL)
	ENOENT = int(syscall.ENOENT)
	EFBIG  = int(syscall.EFBIG)
	ENOMEM = int(syscall.ENOMEM)

	// ENUMERIC is pastml's own status for NumericFailure: §6 does not
	// list an errno for it, and no real POSIX errno means "non-finite
	// likelihood", so this is not claimed to be one.
	ENUMERIC = 5
)

func (k Kind) String() string {
	switch k {
	case BadInput:
		return "BadInput"
	case NotFound:
		return "NotFound"
	case TooLarge:
		return "TooLarge"
	case OutOfMemory:
		return "OutOfMemory"
	case NumericFailure:
		return "NumericFailure"
	default:
		return "unknown"
	}
}

// Error is a classified pipeline error.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New wraps err with the given kind.
func New(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// ExitCode returns the process exit code for kind.
func (k Kind) ExitCode() int {
	switch k {
	case BadInput:
		return EINVAL
	case NotFound:
		return ENOENT
	case TooLarge:
		return EFBIG
	case OutOfMemory:
		return ENOMEM
	case NumericFailure:
		return ENUMERIC
	default:
		return EINVAL
	}
}
