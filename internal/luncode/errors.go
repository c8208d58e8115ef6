// Copyright 2026 The Lun Authors
// SPDX-License-Identifier: MIT

package luncode

import (
	"fmt"

	"github.com/lunscript/lun/internal/lunlex"
)

// ErrorKind identifies a class of compile error.
type ErrorKind int

// Compile error kinds.
const (
	// UnexpectedEOF indicates that the source ended
	// in the middle of a construct.
	UnexpectedEOF ErrorKind = 1 + iota
	// UnexpectedToken is a generic syntax error.
	UnexpectedToken
	// TooManyLocals indicates that a function declared
	// more local variables than the slot space allows.
	TooManyLocals
	// TooManyStrings indicates an overflowing string literal pool.
	TooManyStrings
	// TooManyNumbers indicates an overflowing number literal pool.
	TooManyNumbers
	// Complexity indicates that the source exceeds a structural limit:
	// nesting too deep, too many nested functions,
	// or an expression list too long.
	Complexity
	// Unsupported indicates syntax the language deliberately rejects.
	Unsupported
)

// String returns a short description of the error kind.
func (kind ErrorKind) String() string {
	switch kind {
	case UnexpectedEOF:
		return "unexpected <eof>"
	case UnexpectedToken:
		return "syntax error"
	case TooManyLocals:
		return "too many local variables"
	case TooManyStrings:
		return "too many literal strings"
	case TooManyNumbers:
		return "too many literal numbers"
	case Complexity:
		return "complexity limit exceeded"
	case Unsupported:
		return "unsupported feature"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(kind))
	}
}

// Error is a compile error at a position in the source.
// The first error encountered aborts the whole compile:
// [Parse] never returns a partial [Chunk] alongside an Error.
type Error struct {
	Kind     ErrorKind
	Position lunlex.Position
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %v", e.Position, e.Kind)
}

// Recoverable reports whether the error may simply indicate
// that interactive input is incomplete,
// so a caller reading line at a time can ask for more.
// Resource-limit and unsupported-feature errors are never recoverable.
func (e *Error) Recoverable() bool {
	return e.Kind == UnexpectedEOF || e.Kind == UnexpectedToken
}
