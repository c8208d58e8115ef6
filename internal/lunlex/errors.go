// Copyright 2026 The Lun Authors
// SPDX-License-Identifier: MIT

package lunlex

import "fmt"

// ErrorKind identifies a class of lexical error.
type ErrorKind int

// Lexical error kinds.
const (
	// InvalidCharacter indicates a byte that cannot start a token.
	InvalidCharacter ErrorKind = 1 + iota
	// MalformedNumber indicates an invalid numeric constant.
	MalformedNumber
	// UnfinishedString indicates a string literal
	// interrupted by a newline or the end of the source.
	UnfinishedString
)

// String returns a short description of the error kind.
func (kind ErrorKind) String() string {
	switch kind {
	case InvalidCharacter:
		return "invalid character"
	case MalformedNumber:
		return "malformed number"
	case UnfinishedString:
		return "unfinished string"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(kind))
	}
}

// Error is a lexical error at a position in the source.
type Error struct {
	Kind     ErrorKind
	Position Position
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %v", e.Position, e.Kind)
}

// Recoverable reports whether the error may simply indicate
// that interactive input is incomplete.
// An unfinished string at the end of a line can be continued
// by reading more input.
func (e *Error) Recoverable() bool {
	return e.Kind == UnfinishedString
}
