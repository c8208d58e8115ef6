// Copyright 2026 The Lun Authors
// SPDX-License-Identifier: MIT

package lunvm

import (
	"fmt"

	"github.com/lunscript/lun/internal/luncode"
)

// Error is a runtime error raised while executing a chunk.
type Error struct {
	// Op is the instruction that failed, when known.
	Op luncode.OpCode
	// HasOp reports whether Op is meaningful.
	HasOp   bool
	Message string
}

func (e *Error) Error() string {
	if e.HasOp {
		return fmt.Sprintf("runtime error: %v: %s", e.Op, e.Message)
	}
	return "runtime error: " + e.Message
}

// opError constructs an [Error] for a failed instruction.
func opError(op luncode.OpCode, format string, args ...any) *Error {
	return &Error{Op: op, HasOp: true, Message: fmt.Sprintf(format, args...)}
}

// typeName names a value's type for an error message.
func typeName(v any) string {
	return valueType(v).String()
}
