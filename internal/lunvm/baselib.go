// Copyright 2026 The Lun Authors
// SPDX-License-Identifier: MIT

package lunvm

import (
	"fmt"
	"strings"
)

// registerBaseLibrary installs the built-in global functions.
func (in *Interpreter) registerBaseLibrary() {
	in.SetGlobal("print", NewGoFunction("print", in.printFunction))
	in.SetGlobal("type", NewGoFunction("type", typeFunction))
	in.SetGlobal("tostring", NewGoFunction("tostring", tostringFunction))
}

// printFunction writes its arguments to the interpreter's output,
// separated by tabs and terminated by a newline.
func (in *Interpreter) printFunction(args []any) ([]any, error) {
	sb := new(strings.Builder)
	for i, arg := range args {
		if i > 0 {
			sb.WriteByte('\t')
		}
		sb.WriteString(ToString(arg))
	}
	sb.WriteByte('\n')
	if _, err := fmt.Fprint(in.output, sb.String()); err != nil {
		return nil, fmt.Errorf("print: %w", err)
	}
	return nil, nil
}

// typeFunction returns the name of its argument's type.
func typeFunction(args []any) ([]any, error) {
	if len(args) == 0 {
		return nil, &Error{Message: "bad argument #1 to 'type' (value expected)"}
	}
	return []any{valueType(args[0]).String()}, nil
}

// tostringFunction renders its argument as a string.
func tostringFunction(args []any) ([]any, error) {
	if len(args) == 0 {
		return nil, &Error{Message: "bad argument #1 to 'tostring' (value expected)"}
	}
	return []any{ToString(args[0])}, nil
}
