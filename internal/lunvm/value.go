// Copyright 2026 The Lun Authors
// SPDX-License-Identifier: MIT

package lunvm

import (
	"fmt"

	"github.com/lunscript/lun/internal/luncode"
)

// Type is an enumeration of Lun data types.
type Type int

// Value types.
const (
	TypeNil      Type = 0
	TypeBoolean  Type = 1
	TypeNumber   Type = 2
	TypeString   Type = 3
	TypeTable    Type = 4
	TypeFunction Type = 5
)

// String returns the name of the type encoded by the value tp.
func (tp Type) String() string {
	switch tp {
	case TypeNil:
		return "nil"
	case TypeBoolean:
		return "boolean"
	case TypeNumber:
		return "number"
	case TypeString:
		return "string"
	case TypeTable:
		return "table"
	case TypeFunction:
		return "function"
	default:
		return fmt.Sprintf("lunvm.Type(%d)", int(tp))
	}
}

// valueType returns the [Type] of a runtime value.
// Values are represented as nil, bool, float64, string,
// *table, *closure, or *GoFunction.
func valueType(v any) Type {
	switch v.(type) {
	case nil:
		return TypeNil
	case bool:
		return TypeBoolean
	case float64:
		return TypeNumber
	case string:
		return TypeString
	case *table:
		return TypeTable
	case *closure, *GoFunction:
		return TypeFunction
	default:
		panic("unhandled type")
	}
}

// isTruthy reports whether a value counts as true in a condition.
// Only nil and false do not.
func isTruthy(v any) bool {
	switch v := v.(type) {
	case nil:
		return false
	case bool:
		return v
	default:
		return true
	}
}

// valuesEqual reports whether two values compare equal with ==.
// Values of different types are never equal;
// tables and functions compare by identity.
func valuesEqual(v1, v2 any) bool {
	switch v1 := v1.(type) {
	case nil:
		return v2 == nil
	case bool:
		b2, ok := v2.(bool)
		return ok && v1 == b2
	case float64:
		n2, ok := v2.(float64)
		return ok && v1 == n2
	case string:
		s2, ok := v2.(string)
		return ok && v1 == s2
	case *table:
		t2, ok := v2.(*table)
		return ok && v1 == t2
	case *closure:
		c2, ok := v2.(*closure)
		return ok && v1 == c2
	case *GoFunction:
		f2, ok := v2.(*GoFunction)
		return ok && v1 == f2
	default:
		panic("unhandled type")
	}
}

// ToString renders a value the way print and tostring do.
func ToString(v any) string {
	switch v := v.(type) {
	case nil:
		return "nil"
	case bool:
		if v {
			return "true"
		}
		return "false"
	case float64:
		return fmt.Sprintf("%.14g", v)
	case string:
		return v
	case *table:
		return fmt.Sprintf("table: %p", v)
	case *closure:
		return fmt.Sprintf("function: %p", v)
	case *GoFunction:
		return fmt.Sprintf("function: builtin: %s", v.name)
	default:
		panic("unhandled type")
	}
}

// closure is a function value compiled from Lun source.
// Each call gets a fresh set of local slots;
// nothing is captured from the enclosing function.
type closure struct {
	chunk *luncode.Chunk
}

// A GoFunction is a function implemented in Go
// and callable from Lun code.
type GoFunction struct {
	name string
	fn   func(args []any) ([]any, error)
}

// NewGoFunction wraps a Go function for use as a Lun value.
// The name is used in string renderings and error messages.
func NewGoFunction(name string, fn func(args []any) ([]any, error)) *GoFunction {
	return &GoFunction{name: name, fn: fn}
}

// Name returns the name the function was created with.
func (f *GoFunction) Name() string {
	return f.name
}
