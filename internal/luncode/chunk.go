// Copyright 2026 The Lun Authors
// SPDX-License-Identifier: MIT

package luncode

import (
	"fmt"
	"strings"
)

// maxPoolSize is the number of entries a literal pool, the local
// slot space, or a chunk's nested function list may hold.
// Instruction operands index these with a single byte.
const maxPoolSize = 256

// Chunk is the compiled form of one function body
// (or of the top-level program).
// It is the contract between the compiler and the evaluator:
// the evaluator interprets Code purely positionally,
// resolving literal operands through the two pools
// and closure operands through Functions.
//
// A Chunk is append-only while it is being compiled
// and must be treated as immutable afterwards.
type Chunk struct {
	// Code is the instruction sequence.
	// The final instruction is always [OpReturn].
	Code []Instruction `json:"code"`
	// Numbers is the number literal pool, deduplicated by value.
	Numbers []float64 `json:"numbers,omitempty"`
	// Strings is the string literal pool, deduplicated by exact text.
	// Global variable names and field names are interned here too.
	Strings []string `json:"strings,omitempty"`
	// NumLocals is the high-water mark of local slots the chunk needs.
	// It never decreases when a scope exits.
	// Slot operands are one byte, so at most 256 bindings can be live;
	// the count itself does not fit in a byte.
	NumLocals uint16 `json:"numLocals,omitempty"`
	// Functions holds the chunks of function literals
	// defined directly inside this one, in declaration order.
	// An [OpClosure] operand is an index into this list.
	Functions []*Chunk `json:"functions,omitempty"`
}

// addNumber returns the pool index for the given number literal,
// appending it if not already present.
// ok is false if the pool is full.
func (c *Chunk) addNumber(n float64) (_ uint8, ok bool) {
	for i, existing := range c.Numbers {
		if existing == n {
			return uint8(i), true
		}
	}
	if len(c.Numbers) >= maxPoolSize {
		return 0, false
	}
	c.Numbers = append(c.Numbers, n)
	return uint8(len(c.Numbers) - 1), true
}

// addString returns the pool index for the given string literal,
// appending it if not already present.
// ok is false if the pool is full.
func (c *Chunk) addString(s string) (_ uint8, ok bool) {
	for i, existing := range c.Strings {
		if existing == s {
			return uint8(i), true
		}
	}
	if len(c.Strings) >= maxPoolSize {
		return 0, false
	}
	c.Strings = append(c.Strings, s)
	return uint8(len(c.Strings) - 1), true
}

// String returns a compact single-chunk listing for debugging.
// Nested functions are not expanded.
func (c *Chunk) String() string {
	sb := new(strings.Builder)
	fmt.Fprintf(sb, "chunk: %d locals, %d functions\n", c.NumLocals, len(c.Functions))
	for i, instr := range c.Code {
		fmt.Fprintf(sb, "\t%d\t%v\n", i, instr)
	}
	return sb.String()
}
