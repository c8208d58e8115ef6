// Copyright 2026 The Lun Authors
// SPDX-License-Identifier: MIT

package lunvm

import (
	"context"
	"io"
	"math"
	"os"

	"github.com/lunscript/lun/internal/luncode"
)

// maxCallDepth is the maximum nesting of function calls.
// A Lun function can reach itself through a global,
// so unbounded recursion is expressible.
const maxCallDepth = 200

// checkInterval is how many instructions run between checks
// for context cancellation.
const checkInterval = 1024

// An Interpreter executes compiled chunks against a shared
// global environment.
// It is not safe for concurrent use.
type Interpreter struct {
	globals map[string]any
	output  io.Writer
	steps   int
}

// New returns an [Interpreter] with the base library
// (print, type, tostring) registered
// and output directed to standard output.
func New() *Interpreter {
	in := &Interpreter{
		globals: make(map[string]any),
		output:  os.Stdout,
	}
	in.registerBaseLibrary()
	return in
}

// SetOutput redirects the output of print.
func (in *Interpreter) SetOutput(w io.Writer) {
	in.output = w
}

// Global returns the value of the named global variable,
// or nil if it has not been assigned.
func (in *Interpreter) Global(name string) any {
	return in.globals[name]
}

// SetGlobal assigns the named global variable.
// Assigning nil removes it.
func (in *Interpreter) SetGlobal(name string, v any) {
	if v == nil {
		delete(in.globals, name)
		return
	}
	in.globals[name] = v
}

// Execute runs a compiled chunk to completion.
// Globals assigned by the chunk persist in the interpreter,
// so successive chunks (as in a REPL) share an environment.
// Execution stops early if ctx is cancelled.
func (in *Interpreter) Execute(ctx context.Context, chunk *luncode.Chunk) error {
	_, err := in.call(ctx, chunk, 0)
	return err
}

// call executes one chunk in a fresh frame:
// its own value stack and its own local slots.
// Arguments are not bound (parameter lists are always empty)
// and a Lun function returns no values.
func (in *Interpreter) call(ctx context.Context, c *luncode.Chunk, depth int) ([]any, error) {
	if depth > maxCallDepth {
		return nil, &Error{Message: "call stack overflow"}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	locals := make([]any, frameSize(c))
	var stack []any
	var op luncode.OpCode

	push := func(v any) {
		stack = append(stack, v)
	}
	pop := func() (any, error) {
		if len(stack) == 0 {
			return nil, opError(op, "value stack underflow")
		}
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v, nil
	}
	// pop2 pops the top two values: y from the top, then x.
	pop2 := func() (x, y any, err error) {
		if y, err = pop(); err != nil {
			return nil, nil, err
		}
		x, err = pop()
		return x, y, err
	}
	stringAt := func(i uint8) (string, error) {
		if int(i) >= len(c.Strings) {
			return "", opError(op, "string literal %d out of range", i)
		}
		return c.Strings[i], nil
	}
	localSlot := func(i uint8) (int, error) {
		if int(i) >= len(locals) {
			return 0, opError(op, "local slot %d out of range", i)
		}
		return int(i), nil
	}

	for pc := 0; pc < len(c.Code); {
		in.steps++
		if in.steps%checkInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		instr := c.Code[pc]
		op = instr.OpCode()
		pc++

		switch op {
		case luncode.OpPop:
			if _, err := pop(); err != nil {
				return nil, err
			}
		case luncode.OpReturn:
			return nil, nil
		case luncode.OpJump:
			pc += instr.J()
		case luncode.OpBranchFalse:
			v, err := pop()
			if err != nil {
				return nil, err
			}
			if !isTruthy(v) {
				pc += instr.J()
			}
		case luncode.OpBranchTrue:
			v, err := pop()
			if err != nil {
				return nil, err
			}
			if isTruthy(v) {
				pc += instr.J()
			}
		case luncode.OpBranchFalseKeep:
			if len(stack) == 0 {
				return nil, opError(op, "value stack underflow")
			}
			if !isTruthy(stack[len(stack)-1]) {
				pc += instr.J()
			}
		case luncode.OpBranchTrueKeep:
			if len(stack) == 0 {
				return nil, opError(op, "value stack underflow")
			}
			if isTruthy(stack[len(stack)-1]) {
				pc += instr.J()
			}
		case luncode.OpPushNil:
			push(nil)
		case luncode.OpPushBool:
			push(instr.A() != 0)
		case luncode.OpPushNumber:
			if int(instr.A()) >= len(c.Numbers) {
				return nil, opError(op, "number literal %d out of range", instr.A())
			}
			push(c.Numbers[instr.A()])
		case luncode.OpPushString:
			s, err := stringAt(instr.A())
			if err != nil {
				return nil, err
			}
			push(s)
		case luncode.OpGetLocal:
			i, err := localSlot(instr.A())
			if err != nil {
				return nil, err
			}
			push(locals[i])
		case luncode.OpSetLocal:
			i, err := localSlot(instr.A())
			if err != nil {
				return nil, err
			}
			v, err := pop()
			if err != nil {
				return nil, err
			}
			locals[i] = v
		case luncode.OpGetGlobal:
			name, err := stringAt(instr.A())
			if err != nil {
				return nil, err
			}
			push(in.globals[name])
		case luncode.OpSetGlobal:
			name, err := stringAt(instr.A())
			if err != nil {
				return nil, err
			}
			v, err := pop()
			if err != nil {
				return nil, err
			}
			in.SetGlobal(name, v)
		case luncode.OpNewTable:
			push(newTable())
		case luncode.OpGetField:
			name, err := stringAt(instr.A())
			if err != nil {
				return nil, err
			}
			v, err := pop()
			if err != nil {
				return nil, err
			}
			t, ok := v.(*table)
			if !ok {
				return nil, opError(op, "attempt to index a %s value", typeName(v))
			}
			push(t.get(name))
		case luncode.OpInitField:
			name, err := stringAt(instr.A())
			if err != nil {
				return nil, err
			}
			v, err := pop()
			if err != nil {
				return nil, err
			}
			if len(stack) == 0 {
				return nil, opError(op, "value stack underflow")
			}
			t, ok := stack[len(stack)-1].(*table)
			if !ok {
				return nil, opError(op, "attempt to index a %s value", typeName(stack[len(stack)-1]))
			}
			if err := t.set(name, v); err != nil {
				return nil, err
			}
		case luncode.OpGetTable:
			v, key, err := pop2()
			if err != nil {
				return nil, err
			}
			t, ok := v.(*table)
			if !ok {
				return nil, opError(op, "attempt to index a %s value", typeName(v))
			}
			push(t.get(key))
		case luncode.OpSetField:
			value, err := pop()
			if err != nil {
				return nil, err
			}
			name, err := stringAt(instr.B())
			if err != nil {
				return nil, err
			}
			i := len(stack) - 1 - int(instr.A())
			if i < 0 {
				return nil, opError(op, "value stack underflow")
			}
			t, ok := stack[i].(*table)
			if !ok {
				return nil, opError(op, "attempt to index a %s value", typeName(stack[i]))
			}
			if err := t.set(name, value); err != nil {
				return nil, err
			}
			stack = append(stack[:i], stack[i+1:]...)
		case luncode.OpSetTable:
			value, err := pop()
			if err != nil {
				return nil, err
			}
			keyIndex := len(stack) - 1 - int(instr.A())
			tableIndex := keyIndex - 1
			if tableIndex < 0 {
				return nil, opError(op, "value stack underflow")
			}
			t, ok := stack[tableIndex].(*table)
			if !ok {
				return nil, opError(op, "attempt to index a %s value", typeName(stack[tableIndex]))
			}
			if err := t.set(stack[keyIndex], value); err != nil {
				return nil, err
			}
			stack = append(stack[:tableIndex], stack[keyIndex+1:]...)
		case luncode.OpClosure:
			if int(instr.A()) >= len(c.Functions) {
				return nil, opError(op, "function %d out of range", instr.A())
			}
			push(&closure{chunk: c.Functions[instr.A()]})
		case luncode.OpCall:
			numArgs := int(instr.A())
			calleeIndex := len(stack) - numArgs - 1
			if calleeIndex < 0 {
				return nil, opError(op, "value stack underflow")
			}
			callee := stack[calleeIndex]
			args := stack[len(stack)-numArgs:]

			var results []any
			var err error
			switch f := callee.(type) {
			case *closure:
				results, err = in.call(ctx, f.chunk, depth+1)
			case *GoFunction:
				results, err = f.fn(args)
			default:
				return nil, opError(op, "attempt to call a %s value", typeName(callee))
			}
			if err != nil {
				return nil, err
			}
			stack = stack[:calleeIndex]
			for i := range int(instr.B()) {
				if i < len(results) {
					push(results[i])
				} else {
					push(nil)
				}
			}
		case luncode.OpForPrep:
			start, stop, step, err := popForValues(pop)
			if err != nil {
				return nil, err
			}
			if step == 0 {
				return nil, opError(op, "'for' step is zero")
			}
			base := int(instr.A())
			if base+3 >= len(locals) {
				return nil, opError(op, "local slot %d out of range", base+3)
			}
			locals[base] = start
			locals[base+1] = stop
			locals[base+2] = step
			if forConditionHolds(start, stop, step) {
				locals[base+3] = start
			} else {
				pc += instr.J()
			}
		case luncode.OpForLoop:
			base := int(instr.A())
			if base+3 >= len(locals) {
				return nil, opError(op, "local slot %d out of range", base+3)
			}
			current, ok1 := locals[base].(float64)
			stop, ok2 := locals[base+1].(float64)
			step, ok3 := locals[base+2].(float64)
			if !ok1 || !ok2 || !ok3 {
				return nil, opError(op, "'for' control values corrupted")
			}
			current += step
			if forConditionHolds(current, stop, step) {
				locals[base] = current
				locals[base+3] = current
				pc += instr.J()
			}
		case luncode.OpAdd, luncode.OpSubtract, luncode.OpMultiply,
			luncode.OpDivide, luncode.OpMod, luncode.OpPow:
			x, y, err := pop2()
			if err != nil {
				return nil, err
			}
			xn, ok1 := x.(float64)
			yn, ok2 := y.(float64)
			if !ok1 {
				return nil, opError(op, "attempt to perform arithmetic on a %s value", typeName(x))
			}
			if !ok2 {
				return nil, opError(op, "attempt to perform arithmetic on a %s value", typeName(y))
			}
			push(arith(op, xn, yn))
		case luncode.OpConcat:
			x, y, err := pop2()
			if err != nil {
				return nil, err
			}
			xs, ok1 := x.(string)
			ys, ok2 := y.(string)
			if !ok1 {
				return nil, opError(op, "attempt to concatenate a %s value", typeName(x))
			}
			if !ok2 {
				return nil, opError(op, "attempt to concatenate a %s value", typeName(y))
			}
			push(xs + ys)
		case luncode.OpLess, luncode.OpLessEqual,
			luncode.OpGreater, luncode.OpGreaterEqual:
			x, y, err := pop2()
			if err != nil {
				return nil, err
			}
			xn, ok1 := x.(float64)
			yn, ok2 := y.(float64)
			if !ok1 || !ok2 {
				return nil, opError(op, "attempt to compare %s with %s", typeName(x), typeName(y))
			}
			push(compare(op, xn, yn))
		case luncode.OpEqual:
			x, y, err := pop2()
			if err != nil {
				return nil, err
			}
			push(valuesEqual(x, y))
		case luncode.OpNotEqual:
			x, y, err := pop2()
			if err != nil {
				return nil, err
			}
			push(!valuesEqual(x, y))
		case luncode.OpNot:
			v, err := pop()
			if err != nil {
				return nil, err
			}
			push(!isTruthy(v))
		case luncode.OpLength:
			v, err := pop()
			if err != nil {
				return nil, err
			}
			switch v := v.(type) {
			case string:
				push(float64(len(v)))
			case *table:
				push(float64(v.length()))
			default:
				return nil, opError(op, "attempt to get length of a %s value", typeName(v))
			}
		case luncode.OpNegate:
			v, err := pop()
			if err != nil {
				return nil, err
			}
			n, ok := v.(float64)
			if !ok {
				return nil, opError(op, "attempt to perform arithmetic on a %s value", typeName(v))
			}
			push(-n)
		default:
			return nil, opError(op, "invalid instruction")
		}
	}
	// The compiler always terminates a chunk with a return,
	// but an empty hand-built chunk is fine too.
	return nil, nil
}

// frameSize returns the number of local slots a frame for c needs.
// The chunk's declared count is a lower bound:
// the compiler numbers bindings across nested function bodies,
// so a function declared while enclosing locals are in scope
// references slots past its own NumLocals.
func frameSize(c *luncode.Chunk) int {
	n := int(c.NumLocals)
	for _, instr := range c.Code {
		switch instr.OpCode() {
		case luncode.OpGetLocal, luncode.OpSetLocal:
			if slot := int(instr.A()) + 1; slot > n {
				n = slot
			}
		case luncode.OpForPrep, luncode.OpForLoop:
			if slot := int(instr.A()) + 4; slot > n {
				n = slot
			}
		}
	}
	return n
}

// popForValues pops a numeric for loop's step, stop, and start values
// (in stack order) and checks each is a number.
func popForValues(pop func() (any, error)) (start, stop, step float64, err error) {
	stepValue, err := pop()
	if err != nil {
		return 0, 0, 0, err
	}
	stopValue, err := pop()
	if err != nil {
		return 0, 0, 0, err
	}
	startValue, err := pop()
	if err != nil {
		return 0, 0, 0, err
	}
	var ok bool
	if start, ok = startValue.(float64); !ok {
		return 0, 0, 0, opError(luncode.OpForPrep, "'for' initial value must be a number")
	}
	if stop, ok = stopValue.(float64); !ok {
		return 0, 0, 0, opError(luncode.OpForPrep, "'for' limit must be a number")
	}
	if step, ok = stepValue.(float64); !ok {
		return 0, 0, 0, opError(luncode.OpForPrep, "'for' step must be a number")
	}
	return start, stop, step, nil
}

// forConditionHolds reports whether a numeric for loop
// with the given control values runs (another) iteration.
func forConditionHolds(current, stop, step float64) bool {
	if step > 0 {
		return current <= stop
	}
	return current >= stop
}

func arith(op luncode.OpCode, x, y float64) float64 {
	switch op {
	case luncode.OpAdd:
		return x + y
	case luncode.OpSubtract:
		return x - y
	case luncode.OpMultiply:
		return x * y
	case luncode.OpDivide:
		return x / y
	case luncode.OpMod:
		return math.Mod(x, y)
	case luncode.OpPow:
		return math.Pow(x, y)
	default:
		panic("not an arithmetic opcode")
	}
}

func compare(op luncode.OpCode, x, y float64) bool {
	switch op {
	case luncode.OpLess:
		return x < y
	case luncode.OpLessEqual:
		return x <= y
	case luncode.OpGreater:
		return x > y
	case luncode.OpGreaterEqual:
		return x >= y
	default:
		panic("not a comparison opcode")
	}
}
