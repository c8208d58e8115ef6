// Copyright 2026 The Lun Authors
// SPDX-License-Identifier: MIT

package luncode

import "fmt"

// Instruction is a single virtual machine instruction,
// packed into 32 bits.
// The low byte holds the [OpCode];
// the layout of the remaining bits depends on the opcode's [OpMode].
//
// Jump operands are relative signed instruction counts,
// never absolute addresses:
// an offset of zero falls through to the next instruction,
// so the target index is the instruction's own index plus the offset plus one.
// This keeps a compiled chunk relocatable
// when it is nested into a parent's function list.
type Instruction uint32

const (
	posA = 8
	posB = 16
	posJ = 8

	// offsetJ biases the signed jump operand of an [OpModeJ] instruction.
	offsetJ = 1 << 23
	maxJ    = 1<<23 - 1
	minJ    = -1 << 23

	// offsetAJ biases the signed jump operand of an [OpModeAJ] instruction.
	offsetAJ = 1 << 15
	maxAJ    = 1<<15 - 1
	minAJ    = -1 << 15
)

// OpInstruction returns a new operand-less [Instruction].
// OpInstruction panics if the [OpCode] given
// does not return [OpModeNone] from [OpCode.OpMode].
func OpInstruction(op OpCode) Instruction {
	if op.OpMode() != OpModeNone {
		panic("OpInstruction with invalid OpCode")
	}
	return Instruction(op)
}

// AInstruction returns a new [OpModeA] [Instruction]
// with the given operand.
// AInstruction panics if the [OpCode] given
// does not return [OpModeA] from [OpCode.OpMode].
func AInstruction(op OpCode, a uint8) Instruction {
	if op.OpMode() != OpModeA {
		panic("AInstruction with invalid OpCode")
	}
	return Instruction(op) | Instruction(a)<<posA
}

// ABInstruction returns a new [OpModeAB] [Instruction]
// with the given operands.
// ABInstruction panics if the [OpCode] given
// does not return [OpModeAB] from [OpCode.OpMode].
func ABInstruction(op OpCode, a, b uint8) Instruction {
	if op.OpMode() != OpModeAB {
		panic("ABInstruction with invalid OpCode")
	}
	return Instruction(op) | Instruction(a)<<posA | Instruction(b)<<posB
}

// JInstruction returns a new [OpModeJ] (jump) [Instruction]
// with the given offset relative to the end of the instruction.
// JInstruction panics if the [OpCode] given
// does not return [OpModeJ] from [OpCode.OpMode],
// or if the offset does not fit in the operand.
func JInstruction(op OpCode, j int) Instruction {
	if op.OpMode() != OpModeJ {
		panic("JInstruction with invalid OpCode")
	}
	if j < minJ || j > maxJ {
		panic("jump offset out of range")
	}
	return Instruction(op) | Instruction(j+offsetJ)<<posJ
}

// AJInstruction returns a new [OpModeAJ] [Instruction]
// with the given local slot and relative offset.
// AJInstruction panics if the [OpCode] given
// does not return [OpModeAJ] from [OpCode.OpMode],
// or if the offset does not fit in the operand.
func AJInstruction(op OpCode, a uint8, j int) Instruction {
	if op.OpMode() != OpModeAJ {
		panic("AJInstruction with invalid OpCode")
	}
	if j < minAJ || j > maxAJ {
		panic("jump offset out of range")
	}
	return Instruction(op) | Instruction(a)<<posA | Instruction(j+offsetAJ)<<posB
}

// OpCode returns the instruction's type.
func (i Instruction) OpCode() OpCode {
	return OpCode(i & 0xff)
}

// A returns the instruction's first byte operand.
func (i Instruction) A() uint8 {
	return uint8(i >> posA)
}

// B returns the instruction's second byte operand.
func (i Instruction) B() uint8 {
	return uint8(i >> posB)
}

// J returns the instruction's relative jump offset.
func (i Instruction) J() int {
	switch i.OpCode().OpMode() {
	case OpModeJ:
		return int(i>>posJ) - offsetJ
	case OpModeAJ:
		return int(i>>posB) - offsetAJ
	default:
		return 0
	}
}

// String disassembles the instruction into a human-readable mnemonic.
func (i Instruction) String() string {
	op := i.OpCode()
	switch op.OpMode() {
	case OpModeA:
		return fmt.Sprintf("%v %d", op, i.A())
	case OpModeAB:
		return fmt.Sprintf("%v %d %d", op, i.A(), i.B())
	case OpModeJ:
		return fmt.Sprintf("%v %d", op, i.J())
	case OpModeAJ:
		return fmt.Sprintf("%v %d %d", op, i.A(), i.J())
	default:
		return op.String()
	}
}

// OpMode describes an [Instruction]'s operand layout.
type OpMode int

// Operand layouts.
const (
	// OpModeNone indicates an instruction with no operands.
	OpModeNone OpMode = iota
	// OpModeA indicates an instruction with one byte operand.
	OpModeA
	// OpModeAB indicates an instruction with two byte operands.
	OpModeAB
	// OpModeJ indicates an instruction with a signed relative jump operand.
	OpModeJ
	// OpModeAJ indicates an instruction with a byte operand
	// and a signed relative jump operand.
	OpModeAJ
)

// OpCode is an enumeration of [Instruction] types.
type OpCode uint8

// Opcodes. Comments describe the operands and stack effect;
// jump targets are relative as described on [Instruction].
const (
	// OpPop discards the top of the stack.
	OpPop OpCode = iota
	// OpReturn ends execution of the current function.
	OpReturn

	// OpJump (J) transfers control unconditionally.
	OpJump
	// OpBranchFalse (J) pops the top of the stack
	// and jumps if it is false or nil.
	OpBranchFalse
	// OpBranchTrue (J) pops the top of the stack
	// and jumps if it is neither false nor nil.
	OpBranchTrue
	// OpBranchFalseKeep (J) jumps if the top of the stack is false or nil,
	// without popping it.
	OpBranchFalseKeep
	// OpBranchTrueKeep (J) jumps if the top of the stack
	// is neither false nor nil, without popping it.
	OpBranchTrueKeep

	// OpPushNil pushes nil.
	OpPushNil
	// OpPushBool (A: 0 or 1) pushes a boolean.
	OpPushBool
	// OpPushNumber (A: number pool index) pushes a number literal.
	OpPushNumber
	// OpPushString (A: string pool index) pushes a string literal.
	OpPushString

	// OpGetLocal (A: slot) pushes the value of a local slot.
	OpGetLocal
	// OpSetLocal (A: slot) pops the top of the stack into a local slot.
	OpSetLocal
	// OpGetGlobal (A: string pool index) pushes the value of a global.
	OpGetGlobal
	// OpSetGlobal (A: string pool index) pops the top of the stack
	// into a global.
	OpSetGlobal

	// OpNewTable pushes a new empty table.
	OpNewTable
	// OpGetField (A: string pool index) pops a table
	// and pushes the value of its field.
	OpGetField
	// OpSetField (A: stack offset, B: string pool index)
	// pops a value and stores it into a field of the table
	// that sits A slots below the new stack top;
	// the table is removed from the stack.
	OpSetField
	// OpInitField (A: string pool index) pops a value
	// and stores it into a field of the table left at the top of the stack.
	OpInitField
	// OpGetTable pops a key, then a table,
	// and pushes the value of the table at the key.
	OpGetTable
	// OpSetTable (A: stack offset) pops a value and stores it
	// into the table at the key that together sit A slots below
	// the new stack top; both are removed from the stack.
	OpSetTable

	// OpClosure (A: function list index) pushes a closure
	// over the chunk's A'th nested function.
	OpClosure
	// OpCall (A: argument count, B: result count)
	// pops A arguments and then the callee,
	// invokes it, and pushes B results.
	OpCall

	// OpForPrep (A: base slot, J: body length)
	// pops step, stop, and start values into the loop's control slots
	// (A: current, A+1: stop, A+2: step, A+3: visible variable)
	// and jumps past the loop body if the loop runs zero times.
	OpForPrep
	// OpForLoop (A: base slot, J: negated body length)
	// advances the loop's control slots
	// and jumps back to the start of the body while the loop continues.
	OpForLoop

	// Binary operators.
	// Each pops two operands and pushes one result.

	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpMod
	OpPow
	OpConcat
	OpLess
	OpLessEqual
	OpGreater
	OpGreaterEqual
	OpEqual
	OpNotEqual

	// Unary operators.
	// Each pops one operand and pushes one result.

	OpNot
	OpLength
	OpNegate

	numOpCodes = iota
)

var opModes = [numOpCodes]OpMode{
	OpPop:             OpModeNone,
	OpReturn:          OpModeNone,
	OpJump:            OpModeJ,
	OpBranchFalse:     OpModeJ,
	OpBranchTrue:      OpModeJ,
	OpBranchFalseKeep: OpModeJ,
	OpBranchTrueKeep:  OpModeJ,
	OpPushNil:         OpModeNone,
	OpPushBool:        OpModeA,
	OpPushNumber:      OpModeA,
	OpPushString:      OpModeA,
	OpGetLocal:        OpModeA,
	OpSetLocal:        OpModeA,
	OpGetGlobal:       OpModeA,
	OpSetGlobal:       OpModeA,
	OpNewTable:        OpModeNone,
	OpGetField:        OpModeA,
	OpSetField:        OpModeAB,
	OpInitField:       OpModeA,
	OpGetTable:        OpModeNone,
	OpSetTable:        OpModeA,
	OpClosure:         OpModeA,
	OpCall:            OpModeAB,
	OpForPrep:         OpModeAJ,
	OpForLoop:         OpModeAJ,
	OpAdd:             OpModeNone,
	OpSubtract:        OpModeNone,
	OpMultiply:        OpModeNone,
	OpDivide:          OpModeNone,
	OpMod:             OpModeNone,
	OpPow:             OpModeNone,
	OpConcat:          OpModeNone,
	OpLess:            OpModeNone,
	OpLessEqual:       OpModeNone,
	OpGreater:         OpModeNone,
	OpGreaterEqual:    OpModeNone,
	OpEqual:           OpModeNone,
	OpNotEqual:        OpModeNone,
	OpNot:             OpModeNone,
	OpLength:          OpModeNone,
	OpNegate:          OpModeNone,
}

var opNames = [numOpCodes]string{
	OpPop:             "POP",
	OpReturn:          "RETURN",
	OpJump:            "JUMP",
	OpBranchFalse:     "BRANCHFALSE",
	OpBranchTrue:      "BRANCHTRUE",
	OpBranchFalseKeep: "BRANCHFALSEKEEP",
	OpBranchTrueKeep:  "BRANCHTRUEKEEP",
	OpPushNil:         "PUSHNIL",
	OpPushBool:        "PUSHBOOL",
	OpPushNumber:      "PUSHNUM",
	OpPushString:      "PUSHSTR",
	OpGetLocal:        "GETLOCAL",
	OpSetLocal:        "SETLOCAL",
	OpGetGlobal:       "GETGLOBAL",
	OpSetGlobal:       "SETGLOBAL",
	OpNewTable:        "NEWTABLE",
	OpGetField:        "GETFIELD",
	OpSetField:        "SETFIELD",
	OpInitField:       "INITFIELD",
	OpGetTable:        "GETTABLE",
	OpSetTable:        "SETTABLE",
	OpClosure:         "CLOSURE",
	OpCall:            "CALL",
	OpForPrep:         "FORPREP",
	OpForLoop:         "FORLOOP",
	OpAdd:             "ADD",
	OpSubtract:        "SUB",
	OpMultiply:        "MUL",
	OpDivide:          "DIV",
	OpMod:             "MOD",
	OpPow:             "POW",
	OpConcat:          "CONCAT",
	OpLess:            "LT",
	OpLessEqual:       "LE",
	OpGreater:         "GT",
	OpGreaterEqual:    "GE",
	OpEqual:           "EQ",
	OpNotEqual:        "NE",
	OpNot:             "NOT",
	OpLength:          "LEN",
	OpNegate:          "NEG",
}

// IsValid reports whether op is a known opcode.
func (op OpCode) IsValid() bool {
	return op < numOpCodes
}

// OpMode returns the operand layout of the opcode.
func (op OpCode) OpMode() OpMode {
	if !op.IsValid() {
		return OpModeNone
	}
	return opModes[op]
}

// String returns the opcode's mnemonic.
func (op OpCode) String() string {
	if !op.IsValid() {
		return fmt.Sprintf("OpCode(%d)", uint8(op))
	}
	return opNames[op]
}
