// Copyright 2026 The Lun Authors
// SPDX-License-Identifier: MIT

/*
Package luncode compiles Lun source code into bytecode.

The compiler is single-pass: [Parse] reads tokens from the scanner and
emits instructions as it goes, without building a syntax tree. Forward
jumps are emitted as placeholders and patched in place once their
targets are known. The result is a [Chunk]: a flat [Instruction]
sequence plus the literal pools and function prototypes its
instructions refer to.

Jump operands are relative. An instruction's J operand is added to the
program counter after the instruction has been fetched, so an operand
of zero falls through to the next instruction.
*/
package luncode
