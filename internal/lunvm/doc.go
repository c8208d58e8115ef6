// Copyright 2026 The Lun Authors
// SPDX-License-Identifier: MIT

// Package lunvm executes chunks compiled by the luncode package.
//
// The interpreter is a straightforward stack machine:
// each function call gets a frame with its own value stack
// and a fixed number of local variable slots,
// and instructions push and pop values as described
// in the luncode package's opcode documentation.
// Globals live in a per-interpreter environment
// that persists across chunks.
package lunvm
