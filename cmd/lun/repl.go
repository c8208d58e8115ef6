// Copyright 2026 The Lun Authors
// SPDX-License-Identifier: MIT

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/lunscript/lun/internal/luncode"
	"github.com/lunscript/lun/internal/lunvm"
)

// runREPL reads statements from standard input a line at a time
// and executes them against a shared interpreter.
// When a line fails to compile because more input could complete it
// (an unfinished string or statement),
// the REPL keeps accumulating continuation lines;
// any other compile error is reported and the buffer discarded.
func runREPL(ctx context.Context, cfg *config) error {
	in := lunvm.New()
	scanner := bufio.NewScanner(os.Stdin)
	var buffer strings.Builder

	fmt.Print(cfg.Prompt)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Text()
		if buffer.Len() > 0 {
			buffer.WriteByte('\n')
		}
		buffer.WriteString(line)

		chunk, err := luncode.Parse(buffer.String())
		switch {
		case err == nil:
			buffer.Reset()
			if execErr := in.Execute(ctx, chunk); execErr != nil {
				if errors.Is(execErr, context.Canceled) {
					return execErr
				}
				fmt.Fprintln(os.Stderr, "lun:", execErr)
			}
			fmt.Print(cfg.Prompt)
		case recoverable(err) && line != "":
			fmt.Print(cfg.ContinuationPrompt)
		default:
			// A blank line gives up on an unfinished statement.
			buffer.Reset()
			fmt.Fprintln(os.Stderr, "lun:", err)
			fmt.Print(cfg.Prompt)
		}
	}
	return scanner.Err()
}

// recoverable reports whether a compile error could be fixed
// by more input on a following line.
func recoverable(err error) bool {
	var r interface{ Recoverable() bool }
	return errors.As(err, &r) && r.Recoverable()
}
