// Copyright 2026 The Lun Authors
// SPDX-License-Identifier: MIT

// Package lunc provides a Cobra command for the Lun compiler.
// It compiles source files to chunks without executing them,
// with optional bytecode listings and a JSON dump of the result.
package lunc

import (
	"fmt"
	"os"
	"strconv"

	jsonv2 "github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/lunscript/lun/internal/luncode"
)

type options struct {
	inputFilenames []string
	outputFilename string
	list           int
	parseOnly      bool
	jsonDump       bool
}

// New returns a new lunc command.
func New() *cobra.Command {
	c := &cobra.Command{
		Use:                   "lunc [options] FILE [...]",
		Short:                 "lun compiler",
		Args:                  cobra.MinimumNArgs(1),
		DisableFlagsInUseLine: true,
		SilenceErrors:         true,
		SilenceUsage:          true,
	}
	opts := new(options)
	c.Flags().CountVarP(&opts.list, "list", "l", "produce a listing of compiled bytecode (give twice to include pools)")
	c.Flags().BoolVarP(&opts.parseOnly, "parse-only", "p", false, "compile without writing output")
	c.Flags().BoolVar(&opts.jsonDump, "json", false, "write compiled chunks as JSON")
	c.Flags().StringVarP(&opts.outputFilename, "output", "o", "-", "write JSON output to `filename` instead of standard output")
	c.RunE = func(cmd *cobra.Command, args []string) error {
		opts.inputFilenames = args
		return run(cmd, opts)
	}
	return c
}

func run(cmd *cobra.Command, opts *options) error {
	// Compile each file on its own goroutine.
	// Chunks land in input order regardless of completion order.
	chunks := make([]*luncode.Chunk, len(opts.inputFilenames))
	grp, grpCtx := errgroup.WithContext(cmd.Context())
	for i, filename := range opts.inputFilenames {
		grp.Go(func() error {
			if err := grpCtx.Err(); err != nil {
				return err
			}
			source, err := os.ReadFile(filename)
			if err != nil {
				return err
			}
			chunk, err := luncode.Parse(string(source))
			if err != nil {
				return fmt.Errorf("%s: %w", filename, err)
			}
			chunks[i] = chunk
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return err
	}

	if opts.list > 0 {
		for i, chunk := range chunks {
			names := make(map[*luncode.Chunk]string)
			nameFunctions(names, chunk)
			printChunk(opts.inputFilenames[i], chunk, names, opts.list > 1)
		}
	}
	if opts.parseOnly || !opts.jsonDump {
		return nil
	}

	dump := make(map[string]*luncode.Chunk, len(chunks))
	for i, chunk := range chunks {
		dump[opts.inputFilenames[i]] = chunk
	}
	out := os.Stdout
	if opts.outputFilename != "-" {
		f, err := os.Create(opts.outputFilename)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	return jsonv2.MarshalWrite(out, dump, jsontext.WithIndent("\t"))
}

// printChunk writes a human-readable listing of a chunk
// and its nested functions to standard output.
func printChunk(source string, c *luncode.Chunk, names map[*luncode.Chunk]string, full bool) {
	fmt.Printf(
		"\n%s <%s> (%d instructions, %d locals, %d numbers, %d strings, %d functions)\n",
		names[c], source, len(c.Code), c.NumLocals, len(c.Numbers), len(c.Strings), len(c.Functions),
	)
	for pc, instr := range c.Code {
		fmt.Printf("\t%d\t%v%s\n", pc, instr, instructionComment(c, pc, instr, names))
	}

	if full {
		fmt.Printf("numbers (%d) for %s\n", len(c.Numbers), names[c])
		for i, n := range c.Numbers {
			fmt.Printf("\t%d\t%v\n", i, n)
		}
		fmt.Printf("strings (%d) for %s\n", len(c.Strings), names[c])
		for i, s := range c.Strings {
			fmt.Printf("\t%d\t%s\n", i, strconv.Quote(s))
		}
	}

	for _, f := range c.Functions {
		printChunk(source, f, names, full)
	}
}

// instructionComment renders the trailing "; ..." context
// for operands that reference a pool or a code position.
func instructionComment(c *luncode.Chunk, pc int, instr luncode.Instruction, names map[*luncode.Chunk]string) string {
	switch instr.OpCode() {
	case luncode.OpPushNumber:
		if i := int(instr.A()); i < len(c.Numbers) {
			return fmt.Sprintf("\t; %v", c.Numbers[i])
		}
	case luncode.OpPushString, luncode.OpGetGlobal, luncode.OpSetGlobal,
		luncode.OpGetField, luncode.OpInitField:
		if i := int(instr.A()); i < len(c.Strings) {
			return fmt.Sprintf("\t; %s", strconv.Quote(c.Strings[i]))
		}
	case luncode.OpSetField:
		if i := int(instr.B()); i < len(c.Strings) {
			return fmt.Sprintf("\t; %s", strconv.Quote(c.Strings[i]))
		}
	case luncode.OpClosure:
		if i := int(instr.A()); i < len(c.Functions) {
			return fmt.Sprintf("\t; %s", names[c.Functions[i]])
		}
	case luncode.OpJump, luncode.OpBranchFalse, luncode.OpBranchTrue,
		luncode.OpBranchFalseKeep, luncode.OpBranchTrueKeep,
		luncode.OpForPrep, luncode.OpForLoop:
		return fmt.Sprintf("\t; to %d", pc+1+instr.J())
	}
	return ""
}

// nameFunctions assigns display names to a chunk and its
// nested functions: main, F[0], F[0][1], and so on.
func nameFunctions(names map[*luncode.Chunk]string, c *luncode.Chunk) {
	base := names[c]
	isTop := base == ""
	if isTop {
		base = "main"
		names[c] = base
	}
	for i, f := range c.Functions {
		if isTop {
			names[f] = fmt.Sprintf("F[%d]", i)
		} else {
			names[f] = fmt.Sprintf("%s[%d]", base, i)
		}
		nameFunctions(names, f)
	}
}
