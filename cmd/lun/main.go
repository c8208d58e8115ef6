// Copyright 2026 The Lun Authors
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"zombiezen.com/go/bass/sigterm"
	"zombiezen.com/go/log"

	"github.com/lunscript/lun/internal/luncode"
	"github.com/lunscript/lun/internal/lunvm"
)

func main() {
	rootCommand := &cobra.Command{
		Use:           "lun",
		Short:         "lun scripting language",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cfg := defaultConfig()
	if err := cfg.mergeFiles(configFiles()); err != nil {
		initLogging(false)
		log.Errorf(context.Background(), "%v", err)
		os.Exit(1)
	}

	showDebug := rootCommand.PersistentFlags().Bool("debug", cfg.Debug, "show debugging output")
	rootCommand.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		initLogging(*showDebug)
		return nil
	}
	rootCommand.AddCommand(
		newRunCommand(),
		newEvalCommand(),
	)
	// With no subcommand: interactive REPL on a terminal,
	// otherwise execute a script from standard input.
	rootCommand.RunE = func(cmd *cobra.Command, args []string) error {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return runREPL(cmd.Context(), cfg)
		}
		return runScript(cmd.Context(), "-")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), sigterm.Signals()...)
	err := rootCommand.ExecuteContext(ctx)
	cancel()
	if err != nil {
		initLogging(*showDebug)
		log.Errorf(context.Background(), "%v", err)
		os.Exit(1)
	}
}

func newRunCommand() *cobra.Command {
	c := &cobra.Command{
		Use:                   "run FILE",
		Short:                 "execute a script file",
		Args:                  cobra.ExactArgs(1),
		DisableFlagsInUseLine: true,
		SilenceErrors:         true,
		SilenceUsage:          true,
	}
	c.RunE = func(cmd *cobra.Command, args []string) error {
		return runScript(cmd.Context(), args[0])
	}
	return c
}

func newEvalCommand() *cobra.Command {
	c := &cobra.Command{
		Use:                   "eval -e SOURCE",
		Short:                 "execute source text from the command line",
		Args:                  cobra.NoArgs,
		DisableFlagsInUseLine: true,
		SilenceErrors:         true,
		SilenceUsage:          true,
	}
	source := c.Flags().StringP("execute", "e", "", "source `text` to execute")
	c.RunE = func(cmd *cobra.Command, args []string) error {
		if *source == "" {
			return fmt.Errorf("eval: missing -e argument")
		}
		return executeSource(cmd.Context(), "eval", *source)
	}
	return c
}

// runScript executes a script file,
// or standard input if filename is "-".
func runScript(ctx context.Context, filename string) error {
	var source []byte
	var err error
	if filename == "-" {
		source, err = io.ReadAll(os.Stdin)
		filename = "stdin"
	} else {
		source, err = os.ReadFile(filename)
	}
	if err != nil {
		return err
	}
	return executeSource(ctx, filename, string(source))
}

func executeSource(ctx context.Context, name, source string) error {
	chunk, err := luncode.Parse(source)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	log.Debugf(ctx, "%s: compiled to %d instructions, %d locals, %d functions",
		name, len(chunk.Code), chunk.NumLocals, len(chunk.Functions))
	return lunvm.New().Execute(ctx, chunk)
}

var initLogOnce sync.Once

func initLogging(showDebug bool) {
	initLogOnce.Do(func() {
		minLogLevel := log.Info
		if showDebug {
			minLogLevel = log.Debug
		}
		log.SetDefault(&log.LevelFilter{
			Min:    minLogLevel,
			Output: log.New(os.Stderr, "lun: ", log.StdFlags, nil),
		})
	})
}
