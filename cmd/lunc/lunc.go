// Copyright 2026 The Lun Authors
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"os"

	"github.com/lunscript/lun/internal/lunc"
)

func main() {
	rootCommand := lunc.New()
	if err := rootCommand.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "lunc:", err)
		os.Exit(1)
	}
}
