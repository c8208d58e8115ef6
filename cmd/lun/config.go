// Copyright 2026 The Lun Authors
// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"

	jsonv2 "github.com/go-json-experiment/json"
	"github.com/tailscale/hujson"
)

// config is the lun command's configuration file schema.
// The file is JSON with commas and comments (JWCC),
// conventionally at $XDG_CONFIG_HOME/lun/config.jsonc.
type config struct {
	Debug bool `json:"debug"`
	// Prompt is printed before each new REPL statement.
	Prompt string `json:"prompt"`
	// ContinuationPrompt is printed when the REPL
	// is waiting for the rest of an unfinished statement.
	ContinuationPrompt string `json:"continuationPrompt"`
}

func defaultConfig() *config {
	return &config{
		Prompt:             "> ",
		ContinuationPrompt: ">> ",
	}
}

// configFiles yields the paths searched for configuration,
// least specific first. Missing files are skipped.
func configFiles() iter.Seq[string] {
	return func(yield func(string) bool) {
		if dir, err := os.UserConfigDir(); err == nil {
			if !yield(filepath.Join(dir, "lun", "config.jsonc")) {
				return
			}
		}
		if path := os.Getenv("LUN_CONFIG"); path != "" {
			if !yield(path) {
				return
			}
		}
	}
}

// mergeFiles reads each configuration file in turn,
// later files overriding earlier values.
func (c *config) mergeFiles(paths iter.Seq[string]) error {
	for path := range paths {
		huJSONData, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return err
		}
		jsonData, err := hujson.Standardize(huJSONData)
		if err != nil {
			return fmt.Errorf("read %s: %v", path, err)
		}
		if err := jsonv2.Unmarshal(jsonData, c, jsonv2.RejectUnknownMembers(false)); err != nil {
			return fmt.Errorf("read %s: %v", path, err)
		}
	}
	return nil
}
