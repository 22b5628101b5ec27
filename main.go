// goalbreak - Break goals into five actionable steps with an LLM.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"os"

	"github.com/jeranaias/goalbreak/internal/cli"
)

// Version information (set at build time with -ldflags "-X main.Version=...")
var (
	Version   = ""
	GitCommit = ""
	BuildDate = ""
)

func main() {
	if Version != "" {
		cli.Version = Version
	}
	if GitCommit != "" {
		cli.GitCommit = GitCommit
	}
	if BuildDate != "" {
		cli.BuildDate = BuildDate
	}
	os.Exit(cli.Execute())
}
