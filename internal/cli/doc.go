// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides the goalbreak command tree.
//
// Commands are built with cobra. Every command takes a *Terminal that
// carries its streams and colour support, so tests can run the full tree
// against buffers.
//
// # Key Types
//
//   - Terminal: input/output streams plus TTY and colour detection
//   - Styles: lipgloss styles bound to one Terminal
//   - ProviderFactory: builds the model backend from configuration
//   - CommandError, UsageError: errors that map to exit codes
//
// # Usage
//
//	func main() {
//	    os.Exit(cli.Execute())
//	}
//
// # Commands Overview
//
//   - serve: run the HTTP API until SIGINT or SIGTERM
//   - decompose: break one goal into five tasks (--save, --out, --json)
//   - models: list provider models with usable/excluded/preferred flags
//   - shell: interactive decomposition with line editing and history
//   - goals list|show|delete: manage stored goals
//   - init-db: create the schema
//   - config init|show|path: manage the configuration file
//   - version: build information
//
// All commands support --json. Errors are printed once by Execute and
// mapped to an exit code with ExitCode.
package cli
