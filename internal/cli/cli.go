// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Root command and shared plumbing for the goalbreak CLI.

package cli

import (
	"errors"
	"fmt"
	"io"
	"log"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/jeranaias/goalbreak/internal/config"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// rootOptions carries global flags and injected dependencies to every
// subcommand.
type rootOptions struct {
	configPath  string
	verbose     bool
	jsonOutput  bool
	newProvider ProviderFactory
}

// Execute runs the CLI on the process's standard streams and returns the
// exit code.
func Execute() int {
	t := StdTerminal()
	opts := &rootOptions{newProvider: NewProvider}

	cmd := newRootCommand(t, opts)
	if err := cmd.Execute(); err != nil {
		DisplayError(t, err, opts.jsonOutput)
		return ExitCode(err)
	}
	return ExitSuccess
}

// NewRootCommand builds the goalbreak command tree on t.
func NewRootCommand(t *Terminal) *cobra.Command {
	return newRootCommand(t, &rootOptions{newProvider: NewProvider})
}

func newRootCommand(t *Terminal, opts *rootOptions) *cobra.Command {
	if opts.newProvider == nil {
		opts.newProvider = NewProvider
	}

	root := &cobra.Command{
		Use:   "goalbreak",
		Short: "Break goals into five actionable steps with an LLM",
		Long: `goalbreak asks a language model to split a goal into exactly five
ordered tasks and a complexity score from 1 to 10. Goals can be decomposed
from the command line, in an interactive shell, or through the HTTP API.`,
		Example: `  goalbreak decompose "Learn to play guitar"
  goalbreak serve --addr :8000
  goalbreak models`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Events are for operators; keep them off the user's screen
			// unless asked for.
			if opts.verbose {
				log.SetOutput(t.Err)
			} else {
				log.SetOutput(io.Discard)
			}
		},
	}

	root.SetIn(t.In)
	root.SetOut(t.Out)
	root.SetErr(t.Err)
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &UsageError{Reason: err.Error(), Example: cmd.UseLine()}
	})

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default ~/.goalbreak/config.toml)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log events to stderr")
	root.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "machine-readable JSON output")

	root.AddCommand(
		newServeCommand(t, opts),
		newDecomposeCommand(t, opts),
		newModelsCommand(t, opts),
		newShellCommand(t, opts),
		newGoalsCommand(t, opts),
		newInitDBCommand(t, opts),
		newConfigCommand(t, opts),
		newVersionCommand(t, opts),
	)
	return root
}

// loadConfig reads .env, the config file and environment overrides, and
// validates the result.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	return config.Load(o.configPath)
}

// loadStoreConfig is loadConfig for commands that never call the provider.
// Provider problems such as a missing API key are not fatal there.
func (o *rootOptions) loadStoreConfig() (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	cfg, err := config.Read(o.configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		var verrs config.ValidateErrors
		if !errors.As(err, &verrs) {
			return nil, err
		}
		if rest := verrs.Without("provider."); len(rest) > 0 {
			return nil, fmt.Errorf("invalid config: %w", rest)
		}
	}
	return cfg, nil
}

// =============================================================================
// VERSION
// =============================================================================

// VersionInfo is the JSON shape of the version command.
type VersionInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

func newVersionCommand(t *Terminal, opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := VersionInfo{
				Version:   Version,
				GitCommit: GitCommit,
				BuildDate: BuildDate,
				GoVersion: runtime.Version(),
				Platform:  runtime.GOOS + "/" + runtime.GOARCH,
			}
			if opts.jsonOutput {
				return writeJSON(t, info)
			}

			st := NewStyles(t)
			fmt.Fprintf(t.Out, "%s %s\n", st.Title.Render("goalbreak"), info.Version)
			fmt.Fprintf(t.Out, "  %s %s\n", st.Label.Render("Commit:"), info.GitCommit)
			fmt.Fprintf(t.Out, "  %s %s\n", st.Label.Render("Built: "), info.BuildDate)
			fmt.Fprintf(t.Out, "  %s %s %s\n", st.Label.Render("Go:    "), info.GoVersion, info.Platform)
			return nil
		},
	}
}
