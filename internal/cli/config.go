// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Config command implementation for goalbreak.
//
// Command: config <subcommand>
//
// Subcommands:
//   init [--force] [--path FILE]   Write a default configuration file
//   show                           Display the effective configuration
//   path                           Show the configuration file location
//
// Secrets are redacted by show. Environment variables override the file.

package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeranaias/goalbreak/internal/config"
)

func newConfigCommand(t *Terminal, opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create and inspect the configuration file",
	}
	cmd.AddCommand(
		newConfigInitCommand(t, opts),
		newConfigShowCommand(t, opts),
		newConfigPathCommand(t, opts),
	)
	return cmd
}

// configFile is --config if given, else the default location.
func (o *rootOptions) configFile() (string, error) {
	if o.configPath != "" {
		return o.configPath, nil
	}
	return config.DefaultPath()
}

func newConfigInitCommand(t *Terminal, opts *rootOptions) *cobra.Command {
	var (
		force bool
		path  string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Example: `  goalbreak config init
  goalbreak config init --path ./goalbreak.toml --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				p, err := opts.configFile()
				if err != nil {
					return err
				}
				path = p
			}

			if _, err := os.Stat(path); err == nil && !force {
				return &UsageError{Reason: fmt.Sprintf("%s already exists (use --force to overwrite)", path)}
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}

			if err := config.SaveTOML(config.Default(), path); err != nil {
				return &CommandError{Command: "config init", Reason: "could not write config", Err: err}
			}

			if opts.jsonOutput {
				return writeJSON(t, map[string]any{"success": true, "path": path})
			}
			st := NewStyles(t)
			fmt.Fprintf(t.Out, "%s wrote %s\n", st.Status("ok"), path)
			fmt.Fprintf(t.Out, "%s\n", st.Dim.Render("Set GEMINI_API_KEY (or provider.api_key) before running goalbreak."))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	cmd.Flags().StringVar(&path, "path", "", "file to write (default: --config or ~/.goalbreak/config.toml)")
	return cmd
}

func newConfigShowCommand(t *Terminal, opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display the effective configuration with secrets redacted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadDotEnv(); err != nil {
				return err
			}
			cfg, err := config.Read(opts.configPath)
			if err != nil {
				return err
			}

			var problems config.ValidateErrors
			if err := cfg.Validate(); err != nil && !errors.As(err, &problems) {
				return err
			}

			// String is already JSON, so both modes print it.
			fmt.Fprintln(t.Out, highlightJSON(t, cfg.String()))
			if len(problems) > 0 && !opts.jsonOutput {
				st := NewStyles(t)
				fmt.Fprintln(t.Err)
				for _, p := range problems {
					fmt.Fprintf(t.Err, "%s %s\n", st.Status("warning"), p.Error())
				}
			}
			return nil
		},
	}
}

func newConfigPathCommand(t *Terminal, opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show the configuration file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := opts.configFile()
			if err != nil {
				return err
			}
			_, statErr := os.Stat(path)
			exists := statErr == nil

			if opts.jsonOutput {
				return writeJSON(t, map[string]any{"path": path, "exists": exists})
			}
			fmt.Fprintln(t.Out, path)
			return nil
		},
	}
}
