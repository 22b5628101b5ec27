// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// decompose.go - One-shot goal decomposition from the command line.

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/goalbreak/internal/model"
	"github.com/jeranaias/goalbreak/internal/util"
)

type decomposeOptions struct {
	save    bool
	outPath string
}

func newDecomposeCommand(t *Terminal, opts *rootOptions) *cobra.Command {
	var dopts decomposeOptions

	cmd := &cobra.Command{
		Use:   "decompose <goal>",
		Short: "Break one goal into five tasks",
		Long: `Ask the configured model to break a goal into five ordered tasks with a
complexity score. Multiple arguments are joined with spaces. Use "-" to read
the goal from stdin.`,
		Example: `  goalbreak decompose "Learn to play guitar"
  goalbreak decompose --save --json Plan a wedding
  echo "Run a marathon" | goalbreak decompose -`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			goal, err := readGoal(t, args)
			if err != nil {
				return err
			}

			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout())
			defer cancel()

			a, err := newApp(ctx, cfg, opts.newProvider, dopts.save)
			if err != nil {
				return err
			}
			defer a.Close()

			out, err := a.decompose(ctx, goal, dopts.save)
			if err != nil {
				return err
			}

			if dopts.outPath != "" {
				data, err := json.MarshalIndent(out, "", "  ")
				if err != nil {
					return err
				}
				if err := util.AtomicWriteFile(dopts.outPath, append(data, '\n'), 0o644); err != nil {
					return &CommandError{Command: "decompose", Reason: "could not write output file", Err: err}
				}
			}

			if opts.jsonOutput {
				return writeJSON(t, out)
			}
			_, err = io.WriteString(t.Out, renderMarkdown(t, out.Markdown()))
			return err
		},
	}

	cmd.Flags().BoolVar(&dopts.save, "save", false, "store the goal in the database")
	cmd.Flags().StringVarP(&dopts.outPath, "out", "o", "", "also write the JSON result to this file")
	return cmd
}

// readGoal joins args into a goal, reading stdin for "-".
func readGoal(t *Terminal, args []string) (string, error) {
	var goal string
	if len(args) == 1 && args[0] == "-" {
		data, err := io.ReadAll(t.In)
		if err != nil {
			return "", fmt.Errorf("failed to read goal from stdin: %w", err)
		}
		goal = string(data)
	} else {
		goal = strings.Join(args, " ")
	}

	goal = util.NormalizeText(goal)
	if err := model.ValidateGoalText(goal); err != nil {
		return "", &UsageError{Reason: "goal text must not be empty", Example: `goalbreak decompose "Learn to play guitar"`}
	}
	return goal, nil
}

// decompose runs the decomposer and, when save is set, stores the result.
func (a *app) decompose(ctx context.Context, goal string, save bool) (GoalOutput, error) {
	res, err := a.decomposer.Decompose(ctx, goal)
	if err != nil {
		return GoalOutput{}, err
	}
	if !save {
		return outputFromResult(goal, res), nil
	}

	saved, err := a.store.Save(ctx, goal, res.ComplexityScore, res.Tasks)
	if err != nil {
		return GoalOutput{}, &CommandError{Command: "decompose", Reason: "could not save goal", Err: err}
	}
	return outputFromGoal(saved, res.Model), nil
}
