// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// goals.go - Inspect and manage stored goals without the HTTP API.

package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jeranaias/goalbreak/internal/export"
	"github.com/jeranaias/goalbreak/internal/model"
	"github.com/jeranaias/goalbreak/internal/storage"
	"github.com/jeranaias/goalbreak/internal/util"
)

// GoalListOutput is the JSON shape of goals list.
type GoalListOutput struct {
	Total int          `json:"total"`
	Goals []GoalOutput `json:"goals"`
}

func newGoalsCommand(t *Terminal, opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goals",
		Short: "List, show and delete stored goals",
	}
	cmd.AddCommand(
		newGoalsListCommand(t, opts),
		newGoalsShowCommand(t, opts),
		newGoalsDeleteCommand(t, opts),
		newGoalsExportCommand(t, opts),
	)
	return cmd
}

// withStore loads the config, opens the store and runs fn. No provider is
// needed, so a missing API key does not block read access.
func withStore(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, store *storage.Store) error) error {
	cfg, err := opts.loadStoreConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	store, err := openStore(ctx, cfg)
	if err != nil {
		return &CommandError{Command: cmd.Name(), Reason: "could not open database", Err: err}
	}
	defer store.Close()
	return fn(ctx, store)
}

func newGoalsListCommand(t *Terminal, opts *rootOptions) *cobra.Command {
	var skip, limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored goals, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if skip < 0 || limit < 0 {
				return &UsageError{Reason: "--skip and --limit must not be negative"}
			}
			return withStore(cmd, opts, func(ctx context.Context, store *storage.Store) error {
				goals, err := store.List(ctx, skip, limit)
				if err != nil {
					return err
				}
				total, err := store.Count(ctx)
				if err != nil {
					return err
				}

				if opts.jsonOutput {
					out := GoalListOutput{Total: total, Goals: make([]GoalOutput, 0, len(goals))}
					for i := range goals {
						out.Goals = append(out.Goals, outputFromGoal(&goals[i], ""))
					}
					return writeJSON(t, out)
				}
				_, err = io.WriteString(t.Out, renderGoalList(NewStyles(t), goals, skip, total))
				return err
			})
		},
	}

	cmd.Flags().IntVar(&skip, "skip", 0, "number of goals to skip")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of goals to show")
	return cmd
}

func newGoalsShowCommand(t *Terminal, opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one goal with its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, func(ctx context.Context, store *storage.Store) error {
				g, err := store.Get(ctx, args[0])
				if err != nil {
					return err
				}
				out := outputFromGoal(g, "")
				if opts.jsonOutput {
					return writeJSON(t, out)
				}
				_, err = io.WriteString(t.Out, renderMarkdown(t, out.Markdown()))
				return err
			})
		},
	}
}

func newGoalsDeleteCommand(t *Terminal, opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a goal and its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, func(ctx context.Context, store *storage.Store) error {
				if err := store.Delete(ctx, args[0]); err != nil {
					return err
				}
				if opts.jsonOutput {
					return writeJSON(t, map[string]any{"success": true, "deleted": args[0]})
				}
				st := NewStyles(t)
				fmt.Fprintf(t.Out, "%s deleted goal %s\n", st.Status("ok"), args[0])
				return nil
			})
		},
	}
}

// exportPageSize is how many goals goals export reads per query.
const exportPageSize = 100

func newGoalsExportCommand(t *Terminal, opts *rootOptions) *cobra.Command {
	var (
		format, outPath, dir, theme string
		noMetadata                  bool
	)

	cmd := &cobra.Command{
		Use:   "export [id...]",
		Short: "Export goals as Markdown, JSON or HTML",
		Long: `Export the given goals, or every stored goal when no id is given. Output
goes to stdout unless --out names a file or --dir a directory, in which case
a file name is generated.`,
		Example: `  goalbreak goals export --format html --dir ./exports
  goalbreak goals export 3f2c... --format md --out guitar.md`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return &UsageError{Reason: err.Error()}
			}
			if outPath != "" && dir != "" {
				return &UsageError{Reason: "--out and --dir cannot be combined"}
			}

			eopts := export.DefaultOptions()
			eopts.IncludeMetadata = !noMetadata
			eopts.Theme = theme
			exporter, err := export.New(f, eopts)
			if err != nil {
				return err
			}

			return withStore(cmd, opts, func(ctx context.Context, store *storage.Store) error {
				goals, err := collectGoals(ctx, store, args)
				if err != nil {
					return err
				}

				if dir != "" {
					path, err := export.ExportToFile(goals, exporter, dir, eopts)
					if err != nil {
						return err
					}
					fmt.Fprintln(t.Out, path)
					return nil
				}

				data, err := exporter.Export(goals)
				if err != nil {
					return err
				}
				if outPath != "" {
					if err := util.AtomicWriteFile(outPath, data, 0o644); err != nil {
						return &CommandError{Command: "goals export", Reason: "could not write output file", Err: err}
					}
					fmt.Fprintln(t.Out, outPath)
					return nil
				}
				_, err = t.Out.Write(data)
				return err
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "markdown", "markdown, json or html")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write to this file")
	cmd.Flags().StringVar(&dir, "dir", "", "write a generated file name into this directory")
	cmd.Flags().StringVar(&theme, "theme", "dark", "HTML theme: dark or light")
	cmd.Flags().BoolVar(&noMetadata, "no-metadata", false, "omit ids, timestamps and the export header")
	return cmd
}

// collectGoals loads the named goals, or every goal when ids is empty.
func collectGoals(ctx context.Context, store *storage.Store, ids []string) ([]model.Goal, error) {
	if len(ids) > 0 {
		goals := make([]model.Goal, 0, len(ids))
		for _, id := range ids {
			g, err := store.Get(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("goal %s: %w", id, err)
			}
			goals = append(goals, *g)
		}
		return goals, nil
	}

	var goals []model.Goal
	for skip := 0; ; skip += exportPageSize {
		page, err := store.List(ctx, skip, exportPageSize)
		if err != nil {
			return nil, err
		}
		goals = append(goals, page...)
		if len(page) < exportPageSize {
			return goals, nil
		}
	}
}

// renderGoalList prints one line per goal with its complexity.
func renderGoalList(st *Styles, goals []model.Goal, skip, total int) string {
	if len(goals) == 0 {
		return st.Dim.Render("No goals stored.") + "\n"
	}

	var out string
	for _, g := range goals {
		score := strconv.FormatFloat(g.ComplexityScore, 'f', -1, 64)
		out += fmt.Sprintf("%s  %s  %s\n",
			st.Dim.Render(g.ID),
			st.Highlight.Render(util.PadRight(score+"/10", 5)),
			st.Value.Render(util.TruncateWidth(g.Text, 60)))
	}
	out += st.Dim.Render(fmt.Sprintf("showing %d-%d of %d", skip+1, skip+len(goals), total)) + "\n"
	return out
}
