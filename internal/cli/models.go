// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// models.go - The models command: show how discovery sees the provider.

package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jeranaias/goalbreak/internal/decomposer"
)

// ModelsOutput is the JSON shape of the models command.
type ModelsOutput struct {
	Provider string                   `json:"provider"`
	Selected string                   `json:"selected,omitempty"`
	Tier     string                   `json:"tier,omitempty"`
	Models   []decomposer.ModelStatus `json:"models"`
}

func newModelsCommand(t *Terminal, opts *rootOptions) *cobra.Command {
	var selectModel bool

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List provider models and how discovery treats them",
		Long: `List every model the provider reports, marking which support the required
method, which are excluded, and where each ranks in the preference list.
With --select, discovery also runs and reports the model it would use.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.ProviderTimeout())
			defer cancel()

			a, err := newApp(ctx, cfg, opts.newProvider, false)
			if err != nil {
				return err
			}
			defer a.Close()

			models, err := a.decomposer.Catalog(ctx)
			if err != nil {
				return err
			}

			out := ModelsOutput{Provider: a.provider.Name(), Models: models}
			if selectModel {
				sel, err := a.decomposer.SelectModel(ctx)
				if err != nil {
					return err
				}
				out.Selected = sel.Model
				out.Tier = string(sel.Tier)
			}

			if opts.jsonOutput {
				return writeJSON(t, out)
			}

			st := NewStyles(t)
			fmt.Fprintf(t.Out, "%s %s\n\n", st.Title.Render("Models on"), st.Highlight.Render(out.Provider))
			if len(models) == 0 {
				fmt.Fprintln(t.Out, st.Dim.Render("The provider reported no models."))
				return nil
			}
			if _, err := io.WriteString(t.Out, renderModelsTable(st, models)); err != nil {
				return err
			}
			if out.Selected != "" {
				fmt.Fprintf(t.Out, "\n%s %s %s\n", st.Label.Render("Selected:"), st.Success.Render(out.Selected), st.Dim.Render("("+out.Tier+")"))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&selectModel, "select", false, "also run discovery and show the chosen model")
	return cmd
}
