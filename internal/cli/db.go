// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// db.go - The init-db command.

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeranaias/goalbreak/internal/storage"
)

func newInitDBCommand(t *Terminal, opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init-db",
		Short: "Create the goals and tasks tables",
		Long: `Create the database schema. The schema is also applied whenever goalbreak
opens the database, so this is only needed to prepare a database ahead of time.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadStoreConfig()
			if err != nil {
				return err
			}
			store, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return &CommandError{Command: "init-db", Reason: "could not initialize database", Err: err}
			}
			defer store.Close()

			target := cfg.Database.Path
			if store.Driver() != storage.DriverSQLite {
				target = "postgres"
			}

			if opts.jsonOutput {
				return writeJSON(t, map[string]any{
					"success":        true,
					"driver":         store.Driver(),
					"schema_version": storage.SchemaVersion,
				})
			}
			st := NewStyles(t)
			fmt.Fprintf(t.Out, "%s schema version %d ready (%s: %s)\n",
				st.Status("ok"), storage.SchemaVersion, store.Driver(), target)
			return nil
		},
	}
}
