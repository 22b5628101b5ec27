// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// serve.go - The serve command: run the HTTP API until interrupted.

package cli

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/goalbreak/internal/server"
)

// shutdownTimeout bounds how long in-flight requests may take to finish.
const shutdownTimeout = 10 * time.Second

func newServeCommand(t *Terminal, opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the goal decomposition HTTP API.

Endpoints:
  GET    /                 liveness message
  POST   /api/goals        decompose and store a goal
  GET    /api/goals        list goals (?skip=&limit=)
  GET    /api/goals/{id}   fetch one goal
  DELETE /api/goals/{id}   delete a goal and its tasks
  GET    /api/models       provider models and how discovery treats them
  GET    /health           storage and provider status
  GET    /stats            request counters`,
		Example: `  goalbreak serve
  goalbreak serve --addr 0.0.0.0:8000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// A server always reports its events.
			log.SetOutput(t.Err)

			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, opts.newProvider, true)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.watchPrompt(ctx); err != nil {
				log.Printf("PROMPT_WATCH_FAILED | error=%v", err)
			}

			srv, err := server.New(a.store, a.decomposer, server.OptionsFromConfig(cfg.Server))
			if err != nil {
				return &CommandError{Command: "serve", Reason: "invalid server options", Err: err}
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return &CommandError{Command: "serve", Reason: "server stopped", Err: err}
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return &CommandError{Command: "serve", Reason: "graceful shutdown failed", Err: err}
			}
			if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
				return &CommandError{Command: "serve", Reason: "server stopped", Err: err}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}
