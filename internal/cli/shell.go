// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// shell.go - Interactive goal decomposition loop.
//
// On a terminal the shell uses liner for line editing and keeps history in
// the config directory. Piped input is read line by line.
//
// Shell commands:
//   /help, /h, /?    Show help
//   /models, /m      List provider models
//   /quit, /q        Exit

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/jeranaias/goalbreak/internal/config"
	"github.com/jeranaias/goalbreak/internal/util"
)

const shellPrompt = "goalbreak> "

// lineReader is the input side of the shell.
type lineReader interface {
	ReadLine(prompt string) (string, error)
	Close() error
}

// =============================================================================
// LINER INPUT
// =============================================================================

// linerReader provides history and line editing on a terminal.
type linerReader struct {
	line        *liner.State
	historyFile string
}

func newLinerReader(historyFile string) *linerReader {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	r := &linerReader{line: line, historyFile: historyFile}
	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	return r
}

func (r *linerReader) ReadLine(prompt string) (string, error) {
	input, err := r.line.Prompt(prompt)
	if err != nil {
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", io.EOF
		}
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		r.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves history with owner-only permissions and restores the
// terminal.
func (r *linerReader) Close() error {
	if r.historyFile != "" {
		if err := os.MkdirAll(filepath.Dir(r.historyFile), 0o700); err == nil {
			if f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600); err == nil {
				if _, err := r.line.WriteHistory(f); err != nil {
					log.Printf("SHELL_HISTORY_SAVE_FAILED | error=%v", err)
				}
				f.Close()
			}
		}
	}
	return r.line.Close()
}

// =============================================================================
// PIPED INPUT
// =============================================================================

// scanReader reads lines from a non-terminal stream. The prompt is not
// echoed.
type scanReader struct {
	scanner *bufio.Scanner
}

func newScanReader(in io.Reader) *scanReader {
	return &scanReader{scanner: bufio.NewScanner(in)}
}

func (r *scanReader) ReadLine(string) (string, error) {
	if r.scanner.Scan() {
		return r.scanner.Text(), nil
	}
	if err := r.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (r *scanReader) Close() error { return nil }

// =============================================================================
// SHELL
// =============================================================================

// shell is one interactive session.
type shell struct {
	t      *Terminal
	st     *Styles
	app    *app
	input  lineReader
	save   bool
	asJSON bool

	decomposed int
	failed     int
}

func newShellCommand(t *Terminal, opts *rootOptions) *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Decompose goals interactively",
		Long: `Start an interactive session. Each line you enter is decomposed into five
tasks. Type /help for shell commands and /quit (or Ctrl-D) to exit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), cfg, opts.newProvider, save)
			if err != nil {
				return err
			}
			defer a.Close()

			var input lineReader
			if t.IsInteractive() && t.IsStdoutTTY() {
				historyFile, err := config.HistoryPath()
				if err != nil {
					historyFile = ""
				}
				input = newLinerReader(historyFile)
			} else {
				input = newScanReader(t.In)
			}
			defer input.Close()

			sh := &shell{
				t:      t,
				st:     NewStyles(t),
				app:    a,
				input:  input,
				save:   save,
				asJSON: opts.jsonOutput,
			}
			return sh.run(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "store every decomposed goal")
	return cmd
}

// run reads lines until EOF or /quit.
func (s *shell) run(ctx context.Context) error {
	if !s.asJSON {
		fmt.Fprintf(s.t.Out, "%s %s\n", s.st.Title.Render("goalbreak shell"),
			s.st.Dim.Render("provider "+s.app.provider.Name()+", type /help for commands"))
	}

	for {
		if ctx.Err() != nil {
			break
		}
		line, err := s.input.ReadLine(shellPrompt)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if !s.command(ctx, line) {
				break
			}
			continue
		}
		s.handleGoal(ctx, line)
	}

	if !s.asJSON {
		fmt.Fprintf(s.t.Out, "\n%s\n", s.st.Dim.Render(fmt.Sprintf("%d goal(s) decomposed, %d failed", s.decomposed, s.failed)))
	}
	return nil
}

// command runs a slash command and reports whether the shell continues.
func (s *shell) command(ctx context.Context, line string) bool {
	name := strings.ToLower(strings.Fields(line)[0])
	switch name {
	case "/quit", "/q", "/exit":
		return false
	case "/help", "/h", "/?":
		s.printHelp()
	case "/models", "/m":
		models, err := s.app.decomposer.Catalog(ctx)
		if err != nil {
			s.printError(err)
			return true
		}
		if s.asJSON {
			_ = writeJSON(s.t, ModelsOutput{Provider: s.app.provider.Name(), Models: models})
			return true
		}
		fmt.Fprint(s.t.Out, renderModelsTable(s.st, models))
	default:
		s.printError(fmt.Errorf("unknown command %s (try /help)", name))
	}
	return true
}

// handleGoal decomposes one line. Failures are reported and the shell
// carries on.
func (s *shell) handleGoal(ctx context.Context, line string) {
	goal := util.NormalizeText(line)

	callCtx, cancel := context.WithTimeout(ctx, s.app.cfg.RequestTimeout())
	defer cancel()

	out, err := s.app.decompose(callCtx, goal, s.save)
	if err != nil {
		s.failed++
		log.Printf("SHELL_DECOMPOSE_FAILED | goal=%q error=%v", util.TruncateRunes(goal, 60), err)
		s.printError(err)
		return
	}
	s.decomposed++

	if s.asJSON {
		_ = writeJSON(s.t, out)
		return
	}
	fmt.Fprint(s.t.Out, renderMarkdown(s.t, out.Markdown()))
}

func (s *shell) printError(err error) {
	DisplayError(s.t, err, s.asJSON)
}

func (s *shell) printHelp() {
	rows := [][2]string{
		{"<goal>", "decompose the goal into five tasks"},
		{"/models, /m", "list provider models"},
		{"/help, /h", "show this help"},
		{"/quit, /q", "exit (Ctrl-D also works)"},
	}
	for _, r := range rows {
		fmt.Fprintf(s.t.Out, "  %s %s\n", s.st.Highlight.Render(util.PadRight(r[0], 14)), r[1])
	}
}
