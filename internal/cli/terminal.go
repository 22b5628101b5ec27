// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// terminal.go - Terminal detection for the goalbreak CLI.
//
// Colour is used only when stdout is a terminal, unless NO_COLOR disables
// it or FORCE_COLOR forces it. Piped output is always plain.

package cli

import (
	"io"
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

const (
	// DefaultTerminalWidth is the fallback width when detection fails
	DefaultTerminalWidth = 80

	// MinTerminalWidth is the minimum width we'll use for wrapping
	MinTerminalWidth = 40

	// MaxRenderWidth caps markdown word wrap on wide terminals
	MaxRenderWidth = 100
)

// Terminal bundles the streams a command talks to together with what the
// output stream supports.
type Terminal struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer

	inTTY   bool
	outTTY  bool
	colors  bool
	width   int
	profile termenv.Profile
}

// NewTerminal inspects the given streams. Non-file streams are treated as
// pipes: no colour, default width.
func NewTerminal(in io.Reader, out, errOut io.Writer) *Terminal {
	t := &Terminal{
		In:      in,
		Out:     out,
		Err:     errOut,
		inTTY:   isTerminal(in),
		outTTY:  isTerminal(out),
		width:   DefaultTerminalWidth,
		profile: termenv.Ascii,
	}

	if f, ok := out.(*os.File); ok && t.outTTY {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			t.width = max(w, MinTerminalWidth)
		}
	}

	switch {
	case os.Getenv("NO_COLOR") != "":
		t.colors = false
	case os.Getenv("FORCE_COLOR") != "":
		t.colors = true
	default:
		t.colors = t.outTTY
	}

	if t.colors {
		t.profile = termenv.NewOutput(out, termenv.WithTTY(true)).EnvColorProfile()
		if t.profile == termenv.Ascii {
			t.profile = termenv.ANSI256
		}
	}
	return t
}

// StdTerminal returns a Terminal on the process's standard streams.
func StdTerminal() *Terminal {
	return NewTerminal(os.Stdin, os.Stdout, os.Stderr)
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// IsInteractive reports whether stdin is a terminal.
func (t *Terminal) IsInteractive() bool { return t.inTTY }

// IsStdoutTTY reports whether stdout is a terminal.
func (t *Terminal) IsStdoutTTY() bool { return t.outTTY }

// ColorsEnabled returns true if coloured output should be used.
func (t *Terminal) ColorsEnabled() bool { return t.colors }

// Width returns the terminal width in cells.
func (t *Terminal) Width() int { return t.width }

// RenderWidth returns the width to wrap rendered text at.
func (t *Terminal) RenderWidth() int {
	w := t.width
	// Leave some margin
	if w > 4 {
		w -= 4
	}
	return min(w, MaxRenderWidth)
}

// ColorProfile returns the termenv profile for stdout.
func (t *Terminal) ColorProfile() termenv.Profile { return t.profile }
