// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - Shared styles for all goalbreak commands.

package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Styles holds the lipgloss styles for one Terminal. Styles render plain
// text when the terminal has no colour.
type Styles struct {
	// Title is used for command titles and headers
	Title lipgloss.Style

	// Header is used for table headers
	Header lipgloss.Style

	Label     lipgloss.Style
	Value     lipgloss.Style
	Success   lipgloss.Style
	Error     lipgloss.Style
	Warning   lipgloss.Style
	Dim       lipgloss.Style
	Highlight lipgloss.Style
	Prompt    lipgloss.Style
}

// NewStyles builds styles bound to t's output and colour profile.
func NewStyles(t *Terminal) *Styles {
	r := lipgloss.NewRenderer(t.Out, termenv.WithProfile(t.ColorProfile()))
	r.SetColorProfile(t.ColorProfile())

	return &Styles{
		Title: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")), // Cyan
		Header: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255")), // White
		Label: r.NewStyle().
			Foreground(lipgloss.Color("245")), // Light gray
		Value: r.NewStyle().
			Foreground(lipgloss.Color("252")),
		Success: r.NewStyle().
			Foreground(lipgloss.Color("42")). // Green
			Bold(true),
		Error: r.NewStyle().
			Foreground(lipgloss.Color("196")). // Red
			Bold(true),
		Warning: r.NewStyle().
			Foreground(lipgloss.Color("214")), // Yellow/Orange
		Dim: r.NewStyle().
			Foreground(lipgloss.Color("242")),
		Highlight: r.NewStyle().
			Foreground(lipgloss.Color("82")), // Bright green
		Prompt: r.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true),
	}
}

// Separator renders a horizontal rule of the given width.
func (s *Styles) Separator(width int) string {
	if width <= 0 {
		width = 70
	}
	return s.Dim.Render(strings.Repeat("─", width))
}

// Status renders a status marker with the matching colour.
func (s *Styles) Status(status string) string {
	switch strings.ToLower(status) {
	case "ok", "success", "yes":
		return s.Success.Render("[OK]")
	case "error", "fail", "failed":
		return s.Error.Render("[FAIL]")
	case "warning", "warn", "excluded":
		return s.Warning.Render("[WARN]")
	default:
		return s.Dim.Render("[" + strings.ToUpper(status) + "]")
	}
}
