// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// render.go - Output rendering: markdown, highlighted JSON and tables.

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/goalbreak/internal/decomposer"
	"github.com/jeranaias/goalbreak/internal/model"
	"github.com/jeranaias/goalbreak/internal/util"
)

// =============================================================================
// GOAL OUTPUT
// =============================================================================

// GoalOutput is what decompose and shell print. ID and CreatedAt are set
// only for stored goals.
type GoalOutput struct {
	ID              string       `json:"id,omitempty"`
	GoalText        string       `json:"goal_text"`
	ComplexityScore float64      `json:"complexity_score"`
	CreatedAt       *time.Time   `json:"created_at,omitempty"`
	Model           string       `json:"model,omitempty"`
	Tasks           []TaskOutput `json:"tasks"`
}

// TaskOutput is one step of a GoalOutput.
type TaskOutput struct {
	ID       string `json:"id,omitempty"`
	TaskText string `json:"task_text"`
	Order    int    `json:"order"`
}

// outputFromResult describes a fresh decomposition.
func outputFromResult(goal string, res *decomposer.Result) GoalOutput {
	out := GoalOutput{
		GoalText:        goal,
		ComplexityScore: res.ComplexityScore,
		Model:           res.Model,
		Tasks:           make([]TaskOutput, 0, len(res.Tasks)),
	}
	for _, t := range res.Tasks {
		out.Tasks = append(out.Tasks, TaskOutput{TaskText: t.Text, Order: t.Order})
	}
	return out
}

// outputFromGoal describes a stored goal.
func outputFromGoal(g *model.Goal, modelName string) GoalOutput {
	created := g.CreatedAt
	out := GoalOutput{
		ID:              g.ID,
		GoalText:        g.Text,
		ComplexityScore: g.ComplexityScore,
		CreatedAt:       &created,
		Model:           modelName,
		Tasks:           make([]TaskOutput, 0, len(g.Tasks)),
	}
	for _, t := range g.Tasks {
		out.Tasks = append(out.Tasks, TaskOutput{ID: t.ID, TaskText: t.Text, Order: t.Order})
	}
	return out
}

// Markdown renders the goal as a markdown document.
func (g GoalOutput) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", escapeMarkdownLine(g.GoalText))
	fmt.Fprintf(&b, "**Complexity:** %s/10", strconv.FormatFloat(g.ComplexityScore, 'f', -1, 64))
	if g.Model != "" {
		fmt.Fprintf(&b, "  \n**Model:** `%s`", g.Model)
	}
	if g.ID != "" {
		fmt.Fprintf(&b, "  \n**ID:** `%s`", g.ID)
	}
	b.WriteString("\n\n")
	for _, t := range g.Tasks {
		fmt.Fprintf(&b, "%d. %s\n", t.Order, escapeMarkdownLine(t.TaskText))
	}
	return b.String()
}

// escapeMarkdownLine keeps user and model text from turning into markup
// that changes the document structure.
func escapeMarkdownLine(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := strings.NewReplacer("\\", "\\\\", "*", "\\*", "_", "\\_", "`", "\\`", "#", "\\#")
	return r.Replace(s)
}

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// renderMarkdown renders markdown for terminal display. Plain terminals get
// the source unchanged.
func renderMarkdown(t *Terminal, md string) string {
	if !t.ColorsEnabled() {
		return md
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(t.RenderWidth()),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

// =============================================================================
// JSON OUTPUT
// =============================================================================

// writeJSON writes v as indented JSON, syntax-highlighted on colour
// terminals.
func writeJSON(t *Terminal, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = io.WriteString(t.Out, highlightJSON(t, string(data))+"\n")
	return err
}

// highlightJSON applies syntax highlighting with chroma. Plain terminals
// get the source unchanged.
func highlightJSON(t *Terminal, src string) string {
	if !t.ColorsEnabled() {
		return src
	}

	lexer := lexers.Get("json")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get("monokai")
	if style == nil {
		style = chromaStyles.Fallback
	}

	formatter := formatters.Get(chromaFormatter(t.ColorProfile()))
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, src)
	if err != nil {
		return src
	}

	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return src
	}
	return buf.String()
}

// chromaFormatter picks the chroma terminal formatter for a colour profile.
func chromaFormatter(p termenv.Profile) string {
	switch p {
	case termenv.TrueColor:
		return "terminal16m"
	case termenv.ANSI256:
		return "terminal256"
	default:
		return "terminal16"
	}
}

// =============================================================================
// MODELS TABLE
// =============================================================================

// maxDisplayNameWidth bounds the display-name column.
const maxDisplayNameWidth = 40

// renderModelsTable lays out models in aligned columns. Widths are measured
// in terminal cells so wide characters line up.
func renderModelsTable(st *Styles, models []decomposer.ModelStatus) string {
	headers := []string{"MODEL", "DISPLAY NAME", "USABLE", "EXCLUDED", "PREFERRED"}

	rows := make([][]string, 0, len(models))
	for _, m := range models {
		rank := "-"
		if m.PreferredRank > 0 {
			rank = "#" + strconv.Itoa(m.PreferredRank)
		}
		rows = append(rows, []string{
			m.Name,
			util.TruncateWidth(m.DisplayName, maxDisplayNameWidth),
			yesNo(m.Usable),
			yesNo(m.Excluded),
			rank,
		})
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = util.DisplayWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], util.DisplayWidth(cell))
		}
	}

	var b strings.Builder
	for i, h := range headers {
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(st.Header.Render(util.PadRight(h, widths[i])))
	}
	b.WriteString("\n")

	for _, row := range rows {
		for i, cell := range row {
			if i > 0 {
				b.WriteString("  ")
			}
			b.WriteString(cellStyle(st, i, cell).Render(util.PadRight(cell, widths[i])))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func cellStyle(st *Styles, col int, cell string) lipgloss.Style {
	switch {
	case col == 2 && cell == "yes":
		return st.Success
	case col == 2:
		return st.Dim
	case col == 3 && cell == "yes":
		return st.Warning
	case col == 4 && cell != "-":
		return st.Highlight
	default:
		return st.Value
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
