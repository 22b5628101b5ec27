// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/goalbreak/internal/model"
)

var fixedNow = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func testOptions() *Options {
	opts := DefaultOptions()
	opts.Now = func() time.Time { return fixedNow }
	return opts
}

func guitarGoal() model.Goal {
	tasks := []string{
		"Buy a guitar",
		"Learn *basic* chords",
		"Practice <daily>",
		"Learn strumming",
		"Play a song",
	}
	g := model.Goal{
		ID:              "0b7e6c1c-0000-4000-8000-000000000001",
		Text:            "Learn to play guitar",
		ComplexityScore: 6,
		CreatedAt:       time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	for i, text := range tasks {
		g.Tasks = append(g.Tasks, model.Task{ID: "t" + string(rune('1'+i)), Text: text, Order: i + 1})
	}
	return g
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"markdown", FormatMarkdown, false},
		{"MD", FormatMarkdown, false},
		{".md", FormatMarkdown, false},
		{"json", FormatJSON, false},
		{"html", FormatHTML, false},
		{"htm", FormatHTML, false},
		{"pdf", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew(t *testing.T) {
	for _, f := range []Format{FormatMarkdown, FormatJSON, FormatHTML} {
		e, err := New(f, nil)
		require.NoError(t, err)
		assert.NotEmpty(t, e.FileExtension())
		assert.NotEmpty(t, e.MimeType())
	}

	_, err := New("yaml", nil)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestExport_RejectsEmptyAndInvalid(t *testing.T) {
	for _, f := range []Format{FormatMarkdown, FormatJSON, FormatHTML} {
		e, err := New(f, testOptions())
		require.NoError(t, err)

		_, err = e.Export(nil)
		assert.ErrorIs(t, err, ErrNoGoals, "format %s", f)

		bad := guitarGoal()
		bad.CreatedAt = time.Time{}
		_, err = e.Export([]model.Goal{bad})
		assert.Error(t, err, "format %s", f)
	}
}

func TestMarkdownExporter_SingleGoal(t *testing.T) {
	data, err := NewMarkdownExporter(testOptions()).Export([]model.Goal{guitarGoal()})
	require.NoError(t, err)
	md := string(data)

	assert.True(t, strings.HasPrefix(md, "---\ntitle: Learn to play guitar\n"))
	assert.Contains(t, md, "goals: 1\n")
	assert.Contains(t, md, "exported: 2025-03-14T09:26:53Z\n")
	assert.Contains(t, md, "# Learn to play guitar\n")
	assert.Contains(t, md, "- **Complexity**: 6/10\n")
	assert.Contains(t, md, "- **Created**: 2025-03-01 12:00:00 UTC\n")
	assert.Contains(t, md, "1. Buy a guitar\n")
	assert.Contains(t, md, "2. Learn \\*basic\\* chords\n")
	assert.Contains(t, md, "5. Play a song\n")
	assert.Contains(t, md, "*Exported from goalbreak on March 14, 2025 at 9:26 AM*")
}

func TestMarkdownExporter_WithoutMetadata(t *testing.T) {
	opts := testOptions()
	opts.IncludeMetadata = false

	data, err := NewMarkdownExporter(opts).Export([]model.Goal{guitarGoal()})
	require.NoError(t, err)
	md := string(data)

	assert.True(t, strings.HasPrefix(md, "# Learn to play guitar"))
	assert.NotContains(t, md, "**ID**")
	assert.NotContains(t, md, "Exported from")
	assert.Contains(t, md, "- **Complexity**: 6/10")
}

func TestMarkdownExporter_ManyGoals(t *testing.T) {
	second := guitarGoal()
	second.ID = "second"
	second.Text = "Run: a marathon"
	second.ComplexityScore = 8.5

	data, err := NewMarkdownExporter(testOptions()).Export([]model.Goal{guitarGoal(), second})
	require.NoError(t, err)
	md := string(data)

	assert.Contains(t, md, "title: 2 goals\n")
	assert.Contains(t, md, "# Goals\n")
	assert.Contains(t, md, "## Learn to play guitar\n")
	assert.Contains(t, md, "## Run: a marathon\n")
	assert.Contains(t, md, "- **Complexity**: 8.5/10")
}

func TestJSONExporter(t *testing.T) {
	data, err := NewJSONExporter(testOptions()).Export([]model.Goal{guitarGoal()})
	require.NoError(t, err)

	var doc struct {
		Generator  string `json:"generator"`
		ExportedAt string `json:"exported_at"`
		Count      int    `json:"count"`
		Goals      []struct {
			ID              string  `json:"id"`
			GoalText        string  `json:"goal_text"`
			ComplexityScore float64 `json:"complexity_score"`
			Tasks           []struct {
				TaskText string `json:"task_text"`
				Order    int    `json:"order"`
			} `json:"tasks"`
		} `json:"goals"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))

	assert.Equal(t, "goalbreak", doc.Generator)
	assert.Equal(t, "2025-03-14T09:26:53Z", doc.ExportedAt)
	assert.Equal(t, 1, doc.Count)
	require.Len(t, doc.Goals, 1)
	assert.Equal(t, "Learn to play guitar", doc.Goals[0].GoalText)
	require.Len(t, doc.Goals[0].Tasks, 5)
	assert.Equal(t, "Learn *basic* chords", doc.Goals[0].Tasks[1].TaskText)
}

func TestHTMLExporter_EscapesText(t *testing.T) {
	g := guitarGoal()
	g.Text = `<script>alert("x")</script>`

	data, err := NewHTMLExporter(testOptions()).Export([]model.Goal{g})
	require.NoError(t, err)
	page := string(data)

	assert.NotContains(t, page, "<script>")
	assert.Contains(t, page, "&lt;script&gt;")
	assert.Contains(t, page, "Practice &lt;daily&gt;")
	assert.Contains(t, page, `<body class="dark-theme">`)
	assert.Contains(t, page, `style="width: 60%"`)
	assert.Contains(t, page, `<li value="5">Play a song</li>`)
}

func TestHTMLExporter_Theme(t *testing.T) {
	opts := testOptions()
	opts.Theme = "light"
	data, err := NewHTMLExporter(opts).Export([]model.Goal{guitarGoal()})
	require.NoError(t, err)
	assert.Contains(t, string(data), `<body class="light-theme">`)

	opts.Theme = "neon"
	data, err = NewHTMLExporter(opts).Export([]model.Goal{guitarGoal()})
	require.NoError(t, err)
	assert.Contains(t, string(data), `<body class="dark-theme">`)
}

func TestComplexityBuckets(t *testing.T) {
	assert.Equal(t, "low", complexityClass(1))
	assert.Equal(t, "low", complexityClass(3))
	assert.Equal(t, "medium", complexityClass(7))
	assert.Equal(t, "high", complexityClass(9.5))

	assert.Equal(t, 10, complexityPercent(0))
	assert.Equal(t, 100, complexityPercent(42))
	assert.Equal(t, 75, complexityPercent(7.5))
}

func TestExportToFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	g := guitarGoal()
	g.Text = `Learn: guitar/bass?`

	path, err := ExportToFile([]model.Goal{g}, NewMarkdownExporter(testOptions()), dir, testOptions())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "goal_Learn-_guitar-bass-_20250314_092653.md"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "1. Buy a guitar")

	path, err = ExportToFile([]model.Goal{g, guitarGoal()}, NewJSONExporter(testOptions()), dir, testOptions())
	require.NoError(t, err)
	assert.Equal(t, "goals_20250314_092653.json", filepath.Base(path))
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "goal", sanitizeFilename(""))
	assert.Equal(t, "a-b_c", sanitizeFilename("a|b c"))
	assert.Equal(t, "x-y", sanitizeFilename("x\x01y"))
	assert.Equal(t, 50, len([]rune(sanitizeFilename(strings.Repeat("é", 80)))))
}

func TestFormatScore(t *testing.T) {
	assert.Equal(t, "6", formatScore(6))
	assert.Equal(t, "10", formatScore(10))
	assert.Equal(t, "7.5", formatScore(7.5))
	assert.Equal(t, "3.25", formatScore(3.25))
}
