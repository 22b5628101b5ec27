// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/jeranaias/goalbreak/internal/model"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports goals to a standalone HTML page with embedded CSS.
// All goal and task text is escaped.
type HTMLExporter struct {
	options *Options
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	return &HTMLExporter{options: opts.withDefaults()}
}

// Export converts goals to HTML format.
func (e *HTMLExporter) Export(goals []model.Goal) ([]byte, error) {
	if err := validate(goals); err != nil {
		return nil, err
	}

	var sb strings.Builder
	now := e.options.Now()
	title := documentTitle(goals)

	// HTML header
	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString("<html lang=\"en\">\n")
	sb.WriteString("<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	sb.WriteString(fmt.Sprintf("    <title>%s</title>\n", html.EscapeString(title)))
	sb.WriteString("    <meta name=\"generator\" content=\"goalbreak\">\n")
	sb.WriteString(fmt.Sprintf("    <meta name=\"date\" content=\"%s\">\n", now.Format(time.RFC3339)))
	sb.WriteString(htmlCSS)
	sb.WriteString("</head>\n")
	sb.WriteString(fmt.Sprintf("<body class=\"%s-theme\">\n", e.options.Theme))
	sb.WriteString("    <div class=\"container\">\n")

	if len(goals) > 1 {
		sb.WriteString(fmt.Sprintf("        <header class=\"header\"><h1>%s</h1></header>\n", html.EscapeString(title)))
	}

	sb.WriteString("        <main>\n")
	for i := range goals {
		sb.WriteString(e.renderGoal(&goals[i]))
	}
	sb.WriteString("        </main>\n")

	if e.options.IncludeMetadata {
		sb.WriteString("        <footer class=\"footer\">\n")
		sb.WriteString(fmt.Sprintf("            <p>Exported from <strong>goalbreak</strong> on %s</p>\n",
			now.Format("January 2, 2006 at 3:04 PM")))
		sb.WriteString("        </footer>\n")
	}

	sb.WriteString("    </div>\n")
	sb.WriteString("</body>\n")
	sb.WriteString("</html>\n")

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html; charset=utf-8"
}

// =============================================================================
// RENDERING FUNCTIONS
// =============================================================================

// renderGoal renders one goal with its complexity meter and task list.
func (e *HTMLExporter) renderGoal(g *model.Goal) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("            <section class=\"goal\" id=\"goal-%s\">\n", html.EscapeString(g.ID)))
	sb.WriteString(fmt.Sprintf("                <h2>%s</h2>\n", html.EscapeString(g.Text)))

	sb.WriteString("                <div class=\"metadata\">\n")
	sb.WriteString(fmt.Sprintf("                    <span class=\"meta-item complexity %s\"><strong>Complexity:</strong> %s/10</span>\n",
		complexityClass(g.ComplexityScore), formatScore(g.ComplexityScore)))
	if e.options.IncludeMetadata {
		sb.WriteString(fmt.Sprintf("                    <span class=\"meta-item\"><strong>Created:</strong> %s</span>\n", formatTimestamp(g.CreatedAt)))
		sb.WriteString(fmt.Sprintf("                    <span class=\"meta-item id\">%s</span>\n", html.EscapeString(g.ID)))
	}
	sb.WriteString("                </div>\n")

	sb.WriteString(fmt.Sprintf("                <div class=\"meter\"><div class=\"meter-fill %s\" style=\"width: %d%%\"></div></div>\n",
		complexityClass(g.ComplexityScore), complexityPercent(g.ComplexityScore)))

	sb.WriteString("                <ol class=\"tasks\">\n")
	for _, t := range g.Tasks {
		sb.WriteString(fmt.Sprintf("                    <li value=\"%d\">%s</li>\n", t.Order, html.EscapeString(t.Text)))
	}
	sb.WriteString("                </ol>\n")
	sb.WriteString("            </section>\n")

	return sb.String()
}

// complexityClass buckets a score for colouring.
func complexityClass(score float64) string {
	switch {
	case score <= 3:
		return "low"
	case score <= 7:
		return "medium"
	default:
		return "high"
	}
}

// complexityPercent maps the score range onto a 0-100 meter width.
func complexityPercent(score float64) int {
	score = model.ClampComplexity(score)
	return int(score * 10)
}

// =============================================================================
// STYLES
// =============================================================================

const htmlCSS = `    <style>
        * {
            margin: 0;
            padding: 0;
            box-sizing: border-box;
        }

        :root {
            --font-sans: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif;
            --font-mono: "SF Mono", "Monaco", "Inconsolata", "Fira Code", monospace;
        }

        /* Dark theme (default) */
        .dark-theme {
            --bg-primary: #1a1b26;
            --bg-secondary: #24283b;
            --bg-tertiary: #414868;
            --text-primary: #c0caf5;
            --text-secondary: #a9b1d6;
            --text-muted: #565f89;
            --border-color: #414868;
            --accent-green: #9ece6a;
            --accent-yellow: #e0af68;
            --accent-red: #f7768e;
        }

        /* Light theme */
        .light-theme {
            --bg-primary: #ffffff;
            --bg-secondary: #f7f8fa;
            --bg-tertiary: #e1e4e8;
            --text-primary: #24292e;
            --text-secondary: #586069;
            --text-muted: #6a737d;
            --border-color: #e1e4e8;
            --accent-green: #22863a;
            --accent-yellow: #b08800;
            --accent-red: #d73a49;
        }

        body {
            font-family: var(--font-sans);
            font-size: 16px;
            line-height: 1.6;
            color: var(--text-primary);
            background: var(--bg-primary);
            padding: 20px;
        }

        .container {
            max-width: 800px;
            margin: 0 auto;
            background: var(--bg-secondary);
            border-radius: 12px;
            overflow: hidden;
        }

        .header {
            padding: 24px 32px;
            background: var(--bg-tertiary);
        }

        .goal {
            padding: 24px 32px;
            border-bottom: 1px solid var(--border-color);
        }

        .goal h2 {
            font-size: 22px;
            margin-bottom: 8px;
        }

        .metadata {
            display: flex;
            flex-wrap: wrap;
            gap: 16px;
            font-size: 14px;
            color: var(--text-secondary);
        }

        .meta-item.id {
            font-family: var(--font-mono);
            color: var(--text-muted);
        }

        .meter {
            height: 6px;
            margin: 12px 0 16px;
            background: var(--bg-tertiary);
            border-radius: 3px;
        }

        .meter-fill {
            height: 100%;
            border-radius: 3px;
        }

        .low { --level: var(--accent-green); }
        .medium { --level: var(--accent-yellow); }
        .high { --level: var(--accent-red); }
        .meter-fill { background: var(--level); }
        .complexity strong { color: var(--level); }

        .tasks {
            padding-left: 24px;
        }

        .tasks li {
            margin: 6px 0;
        }

        .footer {
            padding: 16px 32px;
            font-size: 13px;
            color: var(--text-muted);
            text-align: center;
        }
    </style>
`
