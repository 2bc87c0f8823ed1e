// Package output provides utilities for formatting and displaying rendered
// dashboard tables and view models.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/iwvelando/finance-dashboard/internal/table"
)

// DefaultStyle is the glamour style used by PrettyFormat. "notty" keeps the
// output free of ANSI escapes.
const DefaultStyle = "notty"

// Markdown renders t as a markdown document: the title as a heading, a pipe
// table with the footer as its last row, and the caption.
func Markdown(t table.Table) string {
	var b strings.Builder
	if t.Title != "" {
		fmt.Fprintf(&b, "## %s\n\n", escapeMarkdown(t.Title))
	}

	grid := t.Grid()
	if len(grid) > 0 && len(grid[0]) > 0 {
		writeMarkdownRow(&b, grid[0])
		b.WriteString("|")
		for range grid[0] {
			b.WriteString(" --- |")
		}
		b.WriteString("\n")
		for _, row := range grid[1:] {
			writeMarkdownRow(&b, row)
		}
	}

	if t.Caption != "" {
		fmt.Fprintf(&b, "\n_%s_\n", escapeMarkdown(t.Caption))
	}
	return b.String()
}

func writeMarkdownRow(b *strings.Builder, cells []string) {
	b.WriteString("|")
	for _, c := range cells {
		fmt.Fprintf(b, " %s |", escapeMarkdown(c))
	}
	b.WriteString("\n")
}

var markdownEscaper = strings.NewReplacer("|", `\|`, "*", `\*`, "_", `\_`, "\n", " ")

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// RenderMarkdown renders a markdown document for the terminal with the given
// glamour style ("notty", "dark", "light", "auto").
func RenderMarkdown(md, style string) (string, error) {
	if style == "" {
		style = DefaultStyle
	}
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(0)}
	if style == "auto" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return out, nil
}

// PrettyFormat writes a human-readable rather than machine-readable table.
func PrettyFormat(w io.Writer, t table.Table, style string) error {
	out, err := RenderMarkdown(Markdown(t), style)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

// CsvFormat writes the table grid in comma-separated value format. Every
// field is quoted.
func CsvFormat(w io.Writer, t table.Table) error {
	for _, row := range t.Grid() {
		quoted := make([]string, len(row))
		for i, c := range row {
			quoted[i] = `"` + strings.ReplaceAll(c, `"`, `""`) + `"`
		}
		if _, err := fmt.Fprintln(w, strings.Join(quoted, ",")); err != nil {
			return err
		}
	}
	return nil
}

// JSONFormat writes v as indented JSON.
func JSONFormat(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode json: %w", err)
	}
	return nil
}
