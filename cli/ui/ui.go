// Package ui renders patterngen's tables, banner and lists.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/AshkanYarmoradi/go-pattern/cli/styles"
)

// Table renders a boxed table.
type Table struct {
	headers []string
	rows    [][]string
	widths  []int
}

// NewTable creates a new table with headers
func NewTable(headers ...string) *Table {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	return &Table{
		headers: headers,
		rows:    make([][]string, 0),
		widths:  widths,
	}
}

// AddRow adds a row. Missing columns are left empty and extra values dropped.
func (t *Table) AddRow(values ...string) {
	row := make([]string, len(t.headers))
	for i := range t.headers {
		if i < len(values) {
			row[i] = values[i]
			if w := lipgloss.Width(values[i]); w > t.widths[i] {
				t.widths[i] = w
			}
		}
	}
	t.rows = append(t.rows, row)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Render returns the formatted table string
func (t *Table) Render() string {
	if len(t.headers) == 0 {
		return ""
	}

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(styles.Primary).
		Padding(0, 1)

	cellStyle := lipgloss.NewStyle().
		Foreground(styles.Text).
		Padding(0, 1)

	borderStyle := lipgloss.NewStyle().
		Foreground(styles.Border)

	rule := func(left, mid, right string) string {
		var sb strings.Builder
		sb.WriteString(borderStyle.Render(left))
		for i, w := range t.widths {
			sb.WriteString(borderStyle.Render(strings.Repeat("─", w+2)))
			if i < len(t.widths)-1 {
				sb.WriteString(borderStyle.Render(mid))
			}
		}
		sb.WriteString(borderStyle.Render(right))
		return sb.String()
	}

	line := func(cells []string, style lipgloss.Style) string {
		var sb strings.Builder
		sb.WriteString(borderStyle.Render("│"))
		for i, cell := range cells {
			sb.WriteString(style.Width(t.widths[i] + 2).Render(cell))
			sb.WriteString(borderStyle.Render("│"))
		}
		return sb.String()
	}

	lines := []string{
		rule("┌", "┬", "┐"),
		line(t.headers, headerStyle),
		rule("├", "┼", "┤"),
	}
	for _, row := range t.rows {
		lines = append(lines, line(row, cellStyle))
	}
	lines = append(lines, rule("└", "┴", "┘"))

	return strings.Join(lines, "\n")
}

// SimpleBanner returns a one-line banner
func SimpleBanner() string {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(styles.Primary).
		Render("patterngen") +
		" " +
		styles.Muted.Render("- accessor generator for go-pattern entities")
}

// NumberedList formats a numbered list
func NumberedList(items []string) string {
	var sb strings.Builder
	numStyle := lipgloss.NewStyle().
		Foreground(styles.Primary).
		Width(4)
	for i, item := range items {
		sb.WriteString(numStyle.Render(fmt.Sprintf("%d.", i+1)))
		sb.WriteString(styles.Normal.Render(item))
		sb.WriteString("\n")
	}
	return sb.String()
}
