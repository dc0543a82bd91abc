// Copyright (c) 2025 BVK Chaitanya

package tui

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/bvk/watchlist/watchlist"
	"github.com/charmbracelet/lipgloss"
)

// SelectColumns returns the named columns in the given order. Empty names
// select the default columns.
func SelectColumns(all []*watchlist.Column, names []string) ([]*watchlist.Column, error) {
	if len(names) == 0 {
		var cs []*watchlist.Column
		for _, c := range all {
			if c.Default {
				cs = append(cs, c)
			}
		}
		return cs, nil
	}

	var cs []*watchlist.Column
	for _, name := range names {
		i := slices.IndexFunc(all, func(c *watchlist.Column) bool { return c.Name == name })
		if i < 0 {
			return nil, fmt.Errorf("unknown column %q: %w", name, os.ErrInvalid)
		}
		cs = append(cs, all[i])
	}
	return cs, nil
}

// cells returns the header and the cell values of all rows.
func cells(rows []*watchlist.Row, columns []*watchlist.Column) (header []string, values [][]string) {
	for _, c := range columns {
		header = append(header, c.Title)
	}
	for _, r := range rows {
		var vs []string
		for _, c := range columns {
			vs = append(vs, c.Value(r))
		}
		values = append(values, vs)
	}
	return header, values
}

func columnWidths(header []string, values [][]string) []int {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, vs := range values {
		for i, v := range vs {
			widths[i] = max(widths[i], lipgloss.Width(v))
		}
	}
	return widths
}

func isNumeric(c *watchlist.Column) bool {
	return slices.Contains(strings.Fields(c.Classes), "number")
}

func pad(s string, width int, right bool) string {
	gap := width - lipgloss.Width(s)
	if gap <= 0 {
		return s
	}
	if right {
		return strings.Repeat(" ", gap) + s
	}
	return s + strings.Repeat(" ", gap)
}

// Print writes the rows of a watchlist as a plain text table. Trailing
// separators are skipped.
func Print(out io.Writer, w *watchlist.Watchlist, columns []*watchlist.Column) error {
	rows := w.Rows()
	for len(rows) > 0 && rows[len(rows)-1].IsSeparator() {
		rows = rows[:len(rows)-1]
	}

	header, values := cells(rows, columns)
	widths := columnWidths(header, values)
	selected := w.Selected()

	line := func(marker string, vs []string) string {
		var parts []string
		for i, v := range vs {
			parts = append(parts, pad(v, widths[i], isNumeric(columns[i])))
		}
		return strings.TrimRight(marker+" "+strings.Join(parts, "  "), " ")
	}

	var sb strings.Builder
	sb.WriteString(line(" ", header))
	sb.WriteByte('\n')
	for i, vs := range values {
		marker := " "
		if i == selected {
			marker = "*"
		}
		sb.WriteString(line(marker, vs))
		sb.WriteByte('\n')
	}
	_, err := io.WriteString(out, sb.String())
	return err
}
