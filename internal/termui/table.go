// Package termui renders search results on a terminal and lets the user
// pick rows interactively.
package termui

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Table writes rows as aligned columns. Widths are measured in terminal
// cells so accented street names line up.
func Table(w io.Writer, header []string, rows [][]string) error {
	widths := make([]int, len(header))
	measure := func(row []string) {
		for i := 0; i < len(row) && i < len(widths); i++ {
			if cw := runewidth.StringWidth(row[i]); cw > widths[i] {
				widths[i] = cw
			}
		}
	}
	measure(header)
	for _, row := range rows {
		measure(row)
	}

	if _, err := fmt.Fprintln(w, formatRow(header, widths)); err != nil {
		return err
	}
	sep := make([]string, len(widths))
	for i, cw := range widths {
		sep[i] = strings.Repeat("-", cw)
	}
	if _, err := fmt.Fprintln(w, formatRow(sep, widths)); err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := fmt.Fprintln(w, formatRow(row, widths)); err != nil {
			return err
		}
	}
	return nil
}

// Lines renders rows without a header, one string per row, for the picker.
func Lines(rows [][]string) []string {
	var widths []int
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			if cw := runewidth.StringWidth(cell); cw > widths[i] {
				widths[i] = cw
			}
		}
	}

	out := make([]string, len(rows))
	for i, row := range rows {
		out[i] = formatRow(row, widths)
	}
	return out
}

func formatRow(row []string, widths []int) string {
	var sb strings.Builder
	for i, cw := range widths {
		if i > 0 {
			sb.WriteString("  ")
		}
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		if i == len(widths)-1 {
			sb.WriteString(cell)
			continue
		}
		sb.WriteString(runewidth.FillRight(cell, cw))
	}
	return strings.TrimRight(sb.String(), " ")
}
