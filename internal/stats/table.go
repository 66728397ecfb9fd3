package stats

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

const columnGap = " "

// formatTable lays rows out under headers with a dashed rule between them.
// Columns whose cells are all numeric (counts, percentages, durations) are
// right-aligned.
func formatTable(headers []string, rows [][]string) []string {
	cols := len(headers)
	for _, row := range rows {
		cols = max(cols, len(row))
	}
	if cols == 0 {
		return nil
	}

	widths := make([]int, cols)
	numeric := make([]bool, cols)
	for i := range numeric {
		numeric[i] = len(rows) > 0
	}
	for i, header := range headers {
		widths[i] = runewidth.StringWidth(header)
	}
	for _, row := range rows {
		for i := 0; i < cols; i++ {
			cell := cellAt(row, i)
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
			if cell != "" && !isNumericCell(cell) {
				numeric[i] = false
			}
		}
	}

	lines := make([]string, 0, len(rows)+2)
	if len(headers) > 0 {
		lines = append(lines, joinCells(headers, widths, numeric))
		rule := make([]string, cols)
		for i, w := range widths {
			rule[i] = strings.Repeat("-", w)
		}
		lines = append(lines, strings.Join(rule, columnGap))
	}
	for _, row := range rows {
		lines = append(lines, joinCells(row, widths, numeric))
	}
	return lines
}

func joinCells(row []string, widths []int, rightAlign []bool) string {
	cells := make([]string, len(widths))
	for i, w := range widths {
		cell := cellAt(row, i)
		pad := strings.Repeat(" ", max(0, w-runewidth.StringWidth(cell)))
		if rightAlign[i] {
			cells[i] = pad + cell
		} else {
			cells[i] = cell + pad
		}
	}
	return strings.TrimRight(strings.Join(cells, columnGap), " ")
}

func cellAt(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

// isNumericCell accepts digits with optional '.', ':' separators and a
// trailing '%'.
func isNumericCell(cell string) bool {
	cell = strings.TrimSuffix(cell, "%")
	if cell == "" {
		return false
	}
	digits := 0
	for _, r := range cell {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.' || r == ':':
		default:
			return false
		}
	}
	return digits > 0
}
