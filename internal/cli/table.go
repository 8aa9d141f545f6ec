package cli

import (
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// maxCellWidth caps a column so one long title cannot push the table off
// screen.
const maxCellWidth = 40

// writeTable prints rows as space-separated columns padded by display
// width, so umlauts and East Asian wide runes line up.
func writeTable(w io.Writer, header []string, rows [][]string) error {
	widths := make([]int, len(header))
	all := make([][]string, 0, len(rows)+1)

	for _, row := range append([][]string{header}, rows...) {
		cells := make([]string, len(widths))
		for i := 0; i < len(row) && i < len(widths); i++ {
			cells[i] = runewidth.Truncate(row[i], maxCellWidth, "…")
			if cw := runewidth.StringWidth(cells[i]); cw > widths[i] {
				widths[i] = cw
			}
		}
		all = append(all, cells)
	}

	var sb strings.Builder
	for _, row := range all {
		sb.Reset()
		for i := range widths {
			cell := row[i]
			if i == len(widths)-1 {
				sb.WriteString(cell)
				break
			}
			sb.WriteString(runewidth.FillRight(cell, widths[i]))
			sb.WriteString("  ")
		}
		line := strings.TrimRight(sb.String(), " ") + "\n"
		if _, err := io.WriteString(w, line); err != nil {
			return err
		}
	}
	return nil
}
