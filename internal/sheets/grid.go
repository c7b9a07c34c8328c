package sheets

import (
	"strings"

	"forecast/internal/core"
)

// maxTitleLen is the longest sheet title Google Sheets accepts.
const maxTitleLen = 100

// Grid lays the matrix out as a table: a header row with the month labels
// followed by one row per category. Amounts are fixed to two decimals.
func Grid(m *core.Matrix) [][]string {
	months := m.Months()

	header := make([]string, 0, len(months)+1)
	header = append(header, "Category")
	for _, b := range months {
		header = append(header, b.Label())
	}

	out := [][]string{header}
	for _, row := range m.Rows() {
		line := make([]string, 0, len(row.Cells)+1)
		line = append(line, row.Category.String())
		for _, c := range row.Cells {
			line = append(line, core.FormatAmount(c.Amount))
		}
		out = append(out, line)
	}
	return out
}

// SheetTitle derives a valid sheet title from the project name.
func SheetTitle(p core.Project) string {
	title := strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', ':', '*', '?', '/', '\\', '\'':
			return -1
		}
		return r
	}, strings.TrimSpace(p.Name))
	title = strings.TrimSpace(title)
	if title == "" {
		title = "Project " + p.ID
	}
	if r := []rune(title); len(r) > maxTitleLen {
		title = string(r[:maxTitleLen])
	}
	return title
}
