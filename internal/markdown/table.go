package markdown

import (
	"regexp"
	"strings"
)

type alignment string

const (
	alignLeft   alignment = "left"
	alignCenter alignment = "center"
	alignRight  alignment = "right"
)

var separatorCellRegex = regexp.MustCompile(`^:?-{3,}:?$`)

type table struct {
	header []string
	align  []alignment
	rows   [][]string
}

// detectTable checks whether lines[0] and lines[1] form a table header and
// separator. It returns the table and the number of lines it consumed, or
// nil when the table rule does not fire.
func detectTable(lines []string) (*table, int) {
	if len(lines) < 2 {
		return nil, 0
	}
	header, ok := splitRow(lines[0])
	if !ok || countNonEmpty(header) < 2 {
		return nil, 0
	}
	sep, ok := splitRow(lines[1])
	if !ok || len(sep) != len(header) {
		return nil, 0
	}

	align := make([]alignment, len(sep))
	for i, cell := range sep {
		if !separatorCellRegex.MatchString(cell) {
			return nil, 0
		}
		align[i] = cellAlignment(cell)
	}

	t := &table{header: header, align: align}
	consumed := 2
	for _, line := range lines[2:] {
		row, ok := splitRow(line)
		if !ok || len(row) != len(header) {
			break
		}
		t.rows = append(t.rows, row)
		consumed++
	}
	return t, consumed
}

// splitRow splits a pipe-delimited row into trimmed cells. Leading and
// trailing pipes are optional.
func splitRow(line string) ([]string, bool) {
	line = strings.TrimSpace(line)
	if !strings.Contains(line, "|") {
		return nil, false
	}
	line = strings.TrimPrefix(line, "|")
	line = strings.TrimSuffix(line, "|")
	cells := strings.Split(line, "|")
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	return cells, true
}

func countNonEmpty(cells []string) int {
	n := 0
	for _, c := range cells {
		if c != "" {
			n++
		}
	}
	return n
}

func cellAlignment(cell string) alignment {
	leading := strings.HasPrefix(cell, ":")
	trailing := strings.HasSuffix(cell, ":")
	switch {
	case leading && trailing:
		return alignCenter
	case trailing:
		return alignRight
	default:
		return alignLeft
	}
}

func (t *table) html() string {
	var sb strings.Builder
	sb.WriteString("<table><thead><tr>")
	for i, cell := range t.header {
		writeCell(&sb, "th", t.align[i], cell)
	}
	sb.WriteString("</tr></thead>")
	if len(t.rows) > 0 {
		sb.WriteString("<tbody>")
		for _, row := range t.rows {
			sb.WriteString("<tr>")
			for i, cell := range row {
				writeCell(&sb, "td", t.align[i], cell)
			}
			sb.WriteString("</tr>")
		}
		sb.WriteString("</tbody>")
	}
	sb.WriteString("</table>")
	return sb.String()
}

func writeCell(sb *strings.Builder, tag string, align alignment, content string) {
	sb.WriteString("<" + tag + ` style="text-align:` + string(align) + `">`)
	sb.WriteString(renderInline(content))
	sb.WriteString("</" + tag + ">")
}
