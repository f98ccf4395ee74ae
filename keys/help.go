package keys

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Format renders the key binding table as aligned text columns, one binding
// per line, under a header.
func (t *Table) Format() string {
	header := [3]string{"KeySym", "Command", "Description"}
	rows := append([][3]string{header}, t.Rows()...)

	var widths [3]int
	for _, r := range rows {
		for i, cell := range r {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	for _, r := range rows {
		line := runewidth.FillRight(r[0], widths[0]) + "  " + runewidth.FillRight(r[1], widths[1])
		if r[2] != "" {
			line += "  " + r[2]
		}
		b.WriteString(strings.TrimRight(line, " "))
		b.WriteByte('\n')
	}
	return b.String()
}
