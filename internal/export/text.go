package export

import (
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/markusj1201/SoHa-Priorities/internal/tabular"
)

// maxTextWidth truncates long cells such as descriptions.
const maxTextWidth = 60

var printer = message.NewPrinter(language.English)

// Text writes an aligned table for terminals. Floats are grouped with
// thousands separators and rounded to one decimal.
func Text(w io.Writer, t *tabular.Table) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(t.Names(), "\t"))

	cells := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for j := range cells {
			var v any
			if j < len(row) {
				v = row[j]
			}
			cells[j] = textCell(v)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return eris.Wrap(tw.Flush(), "export: flush text table")
}

func textCell(v any) string {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) {
			return "-"
		}
		return printer.Sprintf("%.1f", x)
	case int64:
		return printer.Sprintf("%d", x)
	}
	s := Cell(v)
	if s == "" {
		return "-"
	}
	s = strings.ReplaceAll(s, "\t", " ")
	if r := []rune(s); len(r) > maxTextWidth {
		s = string(r[:maxTextWidth-3]) + "..."
	}
	return s
}
