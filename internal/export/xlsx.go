package export

import (
	"io"
	"math"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/markusj1201/SoHa-Priorities/internal/tabular"
)

// SheetName is the worksheet holding the exported rows.
const SheetName = "Priorities"

// XLSX writes a single-sheet workbook with a header row. Numeric and time
// columns keep their cell types.
func XLSX(w io.Writer, t *tabular.Table) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return eris.Wrap(err, "xlsx: add sheet")
	}

	header := sheet.AddRow()
	for _, name := range t.Names() {
		header.AddCell().SetString(name)
	}

	for _, row := range t.Rows {
		r := sheet.AddRow()
		for j := range t.Columns {
			var v any
			if j < len(row) {
				v = row[j]
			}
			setCell(r.AddCell(), v)
		}
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "xlsx: write workbook")
	}
	return nil
}

func setCell(c *xlsx.Cell, v any) {
	switch x := v.(type) {
	case float64:
		if !math.IsNaN(x) {
			c.SetFloat(x)
		}
	case int64:
		c.SetInt64(x)
	case int:
		c.SetInt(x)
	case time.Time:
		if !x.IsZero() {
			c.SetDateTime(x)
		}
	default:
		if s := Cell(v); s != "" {
			c.SetString(s)
		}
	}
}
