package export

import (
	"encoding/csv"
	"io"

	"github.com/rotisserie/eris"

	"github.com/markusj1201/SoHa-Priorities/internal/tabular"
)

// CSV writes a header row then one record per row.
func CSV(w io.Writer, t *tabular.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Names()); err != nil {
		return eris.Wrap(err, "export: csv header")
	}
	rec := make([]string, len(t.Columns))
	for i, row := range t.Rows {
		for j := range rec {
			rec[j] = ""
			if j < len(row) {
				rec[j] = Cell(row[j])
			}
		}
		if err := cw.Write(rec); err != nil {
			return eris.Wrapf(err, "export: csv row %d", i)
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: csv flush")
}
