// Package export renders priority tables for people: an aligned text
// table, CSV, an XLSX workbook or a GeoJSON map layer of well locations.
package export

import (
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/markusj1201/SoHa-Priorities/internal/tabular"
)

// Output formats.
const (
	FormatTable   = "table"
	FormatCSV     = "csv"
	FormatXLSX    = "xlsx"
	FormatGeoJSON = "geojson"
)

// ErrUnknownFormat is returned for an unsupported format name.
var ErrUnknownFormat = eris.New("export: unknown format")

// Formats lists the supported format names.
func Formats() []string {
	return []string{FormatTable, FormatCSV, FormatXLSX, FormatGeoJSON}
}

// FormatFromPath infers a format from a file extension, defaulting to CSV.
func FormatFromPath(path string) string {
	switch {
	case strings.HasSuffix(strings.ToLower(path), ".xlsx"):
		return FormatXLSX
	case strings.HasSuffix(strings.ToLower(path), ".geojson"), strings.HasSuffix(strings.ToLower(path), ".json"):
		return FormatGeoJSON
	case strings.HasSuffix(strings.ToLower(path), ".txt"):
		return FormatTable
	default:
		return FormatCSV
	}
}

// Write renders t to w in the named format.
func Write(w io.Writer, format string, t *tabular.Table) error {
	if t == nil {
		return eris.New("export: nil table")
	}
	switch strings.ToLower(format) {
	case FormatTable, "":
		return Text(w, t)
	case FormatCSV:
		return CSV(w, t)
	case FormatXLSX:
		return XLSX(w, t)
	case FormatGeoJSON:
		return GeoJSON(w, t)
	default:
		return eris.Wrapf(ErrUnknownFormat, "export: %q", format)
	}
}

// Cell renders a value as text. NULL, NaN and the zero time are empty.
func Cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		if math.IsNaN(x) {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return x.Format("2006-01-02 15:04:05")
	case *string:
		if x == nil {
			return ""
		}
		return *x
	case *int:
		if x == nil {
			return ""
		}
		return strconv.Itoa(*x)
	case *float64:
		if x == nil {
			return ""
		}
		return Cell(*x)
	}
	t := tabular.FromNames("v")
	t.Append(v)
	s, _ := t.Row(0).String("v")
	return s
}
