package tabular

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rotisserie/eris"
)

// timeLayouts are tried in order when a time column arrives as text.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006",
}

// String returns the text form of a cell; NULL becomes "".
func (r Row) String(col string) (string, error) {
	v, err := r.Value(col)
	if err != nil {
		return "", err
	}
	return toString(v), nil
}

// NullString returns nil for NULL cells and for blank text.
func (r Row) NullString(col string) (*string, error) {
	v, err := r.Value(col)
	if err != nil || v == nil {
		return nil, err
	}
	s := toString(v)
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	return &s, nil
}

// Float returns the numeric value of a cell; NULL or unparseable values
// become NaN so comparisons involving them are false.
func (r Row) Float(col string) (float64, error) {
	v, err := r.Value(col)
	if err != nil {
		return math.NaN(), err
	}
	f, ok := toFloat(v)
	if !ok {
		return math.NaN(), nil
	}
	return f, nil
}

// NullFloat returns nil for NULL or unparseable values.
func (r Row) NullFloat(col string) (*float64, error) {
	v, err := r.Value(col)
	if err != nil {
		return nil, err
	}
	f, ok := toFloat(v)
	if !ok || math.IsNaN(f) {
		return nil, nil
	}
	return &f, nil
}

// NullInt returns nil for NULL, blank and NaN cells. Text that is not a
// number, and fractional values, yield ErrInvalidValue.
func (r Row) NullInt(col string) (*int, error) {
	v, err := r.Value(col)
	if err != nil {
		return nil, err
	}
	f, ok := toFloat(v)
	if !ok {
		if s := strings.TrimSpace(toString(v)); s != "" && !strings.EqualFold(s, "nan") && !strings.EqualFold(s, "null") {
			return nil, eris.Wrapf(ErrInvalidValue, "tabular: column %s: not a number %q", col, s)
		}
		return nil, nil
	}
	if math.IsNaN(f) {
		return nil, nil
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return nil, eris.Wrapf(ErrInvalidValue, "tabular: column %s: not an integer %v", col, f)
	}
	n := int(f)
	return &n, nil
}

// Time returns the time value of a cell; NULL becomes the zero time.
func (r Row) Time(col string) (time.Time, error) {
	v, err := r.Value(col)
	if err != nil {
		return time.Time{}, err
	}
	switch x := v.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return x, nil
	case pgtype.Timestamp:
		return x.Time, nil
	case pgtype.Timestamptz:
		return x.Time, nil
	case pgtype.Date:
		return x.Time, nil
	}
	s := strings.TrimSpace(toString(v))
	if s == "" || strings.EqualFold(s, "null") || s == "NaT" {
		return time.Time{}, nil
	}
	for _, layout := range timeLayouts {
		if t, perr := time.Parse(layout, s); perr == nil {
			return t, nil
		}
	}
	return time.Time{}, eris.Wrapf(ErrInvalidValue, "tabular: column %s: unparseable time %q", col, s)
}

func toString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int:
		return strconv.Itoa(x)
	case time.Time:
		return x.Format("2006-01-02 15:04:05")
	case pgtype.Numeric:
		f, err := x.Float64Value()
		if err != nil || !f.Valid {
			return ""
		}
		return strconv.FormatFloat(f.Float64, 'f', -1, 64)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	case int16:
		return float64(x), true
	case int:
		return float64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case pgtype.Numeric:
		f, err := x.Float64Value()
		if err != nil || !f.Valid {
			return 0, false
		}
		return f.Float64, true
	case pgtype.Float8:
		return x.Float64, x.Valid
	}
	s := strings.TrimSpace(toString(v))
	if s == "" || strings.EqualFold(s, "nan") || strings.EqualFold(s, "null") {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
