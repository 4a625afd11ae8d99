// Package sink persists priority tables: the debug table mirroring the
// classified rows and the final table in the agreed schema.
package sink

import (
	"context"
	"math"
	"time"

	"github.com/rotisserie/eris"

	"github.com/markusj1201/SoHa-Priorities/internal/config"
	"github.com/markusj1201/SoHa-Priorities/internal/tabular"
)

// Mode selects how a write treats an existing table.
type Mode int

const (
	// ModeReplace drops and recreates the table.
	ModeReplace Mode = iota
	// ModeAppend creates the table when missing and adds rows.
	ModeAppend
)

// String returns the mode name.
func (m Mode) String() string {
	if m == ModeAppend {
		return "append"
	}
	return "replace"
}

// Driver names accepted in sink.driver.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverNone     = "none"
)

// Sink writes a table under a schema namespace.
type Sink interface {
	Write(ctx context.Context, t *tabular.Table, table, schema string, mode Mode) error
	Close()
}

// Open returns the sink named by cfg.Sink.Driver.
func Open(ctx context.Context, cfg *config.Config) (Sink, error) {
	switch cfg.Sink.Driver {
	case DriverPostgres:
		pg, err := NewPostgres(ctx, cfg.Sink.DSN)
		if err != nil {
			return nil, err
		}
		return pg, nil
	case DriverSQLite:
		lite, err := NewSQLite(cfg.Sink.DSN)
		if err != nil {
			return nil, err
		}
		return lite, nil
	case DriverNone, "":
		return Nop{}, nil
	default:
		return nil, eris.Errorf("sink: unknown driver %q", cfg.Sink.Driver)
	}
}

// Nop discards every write.
type Nop struct{}

// Write implements Sink.
func (Nop) Write(context.Context, *tabular.Table, string, string, Mode) error { return nil }

// Close implements Sink.
func (Nop) Close() {}

// cell converts a table value for storage: NaN and the zero time are NULL.
func cell(v any) any {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) {
			return nil
		}
	case time.Time:
		if x.IsZero() {
			return nil
		}
	case *float64:
		if x == nil {
			return nil
		}
		return cell(*x)
	case *string:
		if x == nil {
			return nil
		}
		return *x
	case *int:
		if x == nil {
			return nil
		}
		return int64(*x)
	case int:
		return int64(x)
	}
	return v
}

func storageRows(t *tabular.Table) [][]any {
	rows := make([][]any, len(t.Rows))
	for i, r := range t.Rows {
		out := make([]any, len(t.Columns))
		for j := range out {
			if j < len(r) {
				out[j] = cell(r[j])
			}
		}
		rows[i] = out
	}
	return rows
}
