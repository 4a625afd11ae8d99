package source

import (
	"context"
	"database/sql"
	"strings"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/markusj1201/SoHa-Priorities/internal/tabular"
)

// SQLiteBackend runs catalog queries against a SQLite database file.
type SQLiteBackend struct {
	db *sql.DB
}

// NewSQLite opens the database at dsn.
func NewSQLite(dsn string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "sqlite: exec PRAGMA busy_timeout")
	}
	return &SQLiteBackend{db: db}, nil
}

// Driver implements Backend.
func (b *SQLiteBackend) Driver() string { return DriverSQLite }

// Query implements Backend.
func (b *SQLiteBackend) Query(ctx context.Context, q Query) (*tabular.Table, error) {
	rows, err := b.db.QueryContext(ctx, q.SQL)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: query %s", q.ID)
	}
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: columns %s", q.ID)
	}
	cols := make([]tabular.Column, len(types))
	for i, ct := range types {
		cols[i] = tabular.Column{Name: ct.Name(), Kind: kindForDecl(ct.DatabaseTypeName())}
	}
	t := tabular.New(cols...)

	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, eris.Wrapf(err, "sqlite: scan %s", q.ID)
		}
		t.Append(vals...)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "sqlite: iterate %s", q.ID)
	}
	return t, nil
}

// Ping implements Backend.
func (b *SQLiteBackend) Ping(ctx context.Context) error {
	return eris.Wrap(b.db.PingContext(ctx), "sqlite: ping")
}

// Close implements Backend.
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}

// kindForDecl maps a declared SQLite column type using the affinity rules.
func kindForDecl(decl string) tabular.Kind {
	d := strings.ToUpper(decl)
	switch {
	case strings.Contains(d, "INT"):
		return tabular.Int
	case strings.Contains(d, "REAL"), strings.Contains(d, "FLOA"), strings.Contains(d, "DOUB"), strings.Contains(d, "NUMERIC"), strings.Contains(d, "DECIMAL"):
		return tabular.Float
	case strings.Contains(d, "DATE"), strings.Contains(d, "TIME"):
		return tabular.Time
	default:
		return tabular.Text
	}
}
