package sink

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/markusj1201/SoHa-Priorities/internal/db"
	"github.com/markusj1201/SoHa-Priorities/internal/tabular"
)

// SQLite writes tables into one database file. SQLite has no schemas, so
// schema.table becomes the table "<schema>_<table>".
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the database at dsn.
func NewSQLite(dsn string) (*SQLite, error) {
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sink: open sqlite")
	}
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, eris.Wrap(err, "sink: exec PRAGMA busy_timeout")
	}
	return &SQLite{db: conn}, nil
}

// TableName returns the flattened table name used for schema.table.
func TableName(schema, table string) string {
	if schema == "" {
		return table
	}
	return schema + "_" + table
}

// Write implements Sink.
func (s *SQLite) Write(ctx context.Context, t *tabular.Table, table, schema string, mode Mode) error {
	if t == nil {
		return eris.New("sink: nil table")
	}
	name := TableName(schema, table)
	quoted := db.QuoteAndJoin([]string{name})

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sink: sqlite begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	if mode == ModeReplace {
		if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoted); err != nil {
			return eris.Wrapf(err, "sink: drop %s", name)
		}
	}

	defs := make([]string, len(t.Columns))
	names := make([]string, len(t.Columns))
	marks := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
		defs[i] = db.QuoteAndJoin([]string{c.Name}) + " " + sqliteType(c.Kind)
		marks[i] = "?"
	}
	create := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quoted, strings.Join(defs, ", "))
	if _, err := tx.ExecContext(ctx, create); err != nil {
		return eris.Wrapf(err, "sink: create %s", name)
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoted, db.QuoteAndJoin(names), strings.Join(marks, ", ")))
	if err != nil {
		return eris.Wrapf(err, "sink: prepare insert %s", name)
	}
	defer stmt.Close()

	for i, row := range storageRows(t) {
		for j, v := range row {
			if ts, ok := v.(time.Time); ok {
				row[j] = ts.Format("2006-01-02 15:04:05")
			}
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return eris.Wrapf(err, "sink: insert %s row %d", name, i)
		}
	}

	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "sink: sqlite commit tx")
	}
	zap.L().Info("sink: table written",
		zap.String("component", "sink"),
		zap.String("driver", DriverSQLite),
		zap.String("table", name),
		zap.String("mode", mode.String()),
		zap.Int("rows", t.Len()),
	)
	return nil
}

// Close implements Sink.
func (s *SQLite) Close() {
	s.db.Close() //nolint:errcheck
}

func sqliteType(k tabular.Kind) string {
	switch k {
	case tabular.Float:
		return "REAL"
	case tabular.Int:
		return "INTEGER"
	case tabular.Time:
		return "DATETIME"
	default:
		return "TEXT"
	}
}
