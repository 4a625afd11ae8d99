package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// ColumnDef names a column and its SQL type.
type ColumnDef struct {
	Name string
	Type string
}

// ReplaceSpec describes a full-replace write.
type ReplaceSpec struct {
	Schema  string
	Table   string
	Columns []ColumnDef
}

// ReplaceTable drops and recreates schema.table and loads rows into it, all
// in one transaction, so readers see either the previous table or the new
// one. An empty rows slice still leaves an empty table behind.
//  1. CREATE SCHEMA IF NOT EXISTS
//  2. DROP TABLE IF EXISTS
//  3. CREATE TABLE from the column definitions
//  4. COPY rows
func ReplaceTable(ctx context.Context, pool Pool, spec ReplaceSpec, rows [][]any) (int64, error) {
	return writeTable(ctx, pool, spec, rows, true)
}

// AppendTable creates schema.table when missing and appends rows to it in
// one transaction.
func AppendTable(ctx context.Context, pool Pool, spec ReplaceSpec, rows [][]any) (int64, error) {
	return writeTable(ctx, pool, spec, rows, false)
}

func writeTable(ctx context.Context, pool Pool, spec ReplaceSpec, rows [][]any, replace bool) (int64, error) {
	if spec.Table == "" {
		return 0, eris.New("db: replace: no table specified")
	}
	if len(spec.Columns) == 0 {
		return 0, eris.New("db: replace: no columns specified")
	}
	qualified := spec.Table
	if spec.Schema != "" {
		qualified = spec.Schema + "." + spec.Table
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "db: replace: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if spec.Schema != "" {
		sql := fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", pgx.Identifier{spec.Schema}.Sanitize())
		if _, err := tx.Exec(ctx, sql); err != nil {
			return 0, eris.Wrapf(err, "db: replace: create schema %s", spec.Schema)
		}
	}

	if replace {
		if _, err := tx.Exec(ctx, "DROP TABLE IF EXISTS "+sanitizeTable(qualified)); err != nil {
			return 0, eris.Wrapf(err, "db: replace: drop %s", qualified)
		}
	}

	if _, err := tx.Exec(ctx, createTableSQL(qualified, spec.Columns, !replace)); err != nil {
		return 0, eris.Wrapf(err, "db: replace: create %s", qualified)
	}

	names := make([]string, len(spec.Columns))
	for i, c := range spec.Columns {
		names[i] = c.Name
	}

	var n int64
	if spec.Schema != "" {
		n, err = CopyFromSchema(ctx, tx, spec.Schema, spec.Table, names, rows)
	} else {
		n, err = CopyFrom(ctx, tx, spec.Table, names, rows)
	}
	if err != nil {
		return 0, eris.Wrapf(err, "db: replace: load %s", qualified)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "db: replace: commit tx")
	}
	return n, nil
}

func createTableSQL(table string, cols []ColumnDef, ifNotExists bool) string {
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = pgx.Identifier{c.Name}.Sanitize() + " " + c.Type
	}
	verb := "CREATE TABLE"
	if ifNotExists {
		verb = "CREATE TABLE IF NOT EXISTS"
	}
	return fmt.Sprintf("%s %s (%s)", verb, sanitizeTable(table), strings.Join(defs, ", "))
}

// sanitizeTable handles schema-qualified table names like "SoHa.Priorities_Test".
func sanitizeTable(table string) string {
	parts := strings.SplitN(table, ".", 2)
	if len(parts) == 2 {
		return pgx.Identifier{parts[0], parts[1]}.Sanitize()
	}
	return pgx.Identifier{table}.Sanitize()
}

// QuoteAndJoin quotes each column name and joins with commas.
func QuoteAndJoin(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}
	return strings.Join(quoted, ", ")
}
