package source

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/markusj1201/SoHa-Priorities/internal/db"
	"github.com/markusj1201/SoHa-Priorities/internal/tabular"
)

// PostgresBackend runs catalog queries through a pgx pool.
type PostgresBackend struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres opens a pool against dsn and verifies it with a ping.
func NewPostgres(ctx context.Context, dsn string) (*PostgresBackend, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	cfg.MaxConns = 4
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresBackend{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool. Close is a no-op.
func NewPostgresFromPool(pool db.Pool) *PostgresBackend {
	return &PostgresBackend{pool: pool}
}

// Driver implements Backend.
func (b *PostgresBackend) Driver() string { return DriverPostgres }

// Query implements Backend.
func (b *PostgresBackend) Query(ctx context.Context, q Query) (*tabular.Table, error) {
	rows, err := b.pool.Query(ctx, q.SQL)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: query %s", q.ID)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	cols := make([]tabular.Column, len(fields))
	for i, f := range fields {
		cols[i] = tabular.Column{Name: f.Name, Kind: kindForOID(f.DataTypeOID)}
	}
	t := tabular.New(cols...)

	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, eris.Wrapf(err, "postgres: scan %s", q.ID)
		}
		t.Append(vals...)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "postgres: iterate %s", q.ID)
	}
	return t, nil
}

// Ping implements Backend.
func (b *PostgresBackend) Ping(ctx context.Context) error {
	return eris.Wrap(b.pool.Ping(ctx), "postgres: ping")
}

// Close implements Backend.
func (b *PostgresBackend) Close() error {
	if b.closeFn != nil {
		b.closeFn()
	}
	return nil
}

func kindForOID(oid uint32) tabular.Kind {
	switch oid {
	case pgtype.Float4OID, pgtype.Float8OID, pgtype.NumericOID:
		return tabular.Float
	case pgtype.Int2OID, pgtype.Int4OID, pgtype.Int8OID:
		return tabular.Int
	case pgtype.DateOID, pgtype.TimestampOID, pgtype.TimestamptzOID:
		return tabular.Time
	default:
		return tabular.Text
	}
}
