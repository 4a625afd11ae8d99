package sink

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/markusj1201/SoHa-Priorities/internal/db"
	"github.com/markusj1201/SoHa-Priorities/internal/tabular"
)

// Postgres writes tables through COPY inside a single transaction.
type Postgres struct {
	pool  db.Pool
	close func()
}

// NewPostgres connects to dsn.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sink: parse postgres dsn")
	}
	cfg.MaxConns = 2
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "sink: connect postgres")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "sink: ping postgres")
	}
	return &Postgres{pool: pool, close: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool. Close is a no-op.
func NewPostgresFromPool(pool db.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Write implements Sink.
func (p *Postgres) Write(ctx context.Context, t *tabular.Table, table, schema string, mode Mode) error {
	if t == nil {
		return eris.New("sink: nil table")
	}
	spec := db.ReplaceSpec{Schema: schema, Table: table, Columns: pgColumns(t.Columns)}
	write := db.ReplaceTable
	if mode == ModeAppend {
		write = db.AppendTable
	}
	n, err := write(ctx, p.pool, spec, storageRows(t))
	if err != nil {
		return eris.Wrapf(err, "sink: write %s.%s", schema, table)
	}
	zap.L().Info("sink: table written",
		zap.String("component", "sink"),
		zap.String("driver", DriverPostgres),
		zap.String("schema", schema),
		zap.String("table", table),
		zap.String("mode", mode.String()),
		zap.Int64("rows", n),
	)
	return nil
}

// Close implements Sink.
func (p *Postgres) Close() {
	if p.close != nil {
		p.close()
	}
}

func pgColumns(cols []tabular.Column) []db.ColumnDef {
	defs := make([]db.ColumnDef, len(cols))
	for i, c := range cols {
		defs[i] = db.ColumnDef{Name: c.Name, Type: pgType(c.Kind)}
	}
	return defs
}

func pgType(k tabular.Kind) string {
	switch k {
	case tabular.Float:
		return "DOUBLE PRECISION"
	case tabular.Int:
		return "BIGINT"
	case tabular.Time:
		return "TIMESTAMP"
	default:
		return "TEXT"
	}
}
