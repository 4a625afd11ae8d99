package source

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/markusj1201/SoHa-Priorities/internal/config"
	"github.com/markusj1201/SoHa-Priorities/internal/resilience"
)

// Open loads the catalog and connects a backend for every system it
// references. On error, backends opened so far are closed.
func Open(ctx context.Context, cfg *config.Config) (*Router, error) {
	catalog, err := LoadCatalog(cfg.Sources.CatalogPath, cfg.Sources.QueryDir)
	if err != nil {
		return nil, err
	}
	if err := cfg.RequireSystems(catalog.Systems()...); err != nil {
		return nil, eris.Wrap(err, "source: open")
	}

	backends := make(map[string]Backend)
	closeAll := func() {
		for _, b := range backends {
			_ = b.Close()
		}
	}

	opts := []Option{
		WithTimeout(time.Duration(cfg.Sources.FetchTimeoutSecs) * time.Second),
		WithPolicy(resilience.PolicyFrom(
			cfg.Resilience.MaxAttempts,
			cfg.Resilience.InitialBackoffMs,
			cfg.Resilience.MaxBackoffMs,
		)),
		WithBreakers(resilience.NewBreakers(
			resilience.BreakerFrom(cfg.Resilience.FailureThreshold, cfg.Resilience.ResetTimeoutSecs),
			func(system string, from, to resilience.State) {
				zap.L().Warn("circuit state changed",
					zap.String("system", system),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
		)),
	}

	for _, name := range catalog.Systems() {
		sys, _ := cfg.Sources.System(name)
		b, err := openBackend(ctx, sys)
		if err != nil {
			closeAll()
			return nil, eris.Wrapf(err, "source: open %s", name)
		}
		backends[name] = b
		opts = append(opts, WithRateLimit(name, sys.RatePerSec, sys.Burst))
	}

	return NewRouter(catalog, backends, opts...), nil
}

func openBackend(ctx context.Context, sys config.SystemConfig) (Backend, error) {
	switch sys.Driver {
	case DriverPostgres:
		return NewPostgres(ctx, sys.DSN)
	case DriverSQLite:
		return NewSQLite(sys.DSN)
	case DriverCSV:
		return NewCSV(sys.Dir), nil
	default:
		return nil, eris.Errorf("source: unknown driver %q", sys.Driver)
	}
}
