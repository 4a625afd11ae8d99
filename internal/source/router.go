package source

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/markusj1201/SoHa-Priorities/internal/resilience"
	"github.com/markusj1201/SoHa-Priorities/internal/tabular"
)

// DefaultFetchTimeout bounds a single fetch when no timeout is configured.
const DefaultFetchTimeout = 2 * time.Minute

// Router implements Source over a catalog and one backend per system. Each
// fetch is throttled, guarded by the system's circuit breaker, retried per
// policy, and bounded by a timeout.
type Router struct {
	catalog  *Catalog
	backends map[string]Backend
	limiters map[string]*rate.Limiter
	breakers *resilience.Breakers
	policy   resilience.Policy
	timeout  time.Duration
	log      *zap.Logger
}

// Option configures a Router.
type Option func(*Router)

// WithTimeout bounds each fetch. Zero keeps DefaultFetchTimeout.
func WithTimeout(d time.Duration) Option {
	return func(r *Router) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithPolicy sets the retry policy applied to each fetch.
func WithPolicy(p resilience.Policy) Option {
	return func(r *Router) { r.policy = p }
}

// WithBreakers sets the per-system circuit breakers.
func WithBreakers(b *resilience.Breakers) Option {
	return func(r *Router) { r.breakers = b }
}

// WithRateLimit throttles fetches against system. A non-positive rate
// leaves the system unthrottled.
func WithRateLimit(system string, perSec float64, burst int) Option {
	return func(r *Router) {
		if perSec <= 0 {
			return
		}
		if burst < 1 {
			burst = 1
		}
		r.limiters[strings.ToLower(system)] = rate.NewLimiter(rate.Limit(perSec), burst)
	}
}

// NewRouter builds a router. backends is keyed by system name; lookups
// ignore case.
func NewRouter(catalog *Catalog, backends map[string]Backend, opts ...Option) *Router {
	r := &Router{
		catalog:  catalog,
		backends: make(map[string]Backend, len(backends)),
		limiters: make(map[string]*rate.Limiter),
		breakers: resilience.NewBreakers(resilience.DefaultBreakerConfig(), nil),
		policy:   resilience.DefaultPolicy(),
		timeout:  DefaultFetchTimeout,
		log:      zap.L().With(zap.String("component", "source")),
	}
	for name, b := range backends {
		r.backends[strings.ToLower(name)] = b
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Catalog returns the router's query catalog.
func (r *Router) Catalog() *Catalog { return r.catalog }

// Fetch implements Source.
func (r *Router) Fetch(ctx context.Context, queryID string) (*tabular.Table, error) {
	q, err := r.catalog.Lookup(queryID)
	if err != nil {
		return nil, err
	}
	key := strings.ToLower(q.System)
	backend, ok := r.backends[key]
	if !ok {
		return nil, eris.Wrapf(ErrUnknownSystem, "source: %s (query %s)", q.System, queryID)
	}
	if backend.Driver() != DriverCSV {
		text, err := r.catalog.Text(q)
		if err != nil {
			return nil, err
		}
		q.SQL = text
	}

	policy := r.policy
	if policy.OnRetry == nil {
		policy.OnRetry = resilience.RetryLogger(q.System, queryID)
	}
	breaker := r.breakers.Get(q.System)

	start := time.Now()
	t, err := resilience.DoVal(ctx, policy, func(ctx context.Context) (*tabular.Table, error) {
		return resilience.ExecuteVal(ctx, breaker, func(ctx context.Context) (*tabular.Table, error) {
			if lim, ok := r.limiters[key]; ok {
				if err := lim.Wait(ctx); err != nil {
					return nil, eris.Wrap(err, "source: rate limit wait")
				}
			}
			fctx, cancel := context.WithTimeout(ctx, r.timeout)
			defer cancel()
			return backend.Query(fctx, q)
		})
	})
	if err != nil {
		r.log.Warn("fetch failed",
			zap.String("query", queryID),
			zap.String("system", q.System),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return nil, eris.Wrapf(err, "source: fetch %s from %s", queryID, q.System)
	}

	r.log.Debug("fetched",
		zap.String("query", queryID),
		zap.String("system", q.System),
		zap.Int("rows", t.Len()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return t, nil
}

// CheckResult is the outcome of pinging one system.
type CheckResult struct {
	System  string
	Driver  string
	Queries []string
	Elapsed time.Duration
	Err     error
}

// Check pings every system the catalog references. Systems without a
// backend are reported with ErrUnknownSystem.
func (r *Router) Check(ctx context.Context) []CheckResult {
	bySystem := make(map[string][]string)
	for _, q := range r.catalog.Queries() {
		bySystem[q.System] = append(bySystem[q.System], q.ID)
	}

	systems := r.catalog.Systems()
	out := make([]CheckResult, 0, len(systems))
	for _, sys := range systems {
		res := CheckResult{System: sys, Queries: bySystem[sys]}
		backend, ok := r.backends[strings.ToLower(sys)]
		if !ok {
			res.Err = eris.Wrapf(ErrUnknownSystem, "source: %s", sys)
			out = append(out, res)
			continue
		}
		res.Driver = backend.Driver()
		start := time.Now()
		pctx, cancel := context.WithTimeout(ctx, r.timeout)
		res.Err = backend.Ping(pctx)
		cancel()
		res.Elapsed = time.Since(start)
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].System < out[j].System })
	return out
}

// Breakers returns the circuit breaker state per system that has been
// fetched from.
func (r *Router) Breakers() map[string]resilience.State {
	return r.breakers.Snapshot()
}

// Close closes every backend.
func (r *Router) Close() error {
	var first error
	for _, b := range r.backends {
		if err := b.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
