package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/markusj1201/SoHa-Priorities/internal/aggregate"
	"github.com/markusj1201/SoHa-Priorities/internal/config"
	"github.com/markusj1201/SoHa-Priorities/internal/model"
	"github.com/markusj1201/SoHa-Priorities/internal/monitoring"
	"github.com/markusj1201/SoHa-Priorities/internal/runlog"
	"github.com/markusj1201/SoHa-Priorities/internal/scorer"
	"github.com/markusj1201/SoHa-Priorities/internal/sink"
	"github.com/markusj1201/SoHa-Priorities/internal/source"
	"github.com/markusj1201/SoHa-Priorities/internal/wellreg"
)

// DefaultMaxConcurrency bounds concurrent scorers when config leaves it unset.
const DefaultMaxConcurrency = 5

// Notifier publishes a finished run.
type Notifier interface {
	Notify(ctx context.Context, snap *monitoring.RunSnapshot) []monitoring.Alert
}

// Target names a sink table.
type Target struct {
	Schema string
	Table  string
}

// Deps are the collaborators of a run. Nil Sink, RunLog and Notifier are
// replaced with no-ops; a nil Archive disables archiving.
type Deps struct {
	Source   source.Source
	Sink     sink.Sink
	Archive  *sink.Archive
	RunLog   runlog.Recorder
	Notifier Notifier
}

// Options tune a run.
type Options struct {
	DryRun         bool
	MaxConcurrency int
	Scorers        scorer.Options
	Debug          Target
	Final          Target
}

// OptionsFrom reads run options from cfg.
func OptionsFrom(cfg *config.Config) Options {
	return Options{
		MaxConcurrency: cfg.Priorities.MaxConcurrency,
		Scorers: scorer.Options{
			SiteManager:       cfg.Priorities.SiteManager,
			DefermentAssignee: cfg.Priorities.DefermentAssignee,
			Enabled:           cfg.Priorities.Enabled,
		},
		Debug: Target{Schema: cfg.Sink.DebugSchema, Table: cfg.Sink.DebugTable},
		Final: Target{Schema: cfg.Sink.FinalSchema, Table: cfg.Sink.FinalTable},
	}
}

// Pipeline runs the daily priority computation: registry, scorers,
// aggregation, then the two sink writes.
type Pipeline struct {
	deps Deps
	opts Options
	now  func() time.Time
}

// New creates a Pipeline.
func New(deps Deps, opts Options) *Pipeline {
	if deps.Sink == nil {
		deps.Sink = sink.Nop{}
	}
	if deps.RunLog == nil {
		deps.RunLog = runlog.Nop{}
	}
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = DefaultMaxConcurrency
	}
	return &Pipeline{deps: deps, opts: opts, now: time.Now}
}

// Run executes one pass. A registry or sink failure returns an error along
// with the partial report; scorer failures never do.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	rep := &Report{RunID: uuid.New(), StartedAt: p.now(), DryRun: p.opts.DryRun}
	log := zap.L().With(zap.String("component", "pipeline"), zap.String("run_id", rep.RunID.String()))
	log.Info("pipeline: starting run", zap.Bool("dry_run", p.opts.DryRun))

	if err := p.deps.RunLog.Start(ctx, rep.RunID, rep.StartedAt); err != nil {
		log.Warn("pipeline: failed to record run start", zap.Error(err))
	}

	reg, err := wellreg.Build(ctx, p.deps.Source)
	if err != nil {
		rep.RegistryErr = err
		rep.Elapsed = time.Since(rep.StartedAt)
		log.Error("pipeline: registry build failed, no scorer will run", zap.Error(err))
		p.finish(ctx, rep, log)
		return rep, eris.Wrap(err, "pipeline: build registry")
	}
	rep.RegistrySize = reg.Len()

	rep.Outcomes = p.score(ctx, reg)
	rep.Rows = aggregate.Aggregate(rep.Outcomes, rep.StartedAt)
	rep.Final = aggregate.Project(rep.Rows)

	if !p.opts.DryRun {
		rep.SinkErr = p.write(ctx, rep)
	}
	rep.Elapsed = time.Since(rep.StartedAt)
	p.finish(ctx, rep, log)

	if rep.SinkErr != nil {
		return rep, rep.SinkErr
	}
	log.Info("pipeline: run complete",
		zap.Int("wells", rep.RegistrySize),
		zap.Int("rows", len(rep.Rows)),
		zap.Duration("elapsed", rep.Elapsed),
	)
	return rep, nil
}

// score runs every scorer concurrently. Each goroutine writes only its own
// slot and never returns an error.
func (p *Pipeline) score(ctx context.Context, reg *wellreg.Registry) []model.Outcome {
	scorers := scorer.Set(p.deps.Source, p.opts.Scorers)
	outcomes := make([]model.Outcome, len(scorers))

	var g errgroup.Group
	g.SetLimit(p.opts.MaxConcurrency)
	for i, s := range scorers {
		g.Go(func() error {
			outcomes[i] = scorer.Guard(ctx, s, reg)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

// write persists the debug table, then the final table, and archives both.
func (p *Pipeline) write(ctx context.Context, rep *Report) error {
	debug := sink.DebugTable(rep.Rows)
	if err := p.deps.Sink.Write(ctx, debug, p.opts.Debug.Table, p.opts.Debug.Schema, sink.ModeReplace); err != nil {
		return eris.Wrap(err, "pipeline: write debug table")
	}
	final := sink.FinalTable(rep.Final)
	if err := p.deps.Sink.Write(ctx, final, p.opts.Final.Table, p.opts.Final.Schema, sink.ModeReplace); err != nil {
		return eris.Wrap(err, "pipeline: write final table")
	}
	p.deps.Archive.Keep(ctx, debug, p.opts.Debug.Table, p.opts.Debug.Schema, rep.StartedAt)
	p.deps.Archive.Keep(ctx, final, p.opts.Final.Table, p.opts.Final.Schema, rep.StartedAt)
	return nil
}

// finish records the run in the run log and notifies monitoring. Failures
// here are logged only.
func (p *Pipeline) finish(ctx context.Context, rep *Report, log *zap.Logger) {
	res := runlog.Result{
		RegistrySize: rep.RegistrySize,
		RowsWritten:  rep.RowsWritten(),
		Outcomes:     rep.Summaries(),
	}
	var err error
	switch {
	case rep.RegistryErr != nil:
		err = p.deps.RunLog.Fail(ctx, rep.RunID, runlog.StatusRegistryFailed, rep.RegistryErr.Error(), res)
	case rep.SinkErr != nil:
		err = p.deps.RunLog.Fail(ctx, rep.RunID, runlog.StatusFailed, rep.SinkErr.Error(), res)
	default:
		err = p.deps.RunLog.Complete(ctx, rep.RunID, res)
	}
	if err != nil {
		log.Warn("pipeline: failed to record run end", zap.Error(err))
	}

	if p.deps.Notifier != nil {
		rep.Alerts = p.deps.Notifier.Notify(ctx, rep.Snapshot())
	}
}
