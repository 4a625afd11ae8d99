// Package scorer turns the well registry and the per-category feeds into
// severity-banded priority items. Each scorer returns an explicit Outcome;
// no error or panic crosses a scorer boundary.
package scorer

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/markusj1201/SoHa-Priorities/internal/model"
	"github.com/markusj1201/SoHa-Priorities/internal/source"
	"github.com/markusj1201/SoHa-Priorities/internal/tabular"
	"github.com/markusj1201/SoHa-Priorities/internal/wellreg"
)

// Scorer names, also used as config keys under priorities.scorers.
const (
	NameDeferment           = "deferment"
	NameWorkManagement      = "work_management"
	NameFlood               = "flood"
	NameSiteInspection      = "site_inspection"
	NameTelemetry           = "telemetry"
	NameCumulativeDeferment = "cumulative_deferment"
)

// Scorer produces priority items for one category.
type Scorer interface {
	Name() string
	Type() model.PriorityType
	Score(ctx context.Context, reg *wellreg.Registry) model.Outcome
}

// Guard runs s, converting a panic into a Failed outcome, stamping the
// elapsed time and logging the result.
func Guard(ctx context.Context, s Scorer, reg *wellreg.Registry) (out model.Outcome) {
	log := zap.L().With(zap.String("component", "scorer"), zap.String("scorer", s.Name()))
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			out = model.Failed(s.Name(), s.Type(), model.ReasonPanic, eris.Errorf("scorer: %s panicked: %v", s.Name(), r))
		}
		out.Elapsed = time.Since(start)

		fields := []zap.Field{
			zap.String("status", string(out.Status)),
			zap.Int("items", out.Count),
			zap.Duration("elapsed", out.Elapsed),
		}
		if out.Reason != "" {
			fields = append(fields, zap.String("reason", out.Reason))
		}
		if out.Status == model.StatusFailed {
			log.Warn("scorer failed", append(fields, zap.Error(out.Err))...)
			return
		}
		log.Info("scorer finished", fields...)
	}()

	return s.Score(ctx, reg)
}

// failed classifies err: missing columns are bad input, anything else is
// the source.
func failed(s Scorer, err error) model.Outcome {
	reason := model.ReasonSourceUnavailable
	if eris.Is(err, tabular.ErrMissingColumn) || eris.Is(err, tabular.ErrInvalidValue) {
		reason = model.ReasonInvalidInput
	}
	return model.Failed(s.Name(), s.Type(), reason, err)
}

// finish deduplicates items and wraps them in an Outcome.
func finish(s Scorer, items []model.PriorityItem) model.Outcome {
	return model.OK(s.Name(), s.Type(), model.DedupeItems(items))
}

type disabled struct {
	Scorer
}

func (d disabled) Score(context.Context, *wellreg.Registry) model.Outcome {
	return model.Empty(d.Name(), d.Type(), model.ReasonDisabled)
}

// Disabled wraps s so it always reports Empty(disabled).
func Disabled(s Scorer) Scorer {
	return disabled{Scorer: s}
}

// Options configures the scorer set.
type Options struct {
	// SiteManager is assigned every flood item.
	SiteManager string
	// DefermentAssignee is assigned every deferment item; empty means nobody.
	DefermentAssignee string
	// Enabled reports whether a scorer runs. Nil enables every scorer.
	Enabled func(name string) bool
}

func (o Options) enabled(name string) bool {
	return o.Enabled == nil || o.Enabled(name)
}

// Set returns the scorers in aggregation order.
func Set(src source.Source, opts Options) []Scorer {
	all := []Scorer{
		NewDeferment(opts.DefermentAssignee),
		NewWorkOrder(src),
		NewFlood(src, opts.SiteManager),
		NewSiteInspection(src),
		NewTelemetry(src),
		NewCumulativeDeferment(src),
	}
	for i, s := range all {
		if !opts.enabled(s.Name()) {
			all[i] = Disabled(s)
		}
	}
	return all
}
