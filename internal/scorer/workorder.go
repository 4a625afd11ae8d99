package scorer

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/markusj1201/SoHa-Priorities/internal/model"
	"github.com/markusj1201/SoHa-Priorities/internal/source"
	"github.com/markusj1201/SoHa-Priorities/internal/tabular"
	"github.com/markusj1201/SoHa-Priorities/internal/wellreg"
)

// DefaultWorkOrderSeverity applies to entries whose priority level is NULL
// or blank. Levels that are not whole numbers are skipped.
const DefaultWorkOrderSeverity model.Severity = 5

var workOrderCols = []string{"APINumber", "Route", "workOrderDescription", "workOrderPriorityLevel", "workOrderRequester"}

// WorkOrder passes open work-management entries through as priorities.
// Route, severity, description and assignee come from the entry.
type WorkOrder struct {
	src source.Source
}

// NewWorkOrder returns the work management scorer.
func NewWorkOrder(src source.Source) *WorkOrder {
	return &WorkOrder{src: src}
}

func (w *WorkOrder) Name() string             { return NameWorkManagement }
func (w *WorkOrder) Type() model.PriorityType { return model.TypeWorkManagement }

// Score implements Scorer.
func (w *WorkOrder) Score(ctx context.Context, reg *wellreg.Registry) model.Outcome {
	feed, err := fetch(ctx, w.src, source.QueryWorkManagement, workOrderCols...)
	if err != nil {
		return failed(w, err)
	}
	log := zap.L().With(zap.String("component", "scorer"), zap.String("scorer", w.Name()))
	wells := reg.WithoutRoute()

	var items []model.PriorityItem
	var skipped int
	err = feed.Each(func(r tabular.Row) error {
		api, err := r.String("APINumber")
		if err != nil {
			return err
		}
		route, err := r.String("Route")
		if err != nil {
			return err
		}
		desc, err := r.String("workOrderDescription")
		if err != nil {
			return err
		}
		requester, err := r.NullString("workOrderRequester")
		if err != nil {
			return err
		}

		level, err := r.NullInt("workOrderPriorityLevel")
		if err != nil {
			if !eris.Is(err, tabular.ErrInvalidValue) {
				return err
			}
			skipped++
			raw, _ := r.String("workOrderPriorityLevel")
			log.Warn("work order priority unreadable, skipping",
				zap.String("api", strings.TrimSpace(api)),
				zap.String("priority_level", raw),
			)
			return nil
		}
		sev := DefaultWorkOrderSeverity
		if level != nil {
			sev = model.Severity(*level)
		}
		if !sev.Valid() {
			skipped++
			log.Warn("work order priority out of range, skipping",
				zap.String("api", strings.TrimSpace(api)),
				zap.Int("priority_level", int(sev)),
			)
			return nil
		}

		for _, well := range wells.ByAPI10(api) {
			it := model.NewItem(well, w.Type())
			it.Route = route
			it.SeverityLevel = sev
			it.Description = desc
			if requester != nil {
				it.AssignedTo = *requester
			}
			items = append(items, it)
		}
		return nil
	})
	if err != nil {
		return failed(w, err)
	}
	if skipped > 0 {
		log.Warn("work orders skipped", zap.Int("count", skipped))
	}
	return finish(w, items)
}
