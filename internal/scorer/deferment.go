package scorer

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/markusj1201/SoHa-Priorities/internal/model"
	"github.com/markusj1201/SoHa-Priorities/internal/wellreg"
)

// defermentBands partition the deferment quantile. Low quantiles are the
// heaviest deferrers.
var defermentBands = Bands{
	{Lo: negInf, Hi: 0.25, Severity: 2, Label: "Top 25% deferring wells: "},
	{Lo: 0.25, Hi: 0.50, Severity: 3, Label: "Top 25%-50% wells deferring: "},
	{Lo: 0.50, Hi: 0.75, Severity: 4, Label: "Top 50%-75% wells deferring: "},
	{Lo: 0.75, Hi: posInf, Severity: 5, Label: "Bottom 25% wells deferring: "},
}

// Deferment ranks wells producing below their clean-average lower bound.
// It needs no feed beyond the registry.
type Deferment struct {
	assignee string
}

// NewDeferment returns the deferment scorer. An empty assignee leaves
// AssignedTo unset.
func NewDeferment(assignee string) *Deferment {
	return &Deferment{assignee: assignee}
}

func (d *Deferment) Name() string             { return NameDeferment }
func (d *Deferment) Type() model.PriorityType { return model.TypeDeferment }

// Score implements Scorer.
func (d *Deferment) Score(_ context.Context, reg *wellreg.Registry) model.Outcome {
	var wells []model.WellReference
	for _, w := range reg.Wells() {
		if w.IsDeferring() && !math.IsNaN(w.Deferment()) {
			wells = append(wells, w)
		}
	}
	if len(wells) == 0 {
		return finish(d, nil)
	}

	sort.SliceStable(wells, func(i, j int) bool { return wells[i].Deferment() < wells[j].Deferment() })
	vals := make([]float64, len(wells))
	for i, w := range wells {
		vals[i] = w.Deferment()
	}
	ranks := competitionRank(vals)
	n := float64(len(wells))

	items := make([]model.PriorityItem, 0, len(wells))
	for i, w := range wells {
		q := 1 - (n-float64(ranks[i]))/n
		band, ok := defermentBands.Lookup(q)
		if !ok {
			continue
		}
		it := model.NewItem(w, d.Type())
		it.SeverityLevel = band.Severity
		it.Description = band.Label + fmt.Sprintf("Yesterday well produced %s MCFE, and deferred %s MCFE.",
			model.FormatVolume(w.GasProductionYesterday), model.FormatVolume(w.Deferment()))
		it.AssignedTo = d.assignee
		items = append(items, it)
	}
	return finish(d, items)
}
