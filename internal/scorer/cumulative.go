package scorer

import (
	"context"
	"fmt"

	"github.com/markusj1201/SoHa-Priorities/internal/model"
	"github.com/markusj1201/SoHa-Priorities/internal/source"
	"github.com/markusj1201/SoHa-Priorities/internal/tabular"
	"github.com/markusj1201/SoHa-Priorities/internal/wellreg"
)

const (
	// MinConsecutiveDeferringDays must be exceeded for a well to qualify.
	MinConsecutiveDeferringDays = 5
	// MinCumulativeDeferment is the smallest qualifying total (MCFE).
	MinCumulativeDeferment = 1000
)

var cumulativeBands = Bands{
	{Lo: 1000, Hi: 2000, Severity: 5},
	{Lo: 2000, Hi: 3000, Severity: 4},
	{Lo: 3000, Hi: 4000, Severity: 3},
	{Lo: 4000, Hi: 5000, Severity: 2},
	{Lo: 5000, Hi: posInf, Severity: 1},
}

var cumulativeCols = []string{"CorpID", "CumulativeDeferment", "ConsecutiveDaysDeferring"}

type cumulativeEntry struct {
	total float64
	days  float64
}

// CumulativeDeferment flags wells that have deferred for several days
// running.
type CumulativeDeferment struct {
	src source.Source
}

// NewCumulativeDeferment returns the cumulative deferment scorer.
func NewCumulativeDeferment(src source.Source) *CumulativeDeferment {
	return &CumulativeDeferment{src: src}
}

func (c *CumulativeDeferment) Name() string             { return NameCumulativeDeferment }
func (c *CumulativeDeferment) Type() model.PriorityType { return model.TypeCumulativeDeferment }

// Score implements Scorer. The registry is the left side of the join.
func (c *CumulativeDeferment) Score(ctx context.Context, reg *wellreg.Registry) model.Outcome {
	feed, err := fetch(ctx, c.src, source.QueryCumulativeDeferment, cumulativeCols...)
	if err != nil {
		return failed(c, err)
	}

	byCorp := make(map[string][]cumulativeEntry)
	err = feed.Each(func(r tabular.Row) error {
		corp, err := r.String("CorpID")
		if err != nil {
			return err
		}
		total, err := r.Float("CumulativeDeferment")
		if err != nil {
			return err
		}
		days, err := r.Float("ConsecutiveDaysDeferring")
		if err != nil {
			return err
		}
		byCorp[corp] = append(byCorp[corp], cumulativeEntry{total: total, days: days})
		return nil
	})
	if err != nil {
		return failed(c, err)
	}

	var items []model.PriorityItem
	for _, w := range reg.Wells() {
		for _, e := range byCorp[w.CorpID] {
			if !(e.days > MinConsecutiveDeferringDays && e.total >= MinCumulativeDeferment) {
				continue
			}
			band, ok := cumulativeBands.Lookup(e.total)
			if !ok {
				continue
			}
			it := model.NewItem(w, c.Type())
			it.SeverityLevel = band.Severity
			it.Description = fmt.Sprintf("Well has a cumulative deferment of %s MCFE, and has been deferring for %s days.",
				model.FormatVolume(e.total), model.FormatVolume(e.days))
			items = append(items, it)
		}
	}
	return finish(c, items)
}
