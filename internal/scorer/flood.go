package scorer

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/markusj1201/SoHa-Priorities/internal/model"
	"github.com/markusj1201/SoHa-Priorities/internal/source"
	"github.com/markusj1201/SoHa-Priorities/internal/tabular"
	"github.com/markusj1201/SoHa-Priorities/internal/wellreg"
)

// CodingDownWeather marks a well already shut in for weather; flood alerts
// for it are suppressed.
const CodingDownWeather = "Down - Weather"

// floodBands partition HoursUntilFlood; lower edges are inclusive.
var floodBands = Bands{
	{Lo: negInf, Hi: 24, Severity: 1, Label: "Well is already flooding or is predicted to flood within the next 24 hours. "},
	{Lo: 24, Hi: 48, Severity: 2, Label: "Well is predicted to flood between 1 to 2 days. "},
	{Lo: 48, Hi: 72, Severity: 3, Label: "Well is predicted to flood between 2 and 3 days. "},
	{Lo: 72, Hi: 96, Severity: 4, Label: "Well is predicted to flood between 3 and 4 days. "},
	{Lo: 96, Hi: posInf, Severity: 5, Label: "Well is predicted to flood between 4 and 5 days. "},
}

var floodCols = []string{"API", "HoursUntilFlood", "AffectedFloodHeight", "EarliestPredictedFloodDate"}

// Flood scores wells by predicted hours until flooding.
type Flood struct {
	src         source.Source
	siteManager string
}

// NewFlood returns the flood scorer. Every item is assigned to siteManager.
func NewFlood(src source.Source, siteManager string) *Flood {
	return &Flood{src: src, siteManager: siteManager}
}

func (f *Flood) Name() string             { return NameFlood }
func (f *Flood) Type() model.PriorityType { return model.TypeFlood }

// Score implements Scorer.
func (f *Flood) Score(ctx context.Context, reg *wellreg.Registry) model.Outcome {
	feed, err := fetch(ctx, f.src, source.QueryFloodPrediction, floodCols...)
	if err != nil {
		return failed(f, err)
	}

	log := zap.L().With(zap.String("component", "scorer"), zap.String("scorer", f.Name()))

	var items []model.PriorityItem
	err = feed.Each(func(r tabular.Row) error {
		api, err := r.String("API")
		if err != nil {
			return err
		}
		hours, err := r.Float("HoursUntilFlood")
		if err != nil {
			return err
		}
		height, err := r.NullFloat("AffectedFloodHeight")
		if err != nil {
			return err
		}
		date, err := r.Time("EarliestPredictedFloodDate")
		if err != nil {
			if !eris.Is(err, tabular.ErrInvalidValue) {
				return err
			}
			raw, _ := r.String("EarliestPredictedFloodDate")
			log.Warn("unparseable flood date, leaving blank",
				zap.String("api", strings.TrimSpace(api)),
				zap.String("value", raw),
			)
		}

		band, ok := floodBands.Lookup(hours)
		if !ok {
			return nil
		}
		for _, w := range reg.ByAPI10(api) {
			if w.Coding.Type == CodingDownWeather {
				continue
			}
			it := model.NewItem(w, f.Type())
			it.SeverityLevel = band.Severity
			it.Description = band.Label + fmt.Sprintf("Affected flood height of the site is %s ft. Next predicted flood date is %s.",
				model.FormatNullable(height), model.FormatDate(date))
			it.AssignedTo = f.siteManager
			items = append(items, it)
		}
		return nil
	})
	if err != nil {
		return failed(f, err)
	}
	return finish(f, items)
}
