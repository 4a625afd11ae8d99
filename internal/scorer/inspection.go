package scorer

import (
	"context"
	"fmt"

	"github.com/markusj1201/SoHa-Priorities/internal/model"
	"github.com/markusj1201/SoHa-Priorities/internal/source"
	"github.com/markusj1201/SoHa-Priorities/internal/tabular"
	"github.com/markusj1201/SoHa-Priorities/internal/wellreg"
)

// InspectionDueDays is the age past which a site inspection is overdue.
const InspectionDueDays = 60

var inspectionBands = Bands{
	{Lo: 60, Hi: 75, Severity: 5},
	{Lo: 75, Hi: 90, Severity: 4},
	{Lo: 90, Hi: posInf, Severity: 3},
}

var inspectionCols = []string{"APINumber", "DaysSinceLastInspection"}

// SiteInspection flags wells whose last recorded inspection is overdue.
type SiteInspection struct {
	src source.Source
}

// NewSiteInspection returns the site inspection scorer.
func NewSiteInspection(src source.Source) *SiteInspection {
	return &SiteInspection{src: src}
}

func (s *SiteInspection) Name() string             { return NameSiteInspection }
func (s *SiteInspection) Type() model.PriorityType { return model.TypeSiteInspection }

// Score implements Scorer.
func (s *SiteInspection) Score(ctx context.Context, reg *wellreg.Registry) model.Outcome {
	feed, err := fetch(ctx, s.src, source.QuerySiteInspections, inspectionCols...)
	if err != nil {
		return failed(s, err)
	}

	var items []model.PriorityItem
	err = feed.Each(func(r tabular.Row) error {
		api, err := r.String("APINumber")
		if err != nil {
			return err
		}
		days, err := r.Float("DaysSinceLastInspection")
		if err != nil {
			return err
		}
		if !(days > InspectionDueDays) {
			return nil
		}
		band, ok := inspectionBands.Lookup(days)
		if !ok {
			return nil
		}
		for _, w := range reg.ByAPI10(api) {
			it := model.NewItem(w, s.Type())
			it.SeverityLevel = band.Severity
			it.Description = fmt.Sprintf("Site Inspection Due: Last recorded site inspection was %s days ago.", model.FormatVolume(days))
			items = append(items, it)
		}
		return nil
	})
	if err != nil {
		return failed(s, err)
	}
	return finish(s, items)
}
