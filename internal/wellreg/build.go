package wellreg

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/markusj1201/SoHa-Priorities/internal/model"
	"github.com/markusj1201/SoHa-Priorities/internal/source"
	"github.com/markusj1201/SoHa-Priorities/internal/tabular"
)

// ErrRegistryUnavailable is returned when any input of the registry could
// not be fetched or joined. There is no partial registry.
var ErrRegistryUnavailable = eris.New("wellreg: registry unavailable")

// Column names of the four registry inputs.
var (
	metadataCols   = []string{"WellName", "API", "Corp_ID", "Facility_ID", "Area", "Route", "Latitude", "Longitude"}
	codingCols     = []string{"apinumber", "chokeStatusCreatedBy", "chokeStatusDate", "chokeStatusType", "chokeStatusAction", "chokeStatusComments"}
	productionCols = []string{"Corp_ID", "wellhead_extrapolated_24_hr_gas"}
	cleanAvgCols   = []string{"Corp_ID", "CleanAvgGas", "CleanAvgLowerBoundGas"}
)

type coding struct {
	api10 string
	model.Coding
}

type production struct {
	corpID string
	gas    float64
}

type cleanAverage struct {
	corpID     string
	gas        float64
	lowerBound float64
}

// Build fetches well metadata, the most recent coding, yesterday's
// production and the clean-average baselines, then inner-joins them:
// metadata to coding on API10, then production and clean average on
// Corp_ID. Joins keep left order and emit every matching combination.
func Build(ctx context.Context, src source.Source) (*Registry, error) {
	log := zap.L().With(zap.String("component", "wellreg"))
	start := time.Now()

	var meta, codes, prod, clean *tabular.Table
	g, gctx := errgroup.WithContext(ctx)
	fetch := func(id string, dst **tabular.Table) {
		g.Go(func() error {
			t, err := src.Fetch(gctx, id)
			if err != nil {
				return err
			}
			*dst = t
			return nil
		})
	}
	fetch(source.QueryWellMetadata, &meta)
	fetch(source.QueryWellCoding, &codes)
	fetch(source.QueryYesterdayProduction, &prod)
	fetch(source.QueryCleanAverage, &clean)
	if err := g.Wait(); err != nil {
		return nil, unavailable(err, "fetch")
	}

	wells, err := join(meta, codes, prod, clean)
	if err != nil {
		return nil, unavailable(err, "join")
	}

	reg := New(wells)
	log.Info("registry built",
		zap.Int("wells", reg.Len()),
		zap.Int("metadata_rows", meta.Len()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return reg, nil
}

func unavailable(err error, step string) error {
	return eris.Wrapf(ErrRegistryUnavailable, "wellreg: %s: %v", step, err)
}

func join(meta, codes, prod, clean *tabular.Table) ([]model.WellReference, error) {
	base, err := readMetadata(meta)
	if err != nil {
		return nil, err
	}
	codeIdx, err := readCoding(codes)
	if err != nil {
		return nil, err
	}
	prodIdx, err := readProduction(prod)
	if err != nil {
		return nil, err
	}
	cleanIdx, err := readCleanAverage(clean)
	if err != nil {
		return nil, err
	}

	var out []model.WellReference
	for _, w := range base {
		for _, c := range codeIdx[w.API10] {
			wc := w
			wc.Coding = c.Coding
			for _, p := range prodIdx[wc.CorpID] {
				wp := wc
				wp.GasProductionYesterday = p.gas
				for _, ca := range cleanIdx[wp.CorpID] {
					wf := wp
					wf.CleanAverageGas = ca.gas
					wf.CleanAverageLowerBoundGas = ca.lowerBound
					out = append(out, wf)
				}
			}
		}
	}
	return out, nil
}

func readMetadata(t *tabular.Table) ([]model.WellReference, error) {
	if err := t.Require(metadataCols...); err != nil {
		return nil, eris.Wrap(err, "wellreg: well metadata")
	}
	out := make([]model.WellReference, 0, t.Len())
	err := t.Each(func(r tabular.Row) error {
		var w model.WellReference
		api, _ := r.String("API")
		w.API10 = model.API10(api)
		w.WellName, _ = r.String("WellName")
		w.CorpID, _ = r.String("Corp_ID")
		w.FacilityID, _ = r.String("Facility_ID")
		w.Area, _ = r.String("Area")
		w.Route, _ = r.String("Route")
		w.Latitude, _ = r.Float("Latitude")
		w.Longitude, _ = r.Float("Longitude")
		out = append(out, w)
		return nil
	})
	return out, err
}

func readCoding(t *tabular.Table) (map[string][]coding, error) {
	if err := t.Require(codingCols...); err != nil {
		return nil, eris.Wrap(err, "wellreg: well coding")
	}
	idx := make(map[string][]coding, t.Len())
	err := t.Each(func(r tabular.Row) error {
		var c coding
		api, _ := r.String("apinumber")
		c.api10 = model.API10(api)
		c.Author, _ = r.String("chokeStatusCreatedBy")
		c.Date = displayTime(r, "chokeStatusDate", c.api10)
		c.Type, _ = r.String("chokeStatusType")
		c.Action, _ = r.String("chokeStatusAction")
		c.Comments, _ = r.String("chokeStatusComments")
		idx[c.api10] = append(idx[c.api10], c)
		return nil
	})
	return idx, err
}

// displayTime reads a date that is only shown, never computed on. Text that
// does not parse becomes the zero time, rendered as NaT and stored as NULL.
func displayTime(r tabular.Row, col, api10 string) time.Time {
	t, err := r.Time(col)
	if err != nil {
		raw, _ := r.String(col)
		zap.L().Warn("unparseable date, leaving blank",
			zap.String("component", "wellreg"),
			zap.String("column", col),
			zap.String("api10", api10),
			zap.String("value", raw),
		)
	}
	return t
}

func readProduction(t *tabular.Table) (map[string][]production, error) {
	if err := t.Require(productionCols...); err != nil {
		return nil, eris.Wrap(err, "wellreg: yesterday production")
	}
	idx := make(map[string][]production, t.Len())
	err := t.Each(func(r tabular.Row) error {
		var p production
		p.corpID, _ = r.String("Corp_ID")
		p.gas, _ = r.Float("wellhead_extrapolated_24_hr_gas")
		idx[p.corpID] = append(idx[p.corpID], p)
		return nil
	})
	return idx, err
}

func readCleanAverage(t *tabular.Table) (map[string][]cleanAverage, error) {
	if err := t.Require(cleanAvgCols...); err != nil {
		return nil, eris.Wrap(err, "wellreg: clean average")
	}
	idx := make(map[string][]cleanAverage, t.Len())
	err := t.Each(func(r tabular.Row) error {
		var c cleanAverage
		c.corpID, _ = r.String("Corp_ID")
		c.gas, _ = r.Float("CleanAvgGas")
		c.lowerBound, _ = r.Float("CleanAvgLowerBoundGas")
		idx[c.corpID] = append(idx[c.corpID], c)
		return nil
	})
	return idx, err
}
