package scorer

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/markusj1201/SoHa-Priorities/internal/model"
	"github.com/markusj1201/SoHa-Priorities/internal/source"
	"github.com/markusj1201/SoHa-Priorities/internal/tabular"
	"github.com/markusj1201/SoHa-Priorities/internal/wellreg"
)

var (
	voltageCols = []string{"Corp_ID", "Meter", "LastBatteryVoltageReading", "BatteryVoltage"}
	commsCols   = []string{"Corp_ID", "Meter", "LastPercentSuccessfulCommsReading", "PercentSuccessfulComms"}
)

// rtuReading is one row of the voltage/comms outer join. A nil metric was
// absent on its side of the join.
type rtuReading struct {
	corpID  string
	meter   string
	voltage *float64
	comms   *float64
}

func lte(v *float64, limit float64) bool { return v != nil && *v <= limit }
func gt(v *float64, limit float64) bool  { return v != nil && *v > limit }

// telemetryRules overlap; the last matching rule wins. A missing metric
// never satisfies a predicate that references it.
var telemetryRules = []Rule[rtuReading]{
	{When: func(r rtuReading) bool { return lte(r.comms, 50) || lte(r.voltage, 11) }, Severity: 3},
	{When: func(r rtuReading) bool { return gt(r.comms, 50) && lte(r.comms, 60) }, Severity: 4},
	{When: func(r rtuReading) bool { return gt(r.comms, 60) && lte(r.comms, 75) }, Severity: 5},
}

// Telemetry flags RTUs with poor communication success or low battery.
type Telemetry struct {
	src source.Source
}

// NewTelemetry returns the telemetry health scorer.
func NewTelemetry(src source.Source) *Telemetry {
	return &Telemetry{src: src}
}

func (t *Telemetry) Name() string             { return NameTelemetry }
func (t *Telemetry) Type() model.PriorityType { return model.TypeTelemetry }

// Score implements Scorer.
func (t *Telemetry) Score(ctx context.Context, reg *wellreg.Registry) model.Outcome {
	var volts, comms *tabular.Table
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		volts, err = fetch(gctx, t.src, source.QueryBatteryVoltages, voltageCols...)
		return err
	})
	g.Go(func() (err error) {
		comms, err = fetch(gctx, t.src, source.QuerySuccessfulComms, commsCols...)
		return err
	})
	if err := g.Wait(); err != nil {
		return failed(t, err)
	}

	readings, err := outerJoinRTU(volts, comms)
	if err != nil {
		return failed(t, err)
	}

	var items []model.PriorityItem
	for _, rd := range readings {
		sev := LastMatch(telemetryRules, rd)
		if sev == model.SeverityUnset {
			continue
		}
		for _, w := range reg.ByCorpID(rd.corpID) {
			it := model.NewItem(w, t.Type())
			it.SeverityLevel = sev
			it.Description = fmt.Sprintf("RTU Comms Issue Detected: Percent successful comms in the past hour is %s%%, and current battery voltage is %s.",
				model.FormatNullable(rd.comms), model.FormatNullable(rd.voltage))
			items = append(items, it)
		}
	}
	return finish(t, items)
}

type rtuKey struct{ corpID, meter string }

type rtuSide struct {
	keys []rtuKey
	vals map[rtuKey][]*float64
}

func readRTU(t *tabular.Table, metric string) (rtuSide, error) {
	side := rtuSide{vals: make(map[rtuKey][]*float64)}
	err := t.Each(func(r tabular.Row) error {
		corp, err := r.String("Corp_ID")
		if err != nil {
			return err
		}
		meter, err := r.String("Meter")
		if err != nil {
			return err
		}
		v, err := r.NullFloat(metric)
		if err != nil {
			return err
		}
		k := rtuKey{corp, meter}
		if _, seen := side.vals[k]; !seen {
			side.keys = append(side.keys, k)
		}
		side.vals[k] = append(side.vals[k], v)
		return nil
	})
	return side, err
}

// outerJoinRTU full-outer-joins voltages and comms on (Corp_ID, Meter).
// The result is sorted by key; keys present on both sides yield every
// combination of their rows.
func outerJoinRTU(volts, comms *tabular.Table) ([]rtuReading, error) {
	vs, err := readRTU(volts, "BatteryVoltage")
	if err != nil {
		return nil, err
	}
	cs, err := readRTU(comms, "PercentSuccessfulComms")
	if err != nil {
		return nil, err
	}

	keys := append([]rtuKey(nil), vs.keys...)
	for _, k := range cs.keys {
		if _, ok := vs.vals[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.SliceStable(keys, func(i, j int) bool {
		if keys[i].corpID != keys[j].corpID {
			return keys[i].corpID < keys[j].corpID
		}
		return keys[i].meter < keys[j].meter
	})

	var out []rtuReading
	for _, k := range keys {
		vv, cv := vs.vals[k], cs.vals[k]
		if len(vv) == 0 {
			vv = []*float64{nil}
		}
		if len(cv) == 0 {
			cv = []*float64{nil}
		}
		for _, v := range vv {
			for _, c := range cv {
				out = append(out, rtuReading{corpID: k.corpID, meter: k.meter, voltage: v, comms: c})
			}
		}
	}
	return out, nil
}
