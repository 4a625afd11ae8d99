// Package aggregate reduces scorer outcomes into the classified priority
// rows written to the debug table and projects them onto the final schema.
package aggregate

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/markusj1201/SoHa-Priorities/internal/model"
)

// ActionPAndACandidate marks wells slated for plugging; they never reach the
// output.
const ActionPAndACandidate = "TA - P&A Candidate"

type groupRule struct {
	match   func(model.PriorityItem) bool
	grouper model.Grouper
}

func actionContains(s string) func(model.PriorityItem) bool {
	return func(it model.PriorityItem) bool { return strings.Contains(it.Coding.Action, s) }
}

func typeIs(t model.PriorityType) func(model.PriorityItem) bool {
	return func(it model.PriorityItem) bool { return it.PriorityType == t }
}

// groupRules are evaluated in order; the last match wins.
var groupRules = []groupRule{
	{actionContains("Engineering"), model.GroupEngineering},
	{actionContains("Operations"), model.GroupOperations},
	{actionContains("No Action"), model.GroupOperations},
	{actionContains("Maintenance"), model.GroupOperations},
	{actionContains("Natural Decline"), model.GroupOperations},
	{actionContains("Midstream"), model.GroupOperations},
	{actionContains("Work Complete"), model.GroupOperations},
	{actionContains("Optimization"), model.GroupOperations},
	{actionContains("Construction"), model.GroupConstruction},
	{typeIs(model.TypeFlood), model.GroupSiteManager},
	{typeIs(model.TypeSiteInspection), model.GroupOperations},
}

// Classify returns the responsible-team bucket for an item, or GroupNone.
func Classify(it model.PriorityItem) model.Grouper {
	g := model.GroupNone
	for _, r := range groupRules {
		if r.match(it) {
			g = r.grouper
		}
	}
	return g
}

// Aggregate concatenates the items of every OK outcome in order, drops
// duplicates and P&A candidates, classifies each row and stamps now.
func Aggregate(outcomes []model.Outcome, now time.Time) []model.PriorityRow {
	var items []model.PriorityItem
	for _, o := range outcomes {
		if o.HasItems() {
			items = append(items, o.Items...)
		}
	}
	items = model.DedupeItems(items)

	rows := make([]model.PriorityRow, 0, len(items))
	var dropped int
	for _, it := range items {
		if it.Coding.Action == ActionPAndACandidate {
			dropped++
			continue
		}
		rows = append(rows, model.PriorityRow{PriorityItem: it, Grouper: Classify(it), CalcDate: now})
	}

	zap.L().Debug("aggregate: rows classified",
		zap.Int("items", len(items)),
		zap.Int("rows", len(rows)),
		zap.Int("pa_candidates_dropped", dropped),
	)
	return rows
}

// Project maps classified rows onto the final table schema.
func Project(rows []model.PriorityRow) []model.FinalRow {
	out := make([]model.FinalRow, len(rows))
	for i, r := range rows {
		out[i] = model.FinalRow{
			FacilityKey:    r.FacilityID,
			SiteName:       r.WellName,
			LocationID:     r.CorpID,
			Latitude:       r.Latitude,
			Longitude:      r.Longitude,
			PriorityLevel:  r.SeverityLevel,
			Grouper:        r.Grouper,
			Reason:         r.Description,
			PriorityType:   r.PriorityType,
			DefermentGas:   r.CleanAverageGas - r.GasProductionYesterday,
			PersonAssigned: r.AssignedTo,
			CalcDate:       r.CalcDate.Format(model.CalcDateLayout),
		}
	}
	return out
}

// CountByType tallies rows per priority type.
func CountByType(rows []model.PriorityRow) map[model.PriorityType]int {
	counts := make(map[model.PriorityType]int)
	for _, r := range rows {
		counts[r.PriorityType]++
	}
	return counts
}
