package model

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// Severity ranks a priority item from 1 (most urgent) to 5 (least urgent).
type Severity int

// SeverityUnset marks a row that no banding rule matched.
const SeverityUnset Severity = 0

// Valid reports whether s is one of the five severity levels.
func (s Severity) Valid() bool {
	return s >= 1 && s <= 5
}

// PriorityType identifies which scorer produced a priority item.
type PriorityType string

const (
	TypeDeferment           PriorityType = "Deferment"
	TypeWorkManagement      PriorityType = "Enbase Work Management"
	TypeFlood               PriorityType = "Flood Alert"
	TypeSiteInspection      PriorityType = "Site Inspection"
	TypeTelemetry           PriorityType = "Automation-RTU Issue"
	TypeCumulativeDeferment PriorityType = "Cumulative Deferment"
)

// Grouper is the responsible-team bucket a priority row is routed to.
type Grouper string

const (
	GroupNone         Grouper = ""
	GroupEngineering  Grouper = "Engineering"
	GroupOperations   Grouper = "Operations"
	GroupConstruction Grouper = "Construction"
	GroupSiteManager  Grouper = "Site Manager"
)

// PriorityItem is the unified row every scorer emits. Items are comparable
// with == so duplicates can be dropped by full-row equality.
type PriorityItem struct {
	WellName      string       `json:"well_name"`
	CorpID        string       `json:"corp_id"`
	FacilityID    string       `json:"facility_id"`
	Area          string       `json:"area"`
	Route         string       `json:"route"`
	Latitude      float64      `json:"latitude"`
	Longitude     float64      `json:"longitude"`
	PriorityType  PriorityType `json:"priority_type"`
	SeverityLevel Severity     `json:"severity_level"`
	Description   string       `json:"description"`
	// AssignedTo is empty when nobody is assigned.
	AssignedTo string `json:"assigned_to,omitempty"`

	Coding Coding `json:"coding"`

	GasProductionYesterday float64 `json:"gas_production_yesterday"`
	CleanAverageGas        float64 `json:"clean_average_gas"`
}

// NewItem seeds a PriorityItem with the identity, location, coding and
// supporting production fields of a well.
func NewItem(w WellReference, t PriorityType) PriorityItem {
	return PriorityItem{
		WellName:               w.WellName,
		CorpID:                 w.CorpID,
		FacilityID:             w.FacilityID,
		Area:                   w.Area,
		Route:                  w.Route,
		Latitude:               w.Latitude,
		Longitude:              w.Longitude,
		PriorityType:           t,
		Coding:                 w.Coding,
		GasProductionYesterday: w.GasProductionYesterday,
		CleanAverageGas:        w.CleanAverageGas,
	}
}

// Key returns a full-row identity for deduplication. NaN != NaN under ==, so
// float fields are compared by their bit pattern instead.
func (p PriorityItem) Key() PriorityItem {
	k := p
	k.Latitude = canonicalNaN(k.Latitude)
	k.Longitude = canonicalNaN(k.Longitude)
	k.GasProductionYesterday = canonicalNaN(k.GasProductionYesterday)
	k.CleanAverageGas = canonicalNaN(k.CleanAverageGas)
	return k
}

// DedupeItems drops repeated items, keeping first-seen order.
func DedupeItems(items []PriorityItem) []PriorityItem {
	if len(items) == 0 {
		return items
	}
	seen := make(map[PriorityItem]struct{}, len(items))
	out := make([]PriorityItem, 0, len(items))
	for _, it := range items {
		k := it.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, it)
	}
	return out
}

// sentinel NaN used for map keys; any NaN maps to the same bits.
var nanKey = math.Float64frombits(0x7ff8000000000001)

func canonicalNaN(f float64) float64 {
	if math.IsNaN(f) {
		return nanKey
	}
	return f
}

// CalcDateLayout formats the computation timestamp written with every row.
const CalcDateLayout = "2006-01-02 15:04:05"

// PriorityRow is a classified, timestamped item as written to the debug table.
type PriorityRow struct {
	PriorityItem
	Grouper  Grouper   `json:"grouper"`
	CalcDate time.Time `json:"calc_date"`
}

// FinalRow is a row of the externally agreed output table. JobTime,
// SupportingInfo and JobRank are reserved for manual override and always
// written as NULL.
type FinalRow struct {
	FacilityKey    string       `json:"facility_key"`
	SiteName       string       `json:"site_name"`
	LocationID     string       `json:"location_id"`
	Latitude       float64      `json:"latitude"`
	Longitude      float64      `json:"longitude"`
	PriorityLevel  Severity     `json:"priority_level"`
	Grouper        Grouper      `json:"grouper"`
	JobTime        *string      `json:"job_time"`
	Reason         string       `json:"reason"`
	SupportingInfo *string      `json:"supporting_info"`
	PriorityType   PriorityType `json:"priority_type"`
	DefermentGas   float64      `json:"deferment_gas"`
	PersonAssigned string       `json:"person_assigned,omitempty"`
	JobRank        *int         `json:"job_rank"`
	CalcDate       string       `json:"calc_date"`
}

// FormatVolume renders a numeric value the way descriptions embed it:
// shortest round-trip form, "nan" when missing.
func FormatVolume(v float64) string {
	if math.IsNaN(v) {
		return "nan"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatNullable renders an optional metric for a description.
func FormatNullable(v *float64) string {
	if v == nil {
		return "nan"
	}
	return FormatVolume(*v)
}

// FormatDate renders a date for a description; zero time renders as "NaT".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "NaT"
	}
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format(CalcDateLayout)
}

// String implements fmt.Stringer for log fields.
func (s Severity) String() string {
	if s == SeverityUnset {
		return "unset"
	}
	return fmt.Sprintf("%d", int(s))
}
