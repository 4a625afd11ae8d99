// Package model defines the well reference and priority types shared by the
// registry builder, the scorers, the aggregator and the sinks.
package model

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"
)

// API10Len is the number of leading API-number characters used as the
// cross-source join key.
const API10Len = 10

// API10 truncates a raw API identifier to its first 10 characters. Sources
// report API numbers with varying precision (10, 12 or 14 digits); the
// 10-digit prefix identifies the well. Surrounding whitespace is trimmed
// before counting.
func API10(raw string) string {
	raw = strings.TrimSpace(raw)
	if utf8.RuneCountInString(raw) <= API10Len {
		return raw
	}
	return string([]rune(raw)[:API10Len])
}

// Coding is the most recent operator-entered status for a well.
type Coding struct {
	Author   string    `json:"coding_author"`
	Date     time.Time `json:"coding_date"`
	Type     string    `json:"coding_type"`
	Action   string    `json:"coding_action"`
	Comments string    `json:"coding_comments"`
}

// WellReference is one row of the canonical per-well reference table.
type WellReference struct {
	WellName   string  `json:"well_name"`
	CorpID     string  `json:"corp_id"`
	API10      string  `json:"api10"`
	FacilityID string  `json:"facility_id"`
	Area       string  `json:"area"`
	Route      string  `json:"route"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`

	Coding Coding `json:"coding"`

	// GasProductionYesterday is yesterday's allocated gas volume (MCFE).
	GasProductionYesterday float64 `json:"gas_production_yesterday"`
	// CleanAverageGas is the rolling clean-average baseline (MCFE).
	CleanAverageGas float64 `json:"clean_average_gas"`
	// CleanAverageLowerBoundGas is the lower bound of the clean-average band.
	CleanAverageLowerBoundGas float64 `json:"clean_average_lower_bound_gas"`
}

// Deferment returns the shortfall between the clean-average baseline and
// yesterday's production. NaN when either input is missing.
func (w WellReference) Deferment() float64 {
	return w.CleanAverageGas - w.GasProductionYesterday
}

// IsDeferring reports whether yesterday's production fell below the
// clean-average lower bound. Missing values never defer.
func (w WellReference) IsDeferring() bool {
	if math.IsNaN(w.GasProductionYesterday) || math.IsNaN(w.CleanAverageLowerBoundGas) {
		return false
	}
	return w.GasProductionYesterday < w.CleanAverageLowerBoundGas
}
