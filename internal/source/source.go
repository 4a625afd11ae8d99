// Package source resolves named queries to upstream systems and returns
// their results as tabular data. Callers never build SQL.
package source

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/markusj1201/SoHa-Priorities/internal/tabular"
)

// Query identifiers used by the registry builder and the scorers.
const (
	QueryWellMetadata        = "well_metadata"
	QueryWellCoding          = "most_recent_well_coding"
	QueryYesterdayProduction = "yday_production_soha"
	QueryCleanAverage        = "clean_average"
	QueryWorkManagement      = "work_management_entries"
	QueryFloodPrediction     = "flood_priorities_prediction"
	QuerySiteInspections     = "site_inspections"
	QueryBatteryVoltages     = "rtu_battery_voltages"
	QuerySuccessfulComms     = "percent_successful_comms"
	QueryCumulativeDeferment = "cumulative_deferment"
)

// Upstream system names.
const (
	SystemEnterpriseDataHub = "EnterpriseDataHub"
	SystemODS               = "ODS"
	SystemArrow             = "Arrow"
	SystemCurrentState      = "CurrentState"
)

var (
	// ErrUnknownQuery is returned for a query id the catalog does not list.
	ErrUnknownQuery = eris.New("source: unknown query")
	// ErrUnknownSystem is returned when a query names a system with no backend.
	ErrUnknownSystem = eris.New("source: no backend for system")
)

// Source fetches the result of a named query.
type Source interface {
	Fetch(ctx context.Context, queryID string) (*tabular.Table, error)
}

// Backend drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverCSV      = "csv"
)

// Backend executes resolved queries against one upstream system. SQL
// backends receive q with SQL filled in; the csv backend answers by id.
type Backend interface {
	Driver() string
	Query(ctx context.Context, q Query) (*tabular.Table, error)
	Ping(ctx context.Context) error
	Close() error
}
