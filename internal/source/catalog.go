package source

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Query is one catalog entry: the system that answers it and either inline
// SQL or a file holding the SQL.
type Query struct {
	ID     string `yaml:"id"`
	System string `yaml:"system"`
	SQL    string `yaml:"sql,omitempty"`
	File   string `yaml:"file,omitempty"`
}

// Catalog maps query ids to queries.
type Catalog struct {
	queries map[string]Query
	// dir resolves relative File paths.
	dir string
}

type catalogFile struct {
	QueryDir string  `yaml:"query_dir"`
	Queries  []Query `yaml:"queries"`
}

var defaultQueries = []Query{
	{ID: QueryWellMetadata, System: SystemEnterpriseDataHub, File: "well_metadata.sql"},
	{ID: QueryWellCoding, System: SystemODS, File: "most_recent_well_coding.sql"},
	{ID: QueryYesterdayProduction, System: SystemEnterpriseDataHub, File: "yday_production_soha.sql"},
	{ID: QueryCleanAverage, System: SystemArrow, File: "clean_average.sql"},
	{ID: QueryWorkManagement, System: SystemODS, File: "work_management_entries.sql"},
	{ID: QueryFloodPrediction, System: SystemArrow, File: "Flood_Priorities_Prediction.sql"},
	{ID: QuerySiteInspections, System: SystemODS, File: "site_inspections.sql"},
	{ID: QueryBatteryVoltages, System: SystemEnterpriseDataHub, File: "rtu_battery_voltages.sql"},
	{ID: QuerySuccessfulComms, System: SystemEnterpriseDataHub, File: "percent_successful_comms.sql"},
	{ID: QueryCumulativeDeferment, System: SystemCurrentState, File: "cumulative_deferment.sql"},
}

// DefaultCatalog returns the built-in catalog. SQL files are read from
// queryDir.
func DefaultCatalog(queryDir string) *Catalog {
	c := &Catalog{queries: make(map[string]Query, len(defaultQueries)), dir: queryDir}
	for _, q := range defaultQueries {
		c.queries[q.ID] = q
	}
	return c
}

// LoadCatalog reads a YAML catalog and lays it over the built-in one, so a
// file only needs the entries it changes. An empty path returns the
// built-in catalog.
func LoadCatalog(path, queryDir string) (*Catalog, error) {
	c := DefaultCatalog(queryDir)
	if path == "" {
		return c, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "source: read catalog %s", path)
	}
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "source: parse catalog %s", path)
	}

	if f.QueryDir != "" {
		c.dir = f.QueryDir
		if !filepath.IsAbs(c.dir) {
			c.dir = filepath.Join(filepath.Dir(path), c.dir)
		}
	}
	for i, q := range f.Queries {
		if q.ID == "" {
			return nil, eris.Errorf("source: catalog %s: entry %d has no id", path, i)
		}
		if q.System == "" {
			prev, ok := c.queries[q.ID]
			if !ok {
				return nil, eris.Errorf("source: catalog %s: query %s has no system", path, q.ID)
			}
			q.System = prev.System
		}
		c.queries[q.ID] = q
	}
	return c, nil
}

// Lookup returns the query for id.
func (c *Catalog) Lookup(id string) (Query, error) {
	q, ok := c.queries[id]
	if !ok {
		return Query{}, eris.Wrapf(ErrUnknownQuery, "source: %s", id)
	}
	return q, nil
}

// Text returns the SQL of q, reading it from disk if the entry names a file.
func (c *Catalog) Text(q Query) (string, error) {
	if strings.TrimSpace(q.SQL) != "" {
		return q.SQL, nil
	}
	if q.File == "" {
		return "", eris.Errorf("source: query %s has neither sql nor file", q.ID)
	}
	path := q.File
	if !filepath.IsAbs(path) {
		path = filepath.Join(c.dir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", eris.Wrapf(err, "source: read sql for %s", q.ID)
	}
	return string(data), nil
}

// Queries returns every entry ordered by id.
func (c *Catalog) Queries() []Query {
	out := make([]Query, 0, len(c.queries))
	for _, q := range c.queries {
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Systems returns the distinct systems the catalog references, sorted.
func (c *Catalog) Systems() []string {
	seen := make(map[string]bool)
	var out []string
	for _, q := range c.queries {
		if !seen[q.System] {
			seen[q.System] = true
			out = append(out, q.System)
		}
	}
	sort.Strings(out)
	return out
}
