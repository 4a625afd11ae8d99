package export

import (
	"encoding/json"
	"io"
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/markusj1201/SoHa-Priorities/internal/tabular"
)

// GeoJSON writes a FeatureCollection with one point feature per row. The
// point comes from the Latitude and Longitude columns; every other column
// becomes a property. Rows without coordinates get a null geometry.
func GeoJSON(w io.Writer, t *tabular.Table) error {
	if err := t.Require("Latitude", "Longitude"); err != nil {
		return eris.Wrap(err, "geojson: table has no coordinates")
	}
	latIdx, _ := t.Index("Latitude")
	lonIdx, _ := t.Index("Longitude")

	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, t.Len())}
	for i := range t.Rows {
		r := t.Row(i)
		lat, err := r.Float("Latitude")
		if err != nil {
			return err
		}
		lon, err := r.Float("Longitude")
		if err != nil {
			return err
		}

		feat := &geojson.Feature{Properties: make(map[string]interface{}, len(t.Columns))}
		if !math.IsNaN(lat) && !math.IsNaN(lon) {
			feat.Geometry = geom.NewPointFlat(geom.XY, []float64{lon, lat}).SetSRID(4326)
		}
		for j, c := range t.Columns {
			if j == latIdx || j == lonIdx {
				continue
			}
			var v any
			if j < len(t.Rows[i]) {
				v = t.Rows[i][j]
			}
			feat.Properties[c.Name] = property(v)
		}
		fc.Features = append(fc.Features, feat)
	}

	enc := json.NewEncoder(w)
	if err := enc.Encode(fc); err != nil {
		return eris.Wrap(err, "geojson: encode")
	}
	return nil
}

// property keeps numbers numeric; NaN and missing values become null.
func property(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case float64:
		if math.IsNaN(x) {
			return nil
		}
		return x
	case int64, int:
		return x
	}
	if s := Cell(v); s != "" {
		return s
	}
	return nil
}
