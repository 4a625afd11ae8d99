package export

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/markusj1201/SoHa-Priorities/internal/tabular"
)

func sample() *tabular.Table {
	t := tabular.New(
		tabular.Column{Name: "SiteName", Kind: tabular.Text},
		tabular.Column{Name: "Latitude", Kind: tabular.Float},
		tabular.Column{Name: "Longitude", Kind: tabular.Float},
		tabular.Column{Name: "PriorityLevel", Kind: tabular.Int},
		tabular.Column{Name: "DefermentGas", Kind: tabular.Float},
		tabular.Column{Name: "Reason", Kind: tabular.Text},
	)
	t.Append("SMITH 1H", 31.5, -94.25, int64(2), 1234.5, "Well is predicted to flood, soon")
	t.Append("JONES 2", math.NaN(), math.NaN(), int64(5), math.NaN(), nil)
	return t
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, FormatXLSX, FormatFromPath("out/priorities.XLSX"))
	assert.Equal(t, FormatGeoJSON, FormatFromPath("wells.geojson"))
	assert.Equal(t, FormatTable, FormatFromPath("report.txt"))
	assert.Equal(t, FormatCSV, FormatFromPath("priorities"))
}

func TestWrite_UnknownFormat(t *testing.T) {
	err := Write(&bytes.Buffer{}, "parquet", sample())
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrUnknownFormat))
}

func TestCell(t *testing.T) {
	s := "x"
	n := 3
	assert.Equal(t, "", Cell(nil))
	assert.Equal(t, "", Cell(math.NaN()))
	assert.Equal(t, "0.25", Cell(0.25))
	assert.Equal(t, "7", Cell(int64(7)))
	assert.Equal(t, "", Cell(time.Time{}))
	assert.Equal(t, "2026-10-19 06:00:00", Cell(time.Date(2026, 10, 19, 6, 0, 0, 0, time.UTC)))
	assert.Equal(t, "x", Cell(&s))
	assert.Equal(t, "3", Cell(&n))
	assert.Equal(t, "", Cell((*string)(nil)))
}

func TestCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatCSV, sample()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "SiteName,Latitude,Longitude,PriorityLevel,DefermentGas,Reason", lines[0])
	assert.Equal(t, `SMITH 1H,31.5,-94.25,2,1234.5,"Well is predicted to flood, soon"`, lines[1])
	assert.Equal(t, "JONES 2,,,5,,", lines[2])
}

func TestText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatTable, sample()))
	out := buf.String()
	assert.Contains(t, out, "SiteName")
	assert.Contains(t, out, "1,234.5")
	assert.Contains(t, out, "JONES 2")
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 3)
}

func TestTextCell_Truncates(t *testing.T) {
	long := strings.Repeat("é", 80)
	got := textCell(long)
	assert.Equal(t, maxTextWidth, len([]rune(got)))
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatXLSX, sample()))

	f, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	sheet, ok := f.Sheet[SheetName]
	require.True(t, ok)
	require.Len(t, sheet.Rows, 3)
	assert.Equal(t, "SiteName", sheet.Rows[0].Cells[0].String())
	assert.Equal(t, "SMITH 1H", sheet.Rows[1].Cells[0].String())

	lvl, err := sheet.Rows[1].Cells[3].Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(2), lvl)

	gas, err := sheet.Rows[1].Cells[4].Float()
	require.NoError(t, err)
	assert.InDelta(t, 1234.5, gas, 1e-9)
}

func TestGeoJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatGeoJSON, sample()))

	var doc struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry *struct {
				Type        string    `json:"type"`
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "FeatureCollection", doc.Type)
	require.Len(t, doc.Features, 2)

	first := doc.Features[0]
	require.NotNil(t, first.Geometry)
	assert.Equal(t, "Point", first.Geometry.Type)
	assert.Equal(t, []float64{-94.25, 31.5}, first.Geometry.Coordinates)
	assert.Equal(t, "SMITH 1H", first.Properties["SiteName"])
	assert.InDelta(t, 2, first.Properties["PriorityLevel"], 0)
	assert.NotContains(t, first.Properties, "Latitude")

	second := doc.Features[1]
	assert.Nil(t, second.Geometry)
	assert.Nil(t, second.Properties["DefermentGas"])
}

func TestGeoJSON_NeedsCoordinates(t *testing.T) {
	err := GeoJSON(&bytes.Buffer{}, tabular.FromNames("SiteName"))
	require.Error(t, err)
	assert.True(t, eris.Is(err, tabular.ErrMissingColumn))
}
