package wellreg

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/markusj1201/SoHa-Priorities/internal/model"
	"github.com/markusj1201/SoHa-Priorities/internal/source"
	"github.com/markusj1201/SoHa-Priorities/internal/source/mocks"
	"github.com/markusj1201/SoHa-Priorities/internal/tabular"
)

func table(cols []string, rows ...[]any) *tabular.Table {
	t := tabular.FromNames(cols...)
	for _, r := range rows {
		t.Append(r...)
	}
	return t
}

func registryInputs() map[string]*tabular.Table {
	return map[string]*tabular.Table{
		source.QueryWellMetadata: table(metadataCols,
			[]any{"SMITH 1H", "42123456780000", "C1", "F1", "North", "R1", 31.1, -94.1},
			[]any{"JONES 2", "42123456790000", "C2", "F2", "North", "R2", 31.2, -94.2},
			[]any{"NO CODING 3", "42000000000000", "C3", "F3", "South", "R3", 31.3, -94.3},
			[]any{"NO PROD 4", "42123456800000", "C4", "F4", "South", "R4", 31.4, -94.4},
		),
		source.QueryWellCoding: table(codingCols,
			[]any{"4212345678", "jdoe", "2026-10-17 08:00:00", "Down - Mechanical", "Engineering Review", "rod part"},
			[]any{"4212345679", "asmith", "2026-10-18", "Producing", "No Action", nil},
			[]any{"4212345679", "bwhite", "2026-10-18", "Producing", "Optimization", nil},
			[]any{"4212345680", "asmith", nil, "Producing", "No Action", nil},
		),
		source.QueryYesterdayProduction: table(productionCols,
			[]any{"C1", 80.0},
			[]any{"C2", "150.5"},
		),
		source.QueryCleanAverage: table(cleanAvgCols,
			[]any{"C1", 120.0, 100.0},
			[]any{"C2", 140.0, nil},
		),
	}
}

func mockFetches(m *mocks.MockSource, tables map[string]*tabular.Table) {
	for id, t := range tables {
		m.On("Fetch", mock.Anything, id).Return(t, nil).Maybe()
	}
}

func TestBuild_InnerJoins(t *testing.T) {
	src := mocks.NewMockSource(t)
	mockFetches(src, registryInputs())

	reg, err := Build(t.Context(), src)
	require.NoError(t, err)

	// C3 has no coding, C4 has no production; C2 has two codings.
	wells := reg.Wells()
	require.Len(t, wells, 3)
	assert.Equal(t, "SMITH 1H", wells[0].WellName)
	assert.Equal(t, "4212345678", wells[0].API10)
	assert.Equal(t, "Engineering Review", wells[0].Coding.Action)
	assert.Equal(t, time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC), wells[0].Coding.Date)
	assert.InDelta(t, 80.0, wells[0].GasProductionYesterday, 1e-9)
	assert.InDelta(t, 120.0, wells[0].CleanAverageGas, 1e-9)
	assert.InDelta(t, 100.0, wells[0].CleanAverageLowerBoundGas, 1e-9)

	assert.Equal(t, "No Action", wells[1].Coding.Action)
	assert.Equal(t, "Optimization", wells[2].Coding.Action)
	assert.InDelta(t, 150.5, wells[2].GasProductionYesterday, 1e-9)
	assert.True(t, math.IsNaN(wells[2].CleanAverageLowerBoundGas))

	assert.Len(t, reg.ByCorpID("C2"), 2)
	assert.Len(t, reg.ByAPI10("42123456780000"), 1)
	assert.Empty(t, reg.ByCorpID("C3"))
}

func TestBuild_UnparseableCodingDateLeftBlank(t *testing.T) {
	inputs := registryInputs()
	inputs[source.QueryWellCoding] = table(codingCols,
		[]any{"4212345678", "jdoe", "10/17/2026 8:00:00 AM", "Down - Mechanical", "Engineering Review", "rod part"},
		[]any{"4212345679", "asmith", "2026-10-18", "Producing", "No Action", nil},
	)
	src := mocks.NewMockSource(t)
	mockFetches(src, inputs)

	reg, err := Build(t.Context(), src)
	require.NoError(t, err)

	wells := reg.Wells()
	require.Len(t, wells, 2)
	assert.Equal(t, "Engineering Review", wells[0].Coding.Action)
	assert.True(t, wells[0].Coding.Date.IsZero())
	assert.Equal(t, "NaT", model.FormatDate(wells[0].Coding.Date))
	assert.Equal(t, time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC), wells[1].Coding.Date)
}
func TestBuild_FetchFailure(t *testing.T) {
	src := mocks.NewMockSource(t)
	in := registryInputs()
	delete(in, source.QueryCleanAverage)
	mockFetches(src, in)
	src.On("Fetch", mock.Anything, source.QueryCleanAverage).Return(nil, errors.New("arrow: login timeout")).Once()

	reg, err := Build(t.Context(), src)
	require.Error(t, err)
	assert.Nil(t, reg)
	assert.True(t, eris.Is(err, ErrRegistryUnavailable))
	assert.Contains(t, err.Error(), "arrow: login timeout")
}

func TestBuild_MissingColumn(t *testing.T) {
	src := mocks.NewMockSource(t)
	in := registryInputs()
	in[source.QueryYesterdayProduction] = table([]string{"Corp_ID", "gas"}, []any{"C1", 1.0})
	mockFetches(src, in)

	reg, err := Build(t.Context(), src)
	require.Error(t, err)
	assert.Nil(t, reg)
	assert.True(t, eris.Is(err, ErrRegistryUnavailable))
	assert.Contains(t, err.Error(), "wellhead_extrapolated_24_hr_gas")
}

func TestBuild_BadCodingDate(t *testing.T) {
	src := mocks.NewMockSource(t)
	in := registryInputs()
	in[source.QueryWellCoding] = table(codingCols, []any{"4212345678", "jdoe", "last tuesday", "", "", ""})
	mockFetches(src, in)

	_, err := Build(t.Context(), src)
	assert.True(t, eris.Is(err, ErrRegistryUnavailable))
}

func TestRegistry_WithoutRoute(t *testing.T) {
	reg := New([]model.WellReference{{CorpID: "C1", API10: "4212345678", Route: "R1"}})
	bare := reg.WithoutRoute()
	assert.Equal(t, "", bare.ByCorpID("C1")[0].Route)
	assert.Equal(t, "R1", reg.ByCorpID("C1")[0].Route, "original untouched")

	var nilReg *Registry
	assert.Equal(t, 0, nilReg.Len())
	assert.Nil(t, nilReg.Wells())
}
