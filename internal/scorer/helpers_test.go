package scorer

import (
	"github.com/stretchr/testify/mock"

	"github.com/markusj1201/SoHa-Priorities/internal/model"
	"github.com/markusj1201/SoHa-Priorities/internal/source/mocks"
	"github.com/markusj1201/SoHa-Priorities/internal/tabular"
	"github.com/markusj1201/SoHa-Priorities/internal/wellreg"
)

func well(name, corp, api string) model.WellReference {
	return model.WellReference{
		WellName:   name,
		CorpID:     corp,
		API10:      api,
		FacilityID: "F-" + corp,
		Area:       "East Texas",
		Route:      "R1",
		Latitude:   31.9,
		Longitude:  -94.2,
	}
}

func testRegistry() *wellreg.Registry {
	return wellreg.New([]model.WellReference{
		well("SMITH 1H", "C1", "4200000001"),
		well("JONES 2", "C2", "4200000002"),
		well("BROWN 3", "C3", "4200000003"),
	})
}

func table(cols []string, rows ...[]any) *tabular.Table {
	t := tabular.FromNames(cols...)
	for _, r := range rows {
		t.Append(r...)
	}
	return t
}

func feed(m *mocks.MockSource, queryID string, t *tabular.Table, err error) {
	m.On("Fetch", mock.Anything, queryID).Return(t, err).Once()
}
