package scorer

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/markusj1201/SoHa-Priorities/internal/source"
	"github.com/markusj1201/SoHa-Priorities/internal/tabular"
)

// fetch runs a catalog query and checks its columns.
func fetch(ctx context.Context, src source.Source, queryID string, cols ...string) (*tabular.Table, error) {
	t, err := src.Fetch(ctx, queryID)
	if err != nil {
		return nil, eris.Wrapf(err, "scorer: fetch %s", queryID)
	}
	if err := t.Require(cols...); err != nil {
		return nil, eris.Wrapf(err, "scorer: %s", queryID)
	}
	return t, nil
}
