package source

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/markusj1201/SoHa-Priorities/internal/tabular"
)

// CSVBackend answers queries from a snapshot directory holding one
// <query id>.csv per query, header row first. Replaying a snapshot gives
// byte-identical inputs across runs.
type CSVBackend struct {
	dir string
}

// NewCSV returns a backend reading from dir.
func NewCSV(dir string) *CSVBackend {
	return &CSVBackend{dir: dir}
}

// Driver implements Backend.
func (b *CSVBackend) Driver() string { return DriverCSV }

// Query implements Backend. Every column is Text; the tabular accessors
// parse on read.
func (b *CSVBackend) Query(ctx context.Context, q Query) (*tabular.Table, error) {
	path := filepath.Join(b.dir, q.ID+".csv")
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "csv: open %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, eris.Errorf("csv: %s has no header row", path)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "csv: read header %s", path)
	}
	if len(header) > 0 {
		header[0] = trimBOM(header[0])
	}
	t := tabular.FromNames(header...)

	for {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "csv: context cancelled")
		}
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "csv: read row %s", path)
		}
		row := make([]any, len(header))
		for i := range row {
			if i < len(rec) && rec[i] != "" {
				row[i] = rec[i]
			}
		}
		t.Append(row...)
	}
	return t, nil
}

// Ping implements Backend.
func (b *CSVBackend) Ping(_ context.Context) error {
	info, err := os.Stat(b.dir)
	if err != nil {
		return eris.Wrapf(err, "csv: stat %s", b.dir)
	}
	if !info.IsDir() {
		return eris.Errorf("csv: %s is not a directory", b.dir)
	}
	return nil
}

// Close implements Backend.
func (b *CSVBackend) Close() error { return nil }

func trimBOM(s string) string {
	if len(s) >= 3 && s[0] == 0xEF && s[1] == 0xBB && s[2] == 0xBF {
		return s[3:]
	}
	return s
}
