package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/markusj1201/SoHa-Priorities/internal/runlog"
)

func TestFormatRunsList(t *testing.T) {
	now := time.Date(2026, 10, 19, 6, 0, 0, 0, time.UTC)
	done := now.Add(95 * time.Second)
	entries := []runlog.Entry{
		{
			RunID:        uuid.MustParse("abc12345-6789-4000-8000-000000000000"),
			Status:       runlog.StatusComplete,
			StartedAt:    now,
			CompletedAt:  &done,
			RegistrySize: 1200,
			RowsWritten:  310,
			Outcomes: []runlog.ScorerSummary{
				{Scorer: "flood", Status: "failed", Reason: "source_unavailable"},
				{Scorer: "deferment", Status: "ok", Items: 300},
			},
		},
		{
			RunID:     uuid.MustParse("def12345-6789-4000-8000-000000000000"),
			Status:    runlog.StatusRegistryFailed,
			StartedAt: now.Add(-24 * time.Hour),
			Error:     "wellreg: fetch: source: fetch well_metadata from EnterpriseDataHub: dial tcp 10.0.0.5:5432: connect: connection refused",
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, entries)

	out := buf.String()
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "abc12345")
	assert.Contains(t, out, "complete")
	assert.Contains(t, out, "2026-10-19 06:00")
	assert.Contains(t, out, "1m35s")
	assert.Contains(t, out, "1200")
	assert.Contains(t, out, "registry_failed")
	assert.Contains(t, out, "...")
	assert.NotContains(t, out, "connection refused")
}

func TestFormatLastSuccess(t *testing.T) {
	var buf bytes.Buffer
	formatLastSuccess(&buf, nil)
	assert.Equal(t, "Last successful run: never\n", buf.String())

	buf.Reset()
	at := time.Date(2026, 10, 18, 6, 0, 0, 0, time.UTC)
	formatLastSuccess(&buf, &at)
	assert.Equal(t, "Last successful run: 2026-10-18 06:00\n", buf.String())
}
