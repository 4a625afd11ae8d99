package pipeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/markusj1201/SoHa-Priorities/internal/aggregate"
	"github.com/markusj1201/SoHa-Priorities/internal/model"
	"github.com/markusj1201/SoHa-Priorities/internal/monitoring"
	"github.com/markusj1201/SoHa-Priorities/internal/runlog"
)

// Report describes one run.
type Report struct {
	RunID        uuid.UUID
	StartedAt    time.Time
	Elapsed      time.Duration
	DryRun       bool
	RegistrySize int
	RegistryErr  error
	SinkErr      error
	Outcomes     []model.Outcome
	Rows         []model.PriorityRow
	Final        []model.FinalRow
	Alerts       []monitoring.Alert
}

// RowsWritten is the number of final rows persisted; zero for dry runs
// and failed writes.
func (r *Report) RowsWritten() int {
	if r.DryRun || r.SinkErr != nil || r.RegistryErr != nil {
		return 0
	}
	return len(r.Final)
}

// Summaries condenses the outcomes for the run log.
func (r *Report) Summaries() []runlog.ScorerSummary {
	out := make([]runlog.ScorerSummary, len(r.Outcomes))
	for i, o := range r.Outcomes {
		out[i] = runlog.ScorerSummary{
			Scorer:    o.Scorer,
			Status:    string(o.Status),
			Reason:    o.Reason,
			Error:     o.Error,
			Items:     o.Count,
			ElapsedMs: o.Elapsed.Milliseconds(),
		}
	}
	return out
}

// Snapshot converts the report for monitoring.
func (r *Report) Snapshot() *monitoring.RunSnapshot {
	return &monitoring.RunSnapshot{
		RunID:        r.RunID.String(),
		StartedAt:    r.StartedAt,
		Elapsed:      r.Elapsed,
		RegistrySize: r.RegistrySize,
		RegistryErr:  r.RegistryErr,
		SinkErr:      r.SinkErr,
		Outcomes:     r.Outcomes,
		Rows:         aggregate.CountByType(r.Rows),
		TotalRows:    len(r.Rows),
	}
}

// Failed returns the outcomes that failed.
func (r *Report) Failed() []model.Outcome {
	var out []model.Outcome
	for _, o := range r.Outcomes {
		if o.Status == model.StatusFailed {
			out = append(out, o)
		}
	}
	return out
}
