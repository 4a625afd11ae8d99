package model

import "time"

// OutcomeStatus classifies a scorer result.
type OutcomeStatus string

const (
	StatusOK     OutcomeStatus = "ok"
	StatusEmpty  OutcomeStatus = "empty"
	StatusFailed OutcomeStatus = "failed"
)

// Reason codes attached to empty and failed outcomes.
const (
	ReasonNoQualifyingRows  = "no_qualifying_rows"
	ReasonDisabled          = "disabled"
	ReasonSourceUnavailable = "source_unavailable"
	ReasonInvalidInput      = "invalid_input"
	ReasonPanic             = "panic"
)

// Outcome is the result of one scorer: either items, or an explicit empty
// or failed marker carrying a reason code.
type Outcome struct {
	Scorer  string         `json:"scorer"`
	Type    PriorityType   `json:"priority_type"`
	Status  OutcomeStatus  `json:"status"`
	Reason  string         `json:"reason,omitempty"`
	Err     error          `json:"-"`
	Error   string         `json:"error,omitempty"`
	Items   []PriorityItem `json:"-"`
	Count   int            `json:"count"`
	Elapsed time.Duration  `json:"elapsed_ns"`
}

// OK wraps scored items. An empty slice yields an Empty outcome instead.
func OK(scorer string, t PriorityType, items []PriorityItem) Outcome {
	if len(items) == 0 {
		return Empty(scorer, t, ReasonNoQualifyingRows)
	}
	return Outcome{Scorer: scorer, Type: t, Status: StatusOK, Items: items, Count: len(items)}
}

// Empty reports that the scorer produced no qualifying rows.
func Empty(scorer string, t PriorityType, reason string) Outcome {
	return Outcome{Scorer: scorer, Type: t, Status: StatusEmpty, Reason: reason}
}

// Failed reports that the scorer could not run to completion.
func Failed(scorer string, t PriorityType, reason string, err error) Outcome {
	o := Outcome{Scorer: scorer, Type: t, Status: StatusFailed, Reason: reason, Err: err}
	if err != nil {
		o.Error = err.Error()
	}
	return o
}

// HasItems reports whether the outcome contributes rows to aggregation.
func (o Outcome) HasItems() bool {
	return o.Status == StatusOK && len(o.Items) > 0
}
