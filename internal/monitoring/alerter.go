package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/markusj1201/SoHa-Priorities/internal/config"
	"github.com/markusj1201/SoHa-Priorities/internal/model"
	"github.com/markusj1201/SoHa-Priorities/internal/resilience"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertRegistryFailure   AlertType = "registry_failure"
	AlertSourceUnavailable AlertType = "source_unavailable"
	AlertInvalidInput      AlertType = "invalid_input"
	AlertScorerPanic       AlertType = "scorer_panic"
	AlertSinkFailure       AlertType = "sink_failure"
	AlertEmptyRun          AlertType = "empty_run"
)

// Alert represents a single alert to be sent.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	RunID     string         `json:"run_id,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Alerter evaluates a RunSnapshot and sends alerts via webhook.
type Alerter struct {
	cfg    config.MonitoringConfig
	client *http.Client
	policy resilience.Policy
}

// NewAlerter creates a new Alerter with the given monitoring config.
// Webhook posts are retried on transient HTTP statuses.
func NewAlerter(cfg config.MonitoringConfig) *Alerter {
	return &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		policy: resilience.Policy{
			MaxAttempts:    3,
			InitialBackoff: 500 * time.Millisecond,
			MaxBackoff:     5 * time.Second,
		},
	}
}

var failureAlerts = map[string]AlertType{
	model.ReasonSourceUnavailable: AlertSourceUnavailable,
	model.ReasonInvalidInput:      AlertInvalidInput,
	model.ReasonPanic:             AlertScorerPanic,
}

// Evaluate returns the alerts a run warrants: registry or sink failure,
// one per failed scorer, and an all-empty run.
func (a *Alerter) Evaluate(snap *RunSnapshot) []Alert {
	var alerts []Alert
	now := time.Now().UTC()

	if snap.RegistryErr != nil {
		return append(alerts, Alert{
			Type:      AlertRegistryFailure,
			Severity:  "critical",
			Message:   "Well registry could not be built; no priorities were computed",
			RunID:     snap.RunID,
			Details:   map[string]any{"error": snap.RegistryErr.Error()},
			Timestamp: now,
		})
	}

	anyOK := false
	for _, o := range snap.Outcomes {
		if o.Status == model.StatusOK {
			anyOK = true
		}
		if o.Status != model.StatusFailed {
			continue
		}
		typ, ok := failureAlerts[o.Reason]
		if !ok {
			typ = AlertSourceUnavailable
		}
		alerts = append(alerts, Alert{
			Type:     typ,
			Severity: "high",
			Message:  fmt.Sprintf("%s priorities were skipped: %s", o.Type, o.Reason),
			RunID:    snap.RunID,
			Details: map[string]any{
				"scorer": o.Scorer,
				"error":  o.Error,
			},
			Timestamp: now,
		})
	}

	if snap.SinkErr != nil {
		alerts = append(alerts, Alert{
			Type:      AlertSinkFailure,
			Severity:  "critical",
			Message:   "Priority tables could not be written",
			RunID:     snap.RunID,
			Details:   map[string]any{"error": snap.SinkErr.Error()},
			Timestamp: now,
		})
	}

	if !anyOK && len(snap.Outcomes) > 0 {
		alerts = append(alerts, Alert{
			Type:      AlertEmptyRun,
			Severity:  "warning",
			Message:   fmt.Sprintf("No scorer produced priorities across %d wells", snap.RegistrySize),
			RunID:     snap.RunID,
			Timestamp: now,
		})
	}
	return alerts
}

// SendAlerts delivers alerts to the configured webhook URL.
// Returns the number of alerts successfully sent.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	if a.cfg.WebhookURL == "" || len(alerts) == 0 {
		return 0
	}

	sent := 0
	for _, alert := range alerts {
		err := resilience.Do(ctx, a.policy, func(ctx context.Context) error {
			return a.sendWebhook(ctx, alert)
		})
		if err != nil {
			zap.L().Error("monitoring: failed to send alert",
				zap.String("type", string(alert.Type)),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("monitoring: alert sent",
			zap.String("type", string(alert.Type)),
			zap.String("severity", alert.Severity),
		)
		sent++
	}
	return sent
}

// sendWebhook posts a single alert to the webhook URL.
func (a *Alerter) sendWebhook(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return eris.Wrap(err, "monitoring: marshal alert")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "monitoring: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "monitoring: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		err := eris.Errorf("monitoring: webhook returned status %d", resp.StatusCode)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return resilience.NewTransientError(err, resp.StatusCode)
		}
		return err
	}
	return nil
}
