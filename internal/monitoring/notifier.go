package monitoring

import (
	"context"

	"go.uber.org/zap"

	"github.com/markusj1201/SoHa-Priorities/internal/config"
)

// Notifier publishes a finished run: gauges to the Pushgateway and alerts
// to the webhook. Neither ever fails the run.
type Notifier struct {
	collector *Collector
	alerter   *Alerter
}

// NewNotifier creates a notifier from the monitoring config.
func NewNotifier(cfg config.MonitoringConfig) *Notifier {
	return &Notifier{
		collector: NewCollector(cfg),
		alerter:   NewAlerter(cfg),
	}
}

// Notify records snap, pushes metrics and sends any alerts. It returns the
// alerts that were triggered.
func (n *Notifier) Notify(ctx context.Context, snap *RunSnapshot) []Alert {
	log := zap.L().With(zap.String("component", "monitoring"), zap.String("run_id", snap.RunID))

	n.collector.Observe(snap)
	if err := n.collector.Push(ctx); err != nil {
		log.Warn("monitoring: failed to push metrics", zap.Error(err))
	}

	alerts := n.alerter.Evaluate(snap)
	if len(alerts) == 0 {
		log.Debug("monitoring: no alerts triggered")
		return nil
	}

	sent := n.alerter.SendAlerts(ctx, alerts)
	log.Info("monitoring: alert check complete",
		zap.Int("alerts_triggered", len(alerts)),
		zap.Int("alerts_sent", sent),
	)
	return alerts
}
