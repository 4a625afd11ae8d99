package monitoring

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/rotisserie/eris"

	"github.com/markusj1201/SoHa-Priorities/internal/config"
	"github.com/markusj1201/SoHa-Priorities/internal/model"
)

// RunSnapshot is everything a finished run reports to monitoring.
type RunSnapshot struct {
	RunID        string
	StartedAt    time.Time
	Elapsed      time.Duration
	RegistrySize int
	RegistryErr  error
	SinkErr      error
	Outcomes     []model.Outcome
	Rows         map[model.PriorityType]int
	TotalRows    int
}

// Succeeded reports whether the run produced and wrote its tables.
func (s *RunSnapshot) Succeeded() bool {
	return s.RegistryErr == nil && s.SinkErr == nil
}

var outcomeStatuses = []model.OutcomeStatus{model.StatusOK, model.StatusEmpty, model.StatusFailed}

// Collector turns run snapshots into Prometheus gauges on a private
// registry and pushes them to a Pushgateway.
type Collector struct {
	reg         *prometheus.Registry
	rows        *prometheus.GaugeVec
	scorer      *prometheus.GaugeVec
	wells       prometheus.Gauge
	duration    prometheus.Gauge
	lastSuccess prometheus.Gauge

	pushURL string
	job     string
}

// NewCollector registers the run gauges.
func NewCollector(cfg config.MonitoringConfig) *Collector {
	c := &Collector{
		reg: prometheus.NewRegistry(),
		rows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "soha_priorities_rows",
			Help: "Priority rows written in the last run, by priority type",
		}, []string{"priority_type"}),
		scorer: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "soha_priorities_scorer_status",
			Help: "1 for the status each scorer ended the last run with, 0 otherwise",
		}, []string{"scorer", "status"}),
		wells: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "soha_priorities_registry_wells",
			Help: "Wells in the reference registry of the last run",
		}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "soha_priorities_run_duration_seconds",
			Help: "Wall time of the last run",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "soha_priorities_last_success_timestamp_seconds",
			Help: "Unix time the last successful run started",
		}),
		pushURL: cfg.PushgatewayURL,
		job:     cfg.Job,
	}
	c.reg.MustRegister(c.rows, c.scorer, c.wells, c.duration, c.lastSuccess)
	return c
}

// Registry exposes the gatherer, mainly for tests.
func (c *Collector) Registry() *prometheus.Registry { return c.reg }

// Observe records snap on the gauges.
func (c *Collector) Observe(snap *RunSnapshot) {
	c.rows.Reset()
	for pt, n := range snap.Rows {
		c.rows.WithLabelValues(string(pt)).Set(float64(n))
	}
	c.scorer.Reset()
	for _, o := range snap.Outcomes {
		for _, st := range outcomeStatuses {
			v := 0.0
			if o.Status == st {
				v = 1
			}
			c.scorer.WithLabelValues(o.Scorer, string(st)).Set(v)
		}
	}
	c.wells.Set(float64(snap.RegistrySize))
	c.duration.Set(snap.Elapsed.Seconds())
	if snap.Succeeded() {
		c.lastSuccess.Set(float64(snap.StartedAt.Unix()))
	}
}

// Push sends the gauges to the Pushgateway. It is a no-op without a URL.
func (c *Collector) Push(ctx context.Context) error {
	if c.pushURL == "" {
		return nil
	}
	job := c.job
	if job == "" {
		job = "soha_priorities"
	}
	if err := push.New(c.pushURL, job).Gatherer(c.reg).PushContext(ctx); err != nil {
		return eris.Wrap(err, "monitoring: push metrics")
	}
	return nil
}
