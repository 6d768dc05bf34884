package observability

import (
	"context"

	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the wizard collectors.
type Metrics struct {
	StepChanges    *prometheus.CounterVec
	Submissions    *prometheus.CounterVec
	SubmitDuration *prometheus.HistogramVec
	InFlight       prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		StepChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadflow_step_changes_total",
				Help: "Total number of wizard step transitions",
			},
			[]string{"variant", "direction"},
		),
		Submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadflow_submissions_total",
				Help: "Total number of lead submissions by outcome",
			},
			[]string{"variant", "lead_type", "outcome"},
		),
		SubmitDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "leadflow_submit_duration_seconds",
				Help:    "Duration of lead submission calls",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"variant"},
		),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "leadflow_submissions_in_flight",
			Help: "Lead submissions currently waiting on the leads endpoint",
		}),
	}

	for _, c := range []prometheus.Collector{m.StepChanges, m.Submissions, m.SubmitDuration, m.InFlight} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepChange: func(ctx context.Context, e *domain.StepEvent) {
			direction := "forward"
			if e.To < e.From {
				direction = "back"
			}
			m.StepChanges.WithLabelValues(e.Variant, direction).Inc()
		},
		OnSubmit: func(ctx context.Context, e *domain.SubmitEvent) {
			m.InFlight.Inc()
		},
		OnSubmitResult: func(ctx context.Context, e *domain.SubmitEvent) {
			m.InFlight.Dec()
			outcome := "success"
			if !e.Success {
				outcome = "failure"
			}
			m.Submissions.WithLabelValues(e.Variant, string(e.LeadType), outcome).Inc()
			m.SubmitDuration.WithLabelValues(e.Variant).Observe(e.Duration.Seconds())
		},
	}
}
