package observability

import (
	"context"

	"github.com/aretw0/nexusmind/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors fed by the pipeline hooks.
type Metrics struct {
	sessions        *prometheus.CounterVec
	sessionDuration prometheus.Histogram
	stageDuration   *prometheus.HistogramVec
	stageFailures   *prometheus.CounterVec
	halts           prometheus.Counter
	confidence      *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nexusmind_sessions_total",
			Help: "Finished sessions by final status",
		}, []string{"status"}),
		sessionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "nexusmind_session_duration_seconds",
			Help:    "Wall-clock duration of a full pipeline run",
			Buckets: prometheus.DefBuckets,
		}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "nexusmind_stage_duration_seconds",
			Help:    "Duration of a single stage execution",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"stage"}),
		stageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nexusmind_stage_failures_total",
			Help: "Stage executions whose trace entry carries an error",
		}, []string{"stage"}),
		halts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nexusmind_halts_total",
			Help: "Sessions stopped by the initialization guard",
		}),
		confidence: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "nexusmind_last_confidence",
			Help: "Final confidence vector of the most recent session",
		}, []string{"component"}),
	}
	for _, c := range []prometheus.Collector{
		m.sessions, m.sessionDuration, m.stageDuration, m.stageFailures, m.halts, m.confidence,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

var confidenceComponents = [4]string{
	"empirical_support", "theoretical_basis", "methodological_rigor", "consensus_alignment",
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStageFinish: func(_ context.Context, e *domain.StageEvent) {
			stage := e.Stage.String()
			m.stageDuration.WithLabelValues(stage).Observe(e.Duration.Seconds())
			if e.Entry != nil && e.Entry.Failed() {
				m.stageFailures.WithLabelValues(stage).Inc()
			}
		},
		OnHalt: func(context.Context, *domain.HaltEvent) {
			m.halts.Inc()
		},
		OnSessionFinish: func(_ context.Context, e *domain.SessionEvent) {
			m.sessions.WithLabelValues(string(e.Status)).Inc()
			m.sessionDuration.Observe(e.Duration.Seconds())
			for i, name := range confidenceComponents {
				m.confidence.WithLabelValues(name).Set(e.Confidence[i])
			}
		},
	}
}

// Sessions returns the finished-sessions counter, labelled by status.
func (m *Metrics) Sessions() *prometheus.CounterVec { return m.sessions }

// Halts returns the halted-sessions counter.
func (m *Metrics) Halts() prometheus.Counter { return m.halts }
