package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for agent calls and pipeline runs.
type Metrics struct {
	AgentCallsTotal   *prometheus.CounterVec
	AgentCallSeconds  *prometheus.HistogramVec
	PipelineRunsTotal *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		AgentCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_calls_total",
				Help: "Agent invocations by task and outcome",
			},
			[]string{"task", "status"},
		),
		AgentCallSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agent_call_seconds",
				Help:    "Agent invocation latency",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120, 300},
			},
			[]string{"task"},
		),
		PipelineRunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipeline_runs_total",
				Help: "Transcription webhook pipeline runs by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// ObserveAgentCall is nil-safe so callers can run without metrics.
func (m *Metrics) ObserveAgentCall(task string, took time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.AgentCallsTotal.WithLabelValues(task, status).Inc()
	m.AgentCallSeconds.WithLabelValues(task).Observe(took.Seconds())
}

func (m *Metrics) ObservePipelineRun(outcome string) {
	if m == nil {
		return
	}
	m.PipelineRunsTotal.WithLabelValues(outcome).Inc()
}
