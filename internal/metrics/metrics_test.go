package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestObserveAgentCall(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveAgentCall("summary", time.Second, nil)
	m.ObserveAgentCall("summary", time.Second, errors.New("boom"))
	m.ObserveAgentCall("summary", time.Second, nil)

	require.Equal(t, 2.0, testutil.ToFloat64(m.AgentCallsTotal.WithLabelValues("summary", "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.AgentCallsTotal.WithLabelValues("summary", "error")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveAgentCall("x", time.Second, nil)
	m.ObservePipelineRun("ok")
}
