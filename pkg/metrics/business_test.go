package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestBusinessCounters(t *testing.T) {
	decisions := MetricsQuotaDecisions.MetricCollector.(*prometheus.CounterVec).WithLabelValues("reserve_ad_slot", "denied", "AD_LIMIT_REACHED")
	before := counterValue(t, decisions)
	ObserveQuotaDecision("reserve_ad_slot", "denied", "AD_LIMIT_REACHED")
	require.Equal(t, before+1, counterValue(t, decisions))

	webhooks := MetricsWebhookEvents.MetricCollector.(*prometheus.CounterVec).WithLabelValues("stripe", "duplicate")
	before = counterValue(t, webhooks)
	ObserveWebhookEvent("stripe", "duplicate")
	require.Equal(t, before+1, counterValue(t, webhooks))

	failures := MetricsCompensationFailures.MetricCollector.(prometheus.Counter)
	before = counterValue(t, failures)
	IncCompensationFailure()
	require.Equal(t, before+1, counterValue(t, failures))
}

func TestObserveBusinessProcess(t *testing.T) {
	ObserveBusinessProcess("metering", "impression", time.Now().Add(-20*time.Millisecond))

	obs, err := MetricsBusinessProcess.MetricCollector.(*prometheus.HistogramVec).GetMetricWithLabelValues("metering", "impression")
	require.NoError(t, err)
	var m dto.Metric
	require.NoError(t, obs.(prometheus.Metric).Write(&m))
	require.EqualValues(t, 1, m.GetHistogram().GetSampleCount())
	require.GreaterOrEqual(t, m.GetHistogram().GetSampleSum(), 20.0)
}

func TestNewMetric_UnknownType(t *testing.T) {
	require.Nil(t, NewMetric(&Metric{Name: "x", Type: "gauge"}, "test"))
}
