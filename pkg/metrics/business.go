package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const businessSubsystem = "admeter"

var MetricsBusinessProcess = &Metric{
	ID:          "bpDur",
	Name:        "bp_dur",
	Description: "Business step latency in milliseconds, partitioned by step type and subtype.",
	Type:        "histogram_vec",
	Args:        []string{"type", "subtype"},
}

var MetricsQuotaDecisions = &Metric{
	ID:          "quotaDecisions",
	Name:        "quota_decisions_total",
	Description: "Quota reservation and capacity decisions, partitioned by operation, outcome and reason.",
	Type:        "counter_vec",
	Args:        []string{"operation", "outcome", "reason"},
}

var MetricsTrackedEvents = &Metric{
	ID:          "trackedEvents",
	Name:        "tracked_events_total",
	Description: "Tracking events by type and outcome (tracked, deduped, limit_reached, ignored).",
	Type:        "counter_vec",
	Args:        []string{"event_type", "outcome"},
}

var MetricsWebhookEvents = &Metric{
	ID:          "webhookEvents",
	Name:        "webhook_events_total",
	Description: "Payment provider webhook deliveries by provider and outcome.",
	Type:        "counter_vec",
	Args:        []string{"provider", "outcome"},
}

var MetricsCompensationFailures = &Metric{
	ID:          "compensationFailures",
	Name:        "compensation_failures_total",
	Description: "Compensating quota releases that failed and were dead-lettered.",
	Type:        "counter",
}

var businessMetrics = []*Metric{
	MetricsBusinessProcess,
	MetricsQuotaDecisions,
	MetricsTrackedEvents,
	MetricsWebhookEvents,
	MetricsCompensationFailures,
}

func init() {
	for _, m := range businessMetrics {
		m.MetricCollector = NewMetric(m, businessSubsystem)
		prometheus.MustRegister(m.MetricCollector)
	}
}

func ObserveQuotaDecision(operation, outcome, reason string) {
	MetricsQuotaDecisions.MetricCollector.(*prometheus.CounterVec).WithLabelValues(operation, outcome, reason).Inc()
}

func ObserveTrackedEvent(eventType, outcome string) {
	MetricsTrackedEvents.MetricCollector.(*prometheus.CounterVec).WithLabelValues(eventType, outcome).Inc()
}

func ObserveWebhookEvent(provider, outcome string) {
	MetricsWebhookEvents.MetricCollector.(*prometheus.CounterVec).WithLabelValues(provider, outcome).Inc()
}

func IncCompensationFailure() {
	MetricsCompensationFailures.MetricCollector.(prometheus.Counter).Inc()
}

// ObserveBusinessProcess records the latency of a business step started at start.
func ObserveBusinessProcess(typ, subtype string, start time.Time) {
	MetricsBusinessProcess.MetricCollector.(*prometheus.HistogramVec).WithLabelValues(typ, subtype).Observe(MillisecondsSince(start))
}
