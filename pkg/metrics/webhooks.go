package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// WebhookMetrics records webhook delivery outcomes by event type.
type WebhookMetrics struct {
	received   *prometheus.CounterVec
	handled    *prometheus.CounterVec
	failed     *prometheus.CounterVec
	duplicates *prometheus.CounterVec
	promotions prometheus.Counter
}

// NewWebhookMetrics registers the webhook metrics on the provided registerer.
func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	if reg == nil {
		return &WebhookMetrics{}
	}
	received := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_received",
		Help: "Webhook events received, before idempotency filtering.",
	}, []string{"source", "type"})
	handled := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_handled",
		Help: "Webhook events processed to completion.",
	}, []string{"source", "type"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_failed",
		Help: "Webhook events that ended in a handler error.",
	}, []string{"source", "type"})
	duplicates := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_duplicate",
		Help: "Webhook deliveries skipped by the idempotency guard.",
	}, []string{"source", "type"})
	promotions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "submission_promotions_total",
		Help: "Submissions promoted to published companies.",
	})
	reg.MustRegister(received, handled, failed, duplicates, promotions)
	return &WebhookMetrics{
		received:   received,
		handled:    handled,
		failed:     failed,
		duplicates: duplicates,
		promotions: promotions,
	}
}

// IncReceived counts a delivery before any filtering.
func (m *WebhookMetrics) IncReceived(source, eventType string) {
	if m == nil || m.received == nil {
		return
	}
	m.received.WithLabelValues(normalizeLabel(source), normalizeLabel(eventType)).Inc()
}

// IncHandled counts a fully processed event.
func (m *WebhookMetrics) IncHandled(source, eventType string) {
	if m == nil || m.handled == nil {
		return
	}
	m.handled.WithLabelValues(normalizeLabel(source), normalizeLabel(eventType)).Inc()
}

// IncFailed counts a handler error.
func (m *WebhookMetrics) IncFailed(source, eventType string) {
	if m == nil || m.failed == nil {
		return
	}
	m.failed.WithLabelValues(normalizeLabel(source), normalizeLabel(eventType)).Inc()
}

// IncDuplicate counts a delivery dropped by the idempotency guard.
func (m *WebhookMetrics) IncDuplicate(source, eventType string) {
	if m == nil || m.duplicates == nil {
		return
	}
	m.duplicates.WithLabelValues(normalizeLabel(source), normalizeLabel(eventType)).Inc()
}

// IncPromotion counts a submission promoted to a company.
func (m *WebhookMetrics) IncPromotion() {
	if m == nil || m.promotions == nil {
		return
	}
	m.promotions.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
