package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the service collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	provisionAttempts *prometheus.CounterVec
	chatMessages      *prometheus.CounterVec
	fallbackReplies   *prometheus.CounterVec
	externalCalls     *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		provisionAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "genie",
			Name:      "provision_attempts_total",
			Help:      "Widget provisioning attempts by mechanism and result.",
		}, []string{"mechanism", "result"}),
		chatMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "genie",
			Name:      "chat_messages_total",
			Help:      "Shopper messages handled by classified intent.",
		}, []string{"intent"}),
		fallbackReplies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "genie",
			Name:      "chat_fallback_replies_total",
			Help:      "Replies that degraded to the default message, by reason.",
		}, []string{"reason"}),
		externalCalls: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "genie",
			Name:      "external_call_duration_seconds",
			Help:      "Latency of calls to the commerce platform and the language model.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"service", "operation"}),
	}
	reg.MustRegister(m.provisionAttempts, m.chatMessages, m.fallbackReplies, m.externalCalls)
	return m
}

// ProvisionAttempt counts one provisioning mechanism outcome
func (m *Metrics) ProvisionAttempt(mechanism, result string) {
	if m == nil {
		return
	}
	m.provisionAttempts.WithLabelValues(mechanism, result).Inc()
}

// ChatMessage counts a classified shopper message
func (m *Metrics) ChatMessage(intent string) {
	if m == nil {
		return
	}
	m.chatMessages.WithLabelValues(intent).Inc()
}

// FallbackReply counts a degraded reply
func (m *Metrics) FallbackReply(reason string) {
	if m == nil {
		return
	}
	m.fallbackReplies.WithLabelValues(reason).Inc()
}

// ObserveExternalCall records the latency of an outbound call started at start
func (m *Metrics) ObserveExternalCall(service, operation string, start time.Time) {
	if m == nil {
		return
	}
	m.externalCalls.WithLabelValues(service, operation).Observe(time.Since(start).Seconds())
}
