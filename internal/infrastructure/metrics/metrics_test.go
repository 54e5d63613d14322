package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ProvisionAttempt("platform-hook", "failure")
	m.ProvisionAttempt("asset-injection", "success")
	m.ProvisionAttempt("asset-injection", "success")
	m.ChatMessage("product_search")
	m.FallbackReply("llm_error")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.provisionAttempts.WithLabelValues("platform-hook", "failure")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.provisionAttempts.WithLabelValues("asset-injection", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.chatMessages.WithLabelValues("product_search")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fallbackReplies.WithLabelValues("llm_error")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ProvisionAttempt("platform-hook", "success")
		m.ChatMessage("general")
		m.FallbackReply("timeout")
		m.ObserveExternalCall("shopify", "graphql", time.Now())
	})
}
