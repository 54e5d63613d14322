package ports

// Metrics records service-level counters. *metrics.Metrics satisfies it.
type Metrics interface {
	ProvisionAttempt(mechanism, result string)
	ChatMessage(intent string)
	FallbackReply(reason string)
}

// NopMetrics discards everything
type NopMetrics struct{}

func (NopMetrics) ProvisionAttempt(string, string) {}
func (NopMetrics) ChatMessage(string)              {}
func (NopMetrics) FallbackReply(string)            {}
