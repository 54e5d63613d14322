package domain

import "time"

// WebhookEvent is a verified platform webhook delivery
type WebhookEvent struct {
	Topic      string
	Shop       string
	WebhookID  string
	Payload    []byte
	ReceivedAt time.Time
}
