package application

import (
	"context"
	"fmt"

	"genie-storefront-assistant/internal/domain"

	"github.com/rs/zerolog"
)

// WebhookHandler processes one family of webhook topics
type WebhookHandler interface {
	CanHandle(topic string) bool
	Handle(ctx context.Context, event *domain.WebhookEvent) error
}

// WebhookDispatcher routes verified webhook deliveries to their handlers
type WebhookDispatcher struct {
	handlers []WebhookHandler
	logger   zerolog.Logger
}

// NewWebhookDispatcher creates a dispatcher with no handlers
func NewWebhookDispatcher(logger zerolog.Logger) *WebhookDispatcher {
	return &WebhookDispatcher{logger: logger}
}

// RegisterHandler adds a handler; handlers run in registration order
func (d *WebhookDispatcher) RegisterHandler(h WebhookHandler) {
	d.handlers = append(d.handlers, h)
}

// Dispatch runs every handler that accepts the topic. Topics nobody handles
// are acknowledged and only logged.
func (d *WebhookDispatcher) Dispatch(ctx context.Context, event *domain.WebhookEvent) error {
	if event.Topic == "" {
		return domain.NewValidationError("topic")
	}
	if event.Shop == "" {
		return domain.NewValidationError("shop")
	}

	handled := false
	for _, h := range d.handlers {
		if !h.CanHandle(event.Topic) {
			continue
		}
		handled = true
		if err := h.Handle(ctx, event); err != nil {
			d.logger.Error().Err(err).Str("topic", event.Topic).Str("shop", event.Shop).Msg("Webhook handler failed")
			return fmt.Errorf("failed to handle %s webhook: %w", event.Topic, err)
		}
	}

	if !handled {
		d.logger.Debug().Str("topic", event.Topic).Str("shop", event.Shop).Msg("No handler for webhook topic")
	}
	return nil
}
