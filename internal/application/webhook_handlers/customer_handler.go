package webhook_handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"genie-storefront-assistant/internal/domain"
	"genie-storefront-assistant/internal/ports"

	"github.com/rs/zerolog"
)

// CustomerHandler handles the privacy webhooks that concern stored customer sessions
type CustomerHandler struct {
	logger    zerolog.Logger
	customers ports.CustomerRepository
}

// NewCustomerHandler creates a new customer webhook handler
func NewCustomerHandler(logger zerolog.Logger, customers ports.CustomerRepository) *CustomerHandler {
	return &CustomerHandler{
		logger:    logger,
		customers: customers,
	}
}

// CanHandle returns true if this handler can process the given topic
func (h *CustomerHandler) CanHandle(topic string) bool {
	return topic == "customers/redact" ||
		topic == "customers/data_request" ||
		topic == "shop/redact"
}

// Handle processes a privacy webhook event
func (h *CustomerHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	var payload struct {
		ShopDomain string `json:"shop_domain"`
		Customer   struct {
			ID    int64  `json:"id"`
			Email string `json:"email"`
		} `json:"customer"`
	}
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("failed to parse customer webhook payload: %w", err)
	}

	shop := event.Shop
	if shop == "" {
		shop = payload.ShopDomain
	}

	switch event.Topic {
	case "customers/data_request":
		// sessions hold only the email, ids and tokens we already send back on request
		h.logger.Info().Str("shop", shop).Int64("customerId", payload.Customer.ID).Msg("Customer data requested")
		return nil
	case "customers/redact":
		if payload.Customer.Email == "" {
			h.logger.Warn().Str("shop", shop).Msg("Customer redact without email, nothing to delete")
			return nil
		}
		deleted, err := h.customers.DeleteByShop(ctx, shop, payload.Customer.Email)
		if err != nil {
			return err
		}
		h.logger.Info().Str("shop", shop).Int64("deleted", deleted).Msg("Customer sessions redacted")
	case "shop/redact":
		deleted, err := h.customers.DeleteByShop(ctx, shop, "")
		if err != nil {
			return err
		}
		h.logger.Info().Str("shop", shop).Int64("deleted", deleted).Msg("Shop customer sessions redacted")
	}
	return nil
}
