package webhook_handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"genie-storefront-assistant/internal/domain"
	"genie-storefront-assistant/internal/ports"

	"github.com/rs/zerolog"
)

// AppUninstalledHandler handles app uninstalled webhook events
type AppUninstalledHandler struct {
	logger  zerolog.Logger
	shops   ports.ShopRepository
	widgets ports.WidgetInstallationRepository
	now     func() time.Time
}

// NewAppUninstalledHandler creates a new app uninstalled webhook handler
func NewAppUninstalledHandler(
	logger zerolog.Logger,
	shops ports.ShopRepository,
	widgets ports.WidgetInstallationRepository,
) *AppUninstalledHandler {
	return &AppUninstalledHandler{
		logger:  logger,
		shops:   shops,
		widgets: widgets,
		now:     time.Now,
	}
}

// CanHandle returns true if this handler can process the given topic
func (h *AppUninstalledHandler) CanHandle(topic string) bool {
	return topic == "app/uninstalled"
}

// Handle retires the widget of an uninstalled shop. The platform removes our
// script tags itself and the token is already revoked, so only local records
// change. The account is kept.
func (h *AppUninstalledHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	var shopData struct {
		Domain          string `json:"domain"`
		MyshopifyDomain string `json:"myshopify_domain"`
	}
	if err := json.Unmarshal(event.Payload, &shopData); err != nil {
		return fmt.Errorf("failed to parse app uninstalled webhook payload: %w", err)
	}

	shopDomain := event.Shop
	if shopDomain == "" {
		shopDomain = shopData.MyshopifyDomain
	}
	if shopDomain == "" {
		shopDomain = shopData.Domain
	}

	h.logger.Info().
		Str("topic", event.Topic).
		Str("shop", shopDomain).
		Msg("Processing app uninstalled webhook event")

	now := h.now().UTC()

	installation, err := h.widgets.FindByDomain(ctx, shopDomain)
	if err != nil {
		return fmt.Errorf("failed to get widget installation: %w", err)
	}
	if installation.IsActive() {
		installation.Status = domain.StatusInactive
		installation.UpdatedAt = now
		if err := h.widgets.Save(ctx, installation); err != nil {
			return fmt.Errorf("failed to save widget installation: %w", err)
		}
	}

	if err := h.shops.UpdateWidgetState(ctx, shopDomain, domain.WidgetState{Installed: false, RemovedAt: &now}); err != nil {
		h.logger.Warn().Err(err).Str("shop", shopDomain).Msg("Failed to update widget state for uninstalled shop")
	}

	h.logger.Info().
		Str("shop", shopDomain).
		Msg("App uninstalled - cleanup completed")
	return nil
}
