package application

import (
	"context"
	"fmt"

	"genie-storefront-assistant/internal/domain"
	"genie-storefront-assistant/internal/ports"
)

// WidgetService backs the explicit widget endpoints with credentials from the registry
type WidgetService struct {
	shops       *ShopService
	widgets     ports.WidgetInstallationRepository
	provisioner *WidgetProvisioner
}

// NewWidgetService creates a new widget service
func NewWidgetService(shops *ShopService, widgets ports.WidgetInstallationRepository, provisioner *WidgetProvisioner) *WidgetService {
	return &WidgetService{shops: shops, widgets: widgets, provisioner: provisioner}
}

// Inject provisions the widget for a registered shop
func (s *WidgetService) Inject(ctx context.Context, shop string) (*domain.WidgetInstallation, error) {
	account, err := s.shops.GetAccount(ctx, shop)
	if err != nil {
		return nil, err
	}
	return s.provisioner.Provision(ctx, shop, account.Credentials.AccessToken)
}

// Remove retires the widget of a registered shop
func (s *WidgetService) Remove(ctx context.Context, shop string) (*domain.WidgetInstallation, error) {
	account, err := s.shops.GetAccount(ctx, shop)
	if err != nil {
		return nil, err
	}
	return s.provisioner.Remove(ctx, shop, account.Credentials.AccessToken)
}

// Installation returns the active installation of a shop
func (s *WidgetService) Installation(ctx context.Context, shop string) (*domain.WidgetInstallation, error) {
	if shop == "" {
		return nil, domain.NewValidationError("shop")
	}
	installation, err := s.widgets.FindByDomain(ctx, shop)
	if err != nil {
		return nil, fmt.Errorf("failed to get widget installation: %w", err)
	}
	if !installation.IsActive() {
		return nil, domain.NewNotFoundError("widget installation", shop)
	}
	return installation, nil
}
