package ports

import (
	"context"

	"genie-storefront-assistant/internal/domain"
)

// ShopRepository persists ShopAccount records keyed by shop domain
type ShopRepository interface {
	// FindByDomain returns (nil, nil) when the shop is unknown
	FindByDomain(ctx context.Context, shopDomain string) (*domain.ShopAccount, error)

	// Upsert writes identity and credentials; widget state is left untouched
	Upsert(ctx context.Context, account *domain.ShopAccount) error

	UpdateWidgetState(ctx context.Context, shopDomain string, state domain.WidgetState) error

	// UpdateProvisioningError sets only the last provisioning error, leaving the
	// installed flag and timestamps as they are
	UpdateProvisioningError(ctx context.Context, shopDomain string, message string) error
	UpdateStorefrontToken(ctx context.Context, shopDomain string, token string) error
	UpdateCustomerAccount(ctx context.Context, shopDomain string, creds domain.CustomerAccountCredentials) error
}

// WidgetInstallationRepository persists one WidgetInstallation per shop
type WidgetInstallationRepository interface {
	// FindByDomain returns (nil, nil) when nothing was ever provisioned
	FindByDomain(ctx context.Context, shopDomain string) (*domain.WidgetInstallation, error)

	// Save replaces any prior record for the same shop
	Save(ctx context.Context, installation *domain.WidgetInstallation) error
}

// CustomerRepository persists customer-account sessions keyed by shop and email
type CustomerRepository interface {
	Upsert(ctx context.Context, session *domain.CustomerSession) error

	// DeleteByShop removes a shop's sessions, or only those of email when it is set
	DeleteByShop(ctx context.Context, shopDomain string, email string) (int64, error)
}
