package application

import (
	"context"
	"fmt"

	"genie-storefront-assistant/internal/domain"
	"genie-storefront-assistant/internal/ports"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// StorefrontTokenTitle names the storefront token created for the chat widget
const StorefrontTokenTitle = "Genie storefront assistant"

// ShopInfo is the merchant dashboard snapshot of a shop
type ShopInfo struct {
	Shop      *goshopify.Shop      `json:"shop"`
	Products  []goshopify.Product  `json:"products"`
	Customers []goshopify.Customer `json:"customers"`
	Orders    []goshopify.Order    `json:"orders"`
}

// ShopService serves the merchant-facing shop operations
type ShopService struct {
	shops   ports.ShopRepository
	shopify ports.ShopifyClient
	logger  zerolog.Logger
}

// NewShopService creates a new shop service
func NewShopService(shops ports.ShopRepository, client ports.ShopifyClient, logger zerolog.Logger) *ShopService {
	return &ShopService{shops: shops, shopify: client, logger: logger}
}

// GetAccount returns a registered shop or a NotFoundError
func (s *ShopService) GetAccount(ctx context.Context, shop string) (*domain.ShopAccount, error) {
	if shop == "" {
		return nil, domain.NewValidationError("shop")
	}
	account, err := s.shops.FindByDomain(ctx, shop)
	if err != nil {
		return nil, fmt.Errorf("failed to get shop: %w", err)
	}
	if account == nil || account.Credentials.AccessToken == "" {
		return nil, domain.NewNotFoundError("shop", shop)
	}
	return account, nil
}

// ShopInfo fetches shop details, products, customers and orders concurrently
func (s *ShopService) ShopInfo(ctx context.Context, shop string) (*ShopInfo, error) {
	account, err := s.GetAccount(ctx, shop)
	if err != nil {
		return nil, err
	}
	token := account.Credentials.AccessToken

	info := &ShopInfo{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		shopData, err := s.shopify.GetShop(gctx, shop, token)
		if err != nil {
			return &domain.ExternalAPIError{Op: "shop", Err: err}
		}
		info.Shop = shopData
		return nil
	})
	g.Go(func() error {
		products, err := s.shopify.GetProducts(gctx, shop, token, struct {
			Limit int `url:"limit"`
		}{Limit: 50})
		if err != nil {
			return &domain.ExternalAPIError{Op: "products", Err: err}
		}
		info.Products = products
		return nil
	})
	g.Go(func() error {
		customers, err := s.shopify.GetCustomers(gctx, shop, token, struct {
			Limit int `url:"limit"`
		}{Limit: 50})
		if err != nil {
			return &domain.ExternalAPIError{Op: "customers", Err: err}
		}
		info.Customers = customers
		return nil
	})
	g.Go(func() error {
		orders, err := s.shopify.GetOrders(gctx, shop, token, struct {
			Status string `url:"status"`
			Limit  int    `url:"limit"`
		}{Status: "any", Limit: 50})
		if err != nil {
			return &domain.ExternalAPIError{Op: "orders", Err: err}
		}
		info.Orders = orders
		return nil
	})

	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Str("shop", shop).Msg("Failed to fetch shop info")
		return nil, err
	}
	return info, nil
}

// CreateStorefrontToken creates a Storefront API token and stores it on the account
func (s *ShopService) CreateStorefrontToken(ctx context.Context, shop string) (string, error) {
	account, err := s.GetAccount(ctx, shop)
	if err != nil {
		return "", err
	}

	token, err := s.shopify.CreateStorefrontAccessToken(ctx, shop, account.Credentials.AccessToken, StorefrontTokenTitle)
	if err != nil {
		return "", &domain.ExternalAPIError{Op: "storefront-token-create", Err: err}
	}

	if err := s.shops.UpdateStorefrontToken(ctx, shop, token); err != nil {
		return "", fmt.Errorf("failed to save storefront token: %w", err)
	}

	s.logger.Info().Str("shop", shop).Msg("Storefront access token created")
	return token, nil
}

// StoreCustomerAuth saves the merchant's Customer Account API client credentials
func (s *ShopService) StoreCustomerAuth(ctx context.Context, shop string, creds domain.CustomerAccountCredentials) error {
	if shop == "" {
		return domain.NewValidationError("shop")
	}
	if creds.ClientID == "" {
		return domain.NewValidationError("customer_account_client_id")
	}
	if creds.ClientSecret == "" {
		return domain.NewValidationError("customer_account_client_secret")
	}

	if err := s.shops.UpdateCustomerAccount(ctx, shop, creds); err != nil {
		return fmt.Errorf("failed to save customer account credentials: %w", err)
	}

	s.logger.Info().Str("shop", shop).Msg("Customer account credentials stored")
	return nil
}
