package shopify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"genie-storefront-assistant/internal/domain"
	"genie-storefront-assistant/internal/infrastructure/metrics"
	"genie-storefront-assistant/internal/ports"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// DefaultAPIVersion is the Admin API version used when none is configured
const DefaultAPIVersion = "2025-07"

type client struct {
	apiKey     string
	apiSecret  string
	apiVersion string
	app        goshopify.App
	httpClient *http.Client
	oauth      *resty.Client
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// Options configures the Admin API client
type Options struct {
	APIVersion string
	Timeout    time.Duration
	// Transport overrides the HTTP transport, mainly for tests
	Transport http.RoundTripper
	Metrics   *metrics.Metrics
}

// NewClient creates a new Shopify client adapter
func NewClient(apiKey, apiSecret string, opts Options, logger zerolog.Logger) ports.ShopifyClient {
	if opts.APIVersion == "" {
		opts.APIVersion = DefaultAPIVersion
	}
	if opts.Timeout == 0 {
		opts.Timeout = 15 * time.Second
	}

	httpClient := &http.Client{Timeout: opts.Timeout}
	if opts.Transport != nil {
		httpClient.Transport = opts.Transport
	}

	return &client{
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		apiVersion: opts.APIVersion,
		app: goshopify.App{
			ApiKey:    apiKey,
			ApiSecret: apiSecret,
		},
		httpClient: httpClient,
		oauth:      resty.NewWithClient(httpClient),
		metrics:    opts.Metrics,
		logger:     logger,
	}
}

// createClient is a helper to create a goshopify client
func (c *client) createClient(shopDomain string, accessToken string) (*goshopify.Client, error) {
	client, err := goshopify.NewClient(c.app, shopDomain, accessToken,
		goshopify.WithVersion(c.apiVersion),
		goshopify.WithHTTPClient(c.httpClient),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return client, nil
}

// Authentication methods

func (c *client) ExchangeToken(ctx context.Context, shop string, code string) (*domain.TokenGrant, error) {
	defer c.metrics.ObserveExternalCall("shopify", "token_exchange", time.Now())

	var grant domain.TokenGrant
	resp, err := c.oauth.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{
			"client_id":     c.apiKey,
			"client_secret": c.apiSecret,
			"code":          code,
		}).
		SetResult(&grant).
		Post(fmt.Sprintf("https://%s/admin/oauth/access_token", shop))
	if err != nil {
		return nil, &domain.ExternalAPIError{Op: "token-exchange", Err: err}
	}
	if resp.IsError() {
		return nil, &domain.ExternalAPIError{
			Op:     "token-exchange",
			Status: resp.StatusCode(),
			Err:    fmt.Errorf("failed to exchange code for token"),
		}
	}
	if grant.AccessToken == "" {
		return nil, &domain.ExternalAPIError{Op: "token-exchange", Err: fmt.Errorf("response carried no access token")}
	}

	c.logger.Info().Str("shop", shop).Str("scope", grant.Scope).Msg("OAuth token exchange completed")
	return &grant, nil
}

// VerifyCallback checks the hmac parameter Shopify signs OAuth callbacks with
func (c *client) VerifyCallback(query map[string][]string) (bool, error) {
	u := &url.URL{RawQuery: url.Values(query).Encode()}
	return c.app.VerifyAuthorizationURL(u)
}

// VerifyWebhook checks the X-Shopify-Hmac-Sha256 header against the request body
func (c *client) VerifyWebhook(r *http.Request) bool {
	return c.app.VerifyWebhookRequest(r)
}

// Shop API

func (c *client) GetShop(ctx context.Context, shopDomain string, accessToken string) (*goshopify.Shop, error) {
	defer c.metrics.ObserveExternalCall("shopify", "shop", time.Now())
	client, err := c.createClient(shopDomain, accessToken)
	if err != nil {
		return nil, err
	}
	shop, err := client.Shop.Get(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get shop: %w", err)
	}
	return shop, nil
}

func (c *client) GetProducts(ctx context.Context, shopDomain string, accessToken string, options interface{}) ([]goshopify.Product, error) {
	defer c.metrics.ObserveExternalCall("shopify", "products", time.Now())
	client, err := c.createClient(shopDomain, accessToken)
	if err != nil {
		return nil, err
	}
	products, err := client.Product.List(ctx, options)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (c *client) GetCustomers(ctx context.Context, shopDomain string, accessToken string, options interface{}) ([]goshopify.Customer, error) {
	defer c.metrics.ObserveExternalCall("shopify", "customers", time.Now())
	client, err := c.createClient(shopDomain, accessToken)
	if err != nil {
		return nil, err
	}
	customers, err := client.Customer.List(ctx, options)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	return customers, nil
}

func (c *client) GetOrders(ctx context.Context, shopDomain string, accessToken string, options interface{}) ([]goshopify.Order, error) {
	defer c.metrics.ObserveExternalCall("shopify", "orders", time.Now())
	client, err := c.createClient(shopDomain, accessToken)
	if err != nil {
		return nil, err
	}
	orders, err := client.Order.List(ctx, options)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// Script tag API

func (c *client) ListScriptTags(ctx context.Context, shopDomain string, accessToken string) ([]ports.ScriptTagRef, error) {
	defer c.metrics.ObserveExternalCall("shopify", "script_tags_list", time.Now())
	client, err := c.createClient(shopDomain, accessToken)
	if err != nil {
		return nil, err
	}
	tags, err := client.ScriptTag.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list script tags: %w", err)
	}
	refs := make([]ports.ScriptTagRef, 0, len(tags))
	for _, tag := range tags {
		refs = append(refs, ports.ScriptTagRef{ID: int64(tag.Id), Src: tag.Src})
	}
	return refs, nil
}

func (c *client) CreateScriptTag(ctx context.Context, shopDomain string, accessToken string, src string) (*ports.ScriptTagRef, error) {
	defer c.metrics.ObserveExternalCall("shopify", "script_tags_create", time.Now())
	client, err := c.createClient(shopDomain, accessToken)
	if err != nil {
		return nil, err
	}
	created, err := client.ScriptTag.Create(ctx, goshopify.ScriptTag{
		Event:        "onload",
		Src:          src,
		DisplayScope: "online_store",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create script tag: %w", err)
	}
	return &ports.ScriptTagRef{ID: int64(created.Id), Src: created.Src}, nil
}

func (c *client) DeleteScriptTag(ctx context.Context, shopDomain string, accessToken string, scriptTagID int64) error {
	defer c.metrics.ObserveExternalCall("shopify", "script_tags_delete", time.Now())
	client, err := c.createClient(shopDomain, accessToken)
	if err != nil {
		return err
	}
	if err := client.ScriptTag.Delete(ctx, uint64(scriptTagID)); err != nil {
		return fmt.Errorf("failed to delete script tag: %w", err)
	}
	return nil
}

// Theme and asset API

func (c *client) ListThemes(ctx context.Context, shopDomain string, accessToken string) ([]ports.ThemeRef, error) {
	defer c.metrics.ObserveExternalCall("shopify", "themes_list", time.Now())
	client, err := c.createClient(shopDomain, accessToken)
	if err != nil {
		return nil, err
	}
	themes, err := client.Theme.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list themes: %w", err)
	}
	refs := make([]ports.ThemeRef, 0, len(themes))
	for _, theme := range themes {
		refs = append(refs, ports.ThemeRef{
			ID:   int64(theme.Id),
			Name: theme.Name,
			Role: fmt.Sprint(theme.Role),
		})
	}
	return refs, nil
}

func (c *client) GetAsset(ctx context.Context, shopDomain string, accessToken string, themeID int64, key string) (string, error) {
	defer c.metrics.ObserveExternalCall("shopify", "asset_get", time.Now())
	client, err := c.createClient(shopDomain, accessToken)
	if err != nil {
		return "", err
	}
	asset, err := client.Asset.Get(ctx, uint64(themeID), key)
	if err != nil {
		return "", fmt.Errorf("failed to get asset %s of theme %s: %w", key, strconv.FormatInt(themeID, 10), err)
	}
	return asset.Value, nil
}

func (c *client) UpdateAsset(ctx context.Context, shopDomain string, accessToken string, themeID int64, key string, value string) error {
	defer c.metrics.ObserveExternalCall("shopify", "asset_update", time.Now())
	client, err := c.createClient(shopDomain, accessToken)
	if err != nil {
		return err
	}
	_, err = client.Asset.Update(ctx, uint64(themeID), goshopify.Asset{Key: key, Value: value})
	if err != nil {
		return fmt.Errorf("failed to update asset %s: %w", key, err)
	}
	return nil
}

// GraphQL API

func (c *client) graphql(ctx context.Context, shopDomain string, accessToken string, query string, variables map[string]interface{}, out interface{}) error {
	defer c.metrics.ObserveExternalCall("shopify", OperationName(query), time.Now())
	client, err := c.createClient(shopDomain, accessToken)
	if err != nil {
		return err
	}
	if err := client.GraphQL.Query(ctx, query, variables, out); err != nil {
		return fmt.Errorf("failed to run GraphQL %s: %w", OperationName(query), err)
	}
	return nil
}
