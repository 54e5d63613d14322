package ports

import (
	"context"
	"net/http"

	shopify "github.com/bold-commerce/go-shopify/v4"

	"genie-storefront-assistant/internal/domain"
)

// ScriptTagRef is the subset of a platform script tag the provisioner needs
type ScriptTagRef struct {
	ID  int64
	Src string
}

// ThemeRef is the subset of a storefront theme the provisioner needs
type ThemeRef struct {
	ID   int64
	Name string
	Role string
}

// ProductSummary is one product returned by a catalog search
type ProductSummary struct {
	ID             string
	Title          string
	Handle         string
	Description    string
	OnlineStoreURL string
	Price          string
	Currency       string
	ImageURL       string
}

// ShopPolicy is one published shop policy
type ShopPolicy struct {
	Type  string
	Title string
	Body  string
	URL   string
}

// ShopifyClient defines the Admin API operations used by this service
type ShopifyClient interface {
	// Authentication
	ExchangeToken(ctx context.Context, shop string, code string) (*domain.TokenGrant, error)
	VerifyCallback(query map[string][]string) (bool, error)
	VerifyWebhook(r *http.Request) bool

	// Shop data
	GetShop(ctx context.Context, shop string, accessToken string) (*shopify.Shop, error)
	GetProducts(ctx context.Context, shop string, accessToken string, options interface{}) ([]shopify.Product, error)
	GetCustomers(ctx context.Context, shop string, accessToken string, options interface{}) ([]shopify.Customer, error)
	GetOrders(ctx context.Context, shop string, accessToken string, options interface{}) ([]shopify.Order, error)

	// Script tags
	ListScriptTags(ctx context.Context, shop string, accessToken string) ([]ScriptTagRef, error)
	CreateScriptTag(ctx context.Context, shop string, accessToken string, src string) (*ScriptTagRef, error)
	DeleteScriptTag(ctx context.Context, shop string, accessToken string, scriptTagID int64) error

	// Themes and assets
	ListThemes(ctx context.Context, shop string, accessToken string) ([]ThemeRef, error)
	GetAsset(ctx context.Context, shop string, accessToken string, themeID int64, key string) (string, error)
	UpdateAsset(ctx context.Context, shop string, accessToken string, themeID int64, key string, value string) error

	// Admin GraphQL
	SearchProducts(ctx context.Context, shop string, accessToken string, query string) ([]ProductSummary, error)
	ShopPolicies(ctx context.Context, shop string, accessToken string) ([]ShopPolicy, error)
	CreateStorefrontAccessToken(ctx context.Context, shop string, accessToken string, title string) (string, error)
}

// StorefrontClient queries the Storefront API with a storefront access token
type StorefrontClient interface {
	GetCart(ctx context.Context, shop string, storefrontToken string, cartID string) (*domain.Cart, error)
}

// CustomerAccountClient talks to the Customer Account API
type CustomerAccountClient interface {
	AuthorizeURL(shop string, clientID string, redirectURI string, state string) string
	ExchangeCode(ctx context.Context, creds domain.CustomerAccountCredentials, code string, redirectURI string) (*CustomerToken, error)
	GetCustomer(ctx context.Context, accessToken string) (*CustomerProfile, error)
}

// CustomerToken is the Customer Account API token response
type CustomerToken struct {
	AccessToken string `json:"access_token"`
	SessionID   string `json:"session_id,omitempty"`
	ExpiresIn   int    `json:"expires_in,omitempty"`
}

// CustomerProfile is the identity returned by the Customer Account API
type CustomerProfile struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}
