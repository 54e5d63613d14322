package tools

import (
	"context"
	"strings"

	"genie-storefront-assistant/internal/domain"
	"genie-storefront-assistant/internal/ports"

	"github.com/rs/zerolog"
)

// CatalogTool is the tool name reported for product searches
const CatalogTool = "catalog_search"

// CatalogItem is one product hit
type CatalogItem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Price       string `json:"price,omitempty"`
	Currency    string `json:"currency,omitempty"`
	URL         string `json:"url"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

// CatalogSearch looks up products matching the shopper's message
type CatalogSearch struct {
	shops   ports.ShopRepository
	shopify ports.ShopifyClient
	logger  zerolog.Logger
}

// NewCatalogSearch creates the catalog adapter
func NewCatalogSearch(shops ports.ShopRepository, client ports.ShopifyClient, logger zerolog.Logger) *CatalogSearch {
	return &CatalogSearch{shops: shops, shopify: client, logger: logger}
}

func (t *CatalogSearch) Name() string { return CatalogTool }

func (t *CatalogSearch) Run(ctx context.Context, req ToolRequest) domain.ToolResult {
	account, miss := lookupAccount(ctx, t.shops, CatalogTool, req.Shop)
	if miss != nil {
		return *miss
	}

	products, err := t.shopify.SearchProducts(ctx, req.Shop, account.Credentials.AccessToken, SearchQuery(req.Message))
	if err != nil {
		t.logger.Warn().Err(err).Str("shop", req.Shop).Msg("Catalog search failed")
		return failed(CatalogTool, "catalog search failed")
	}

	items := make([]any, 0, len(products))
	for _, product := range products {
		item := CatalogItem{
			ID:          product.ID,
			Title:       product.Title,
			Description: plainText(product.Description, 280),
			Price:       product.Price,
			Currency:    product.Currency,
			URL:         product.OnlineStoreURL,
			ImageURL:    product.ImageURL,
		}
		if item.URL == "" {
			item.URL = "https://" + req.Shop + "/products/" + product.Handle
		}
		items = append(items, item)
	}
	return domain.ToolResult{Tool: CatalogTool, Items: items}
}

// SearchQuery turns a message into a product search expression. Terms are
// OR-ed so a partial match still yields hits; an empty message lists products.
func SearchQuery(message string) string {
	return strings.Join(keywords(message), " OR ")
}
