package shopify

import (
	"context"
	"fmt"
	"time"

	"genie-storefront-assistant/internal/domain"
	"genie-storefront-assistant/internal/infrastructure/metrics"
	"genie-storefront-assistant/internal/ports"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

type graphqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type graphqlError struct {
	Message string `json:"message"`
}

type money struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

type cartResponse struct {
	Data struct {
		Cart *struct {
			ID            string `json:"id"`
			CheckoutURL   string `json:"checkoutUrl"`
			TotalQuantity int    `json:"totalQuantity"`
			Cost          struct {
				SubtotalAmount money `json:"subtotalAmount"`
			} `json:"cost"`
			Lines struct {
				Edges []struct {
					Node struct {
						Quantity    int `json:"quantity"`
						Merchandise struct {
							Title   string `json:"title"`
							Price   money  `json:"price"`
							Product struct {
								Title string `json:"title"`
							} `json:"product"`
						} `json:"merchandise"`
					} `json:"node"`
				} `json:"edges"`
			} `json:"lines"`
		} `json:"cart"`
	} `json:"data"`
	Errors []graphqlError `json:"errors"`
}

// StorefrontClient queries the Storefront API over resty
type StorefrontClient struct {
	http       *resty.Client
	apiVersion string
	baseURL    func(shop string) string
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// NewStorefrontClient creates a Storefront API client. baseURL may be nil, in
// which case requests go to https://{shop}.
func NewStorefrontClient(apiVersion string, timeout time.Duration, baseURL func(shop string) string, m *metrics.Metrics, logger zerolog.Logger) *StorefrontClient {
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}
	if baseURL == nil {
		baseURL = func(shop string) string { return "https://" + shop }
	}
	return &StorefrontClient{
		http:       resty.New().SetTimeout(timeout).SetHeader("Content-Type", "application/json"),
		apiVersion: apiVersion,
		baseURL:    baseURL,
		metrics:    m,
		logger:     logger,
	}
}

var _ ports.StorefrontClient = (*StorefrontClient)(nil)

// GetCart returns the cart or (nil, nil) when the cart id is unknown
func (c *StorefrontClient) GetCart(ctx context.Context, shop string, storefrontToken string, cartID string) (*domain.Cart, error) {
	defer c.metrics.ObserveExternalCall("storefront", "cart", time.Now())

	var out cartResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("X-Shopify-Storefront-Access-Token", storefrontToken).
		SetBody(graphqlRequest{Query: CartQuery, Variables: map[string]interface{}{"id": cartID}}).
		SetResult(&out).
		Post(fmt.Sprintf("%s/api/%s/graphql.json", c.baseURL(shop), c.apiVersion))
	if err != nil {
		return nil, &domain.ExternalAPIError{Op: "storefront-cart", Err: err}
	}
	if resp.IsError() {
		return nil, &domain.ExternalAPIError{Op: "storefront-cart", Status: resp.StatusCode(), Err: fmt.Errorf("unexpected response")}
	}
	if len(out.Errors) > 0 {
		return nil, &domain.ExternalAPIError{Op: "storefront-cart", Err: fmt.Errorf("%s", out.Errors[0].Message)}
	}
	if out.Data.Cart == nil {
		return nil, nil
	}

	raw := out.Data.Cart
	cart := &domain.Cart{
		ID:            raw.ID,
		CheckoutURL:   raw.CheckoutURL,
		TotalQuantity: raw.TotalQuantity,
		Subtotal:      raw.Cost.SubtotalAmount.Amount,
		Currency:      raw.Cost.SubtotalAmount.CurrencyCode,
	}
	for _, edge := range raw.Lines.Edges {
		node := edge.Node
		cart.Lines = append(cart.Lines, domain.CartLine{
			Title:    node.Merchandise.Product.Title,
			Variant:  node.Merchandise.Title,
			Quantity: node.Quantity,
			Price:    node.Merchandise.Price.Amount,
		})
	}

	c.logger.Debug().Str("shop", shop).Int("lines", len(cart.Lines)).Msg("Cart fetched")
	return cart, nil
}
