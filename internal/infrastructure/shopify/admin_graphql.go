package shopify

import (
	"context"
	"errors"
	"fmt"

	"genie-storefront-assistant/internal/ports"
)

type productSearchResponse struct {
	Products struct {
		Edges []struct {
			Node struct {
				ID             string `json:"id"`
				Title          string `json:"title"`
				Handle         string `json:"handle"`
				Description    string `json:"description"`
				OnlineStoreURL string `json:"onlineStoreUrl"`
				PriceRangeV2   struct {
					MinVariantPrice struct {
						Amount       string `json:"amount"`
						CurrencyCode string `json:"currencyCode"`
					} `json:"minVariantPrice"`
				} `json:"priceRangeV2"`
				FeaturedImage *struct {
					URL string `json:"url"`
				} `json:"featuredImage"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"products"`
}

type shopPoliciesResponse struct {
	Shop struct {
		ShopPolicies []struct {
			Type  string `json:"type"`
			Title string `json:"title"`
			Body  string `json:"body"`
			URL   string `json:"url"`
		} `json:"shopPolicies"`
	} `json:"shop"`
}

type storefrontTokenCreateResponse struct {
	StorefrontAccessTokenCreate struct {
		StorefrontAccessToken *struct {
			AccessToken string `json:"accessToken"`
			Title       string `json:"title"`
		} `json:"storefrontAccessToken"`
		UserErrors []struct {
			Field   []string `json:"field"`
			Message string   `json:"message"`
		} `json:"userErrors"`
	} `json:"storefrontAccessTokenCreate"`
}

// SearchProducts runs a product search; an empty query lists the first products
func (c *client) SearchProducts(ctx context.Context, shopDomain string, accessToken string, query string) ([]ports.ProductSummary, error) {
	var out productSearchResponse
	if err := c.graphql(ctx, shopDomain, accessToken, ProductSearchQuery, map[string]interface{}{"query": query}, &out); err != nil {
		return nil, err
	}

	products := make([]ports.ProductSummary, 0, len(out.Products.Edges))
	for _, edge := range out.Products.Edges {
		node := edge.Node
		product := ports.ProductSummary{
			ID:             node.ID,
			Title:          node.Title,
			Handle:         node.Handle,
			Description:    node.Description,
			OnlineStoreURL: node.OnlineStoreURL,
			Price:          node.PriceRangeV2.MinVariantPrice.Amount,
			Currency:       node.PriceRangeV2.MinVariantPrice.CurrencyCode,
		}
		if node.FeaturedImage != nil {
			product.ImageURL = node.FeaturedImage.URL
		}
		products = append(products, product)
	}
	return products, nil
}

// ShopPolicies returns every published policy of the shop
func (c *client) ShopPolicies(ctx context.Context, shopDomain string, accessToken string) ([]ports.ShopPolicy, error) {
	var out shopPoliciesResponse
	if err := c.graphql(ctx, shopDomain, accessToken, ShopPoliciesQuery, nil, &out); err != nil {
		return nil, err
	}

	policies := make([]ports.ShopPolicy, 0, len(out.Shop.ShopPolicies))
	for _, p := range out.Shop.ShopPolicies {
		policies = append(policies, ports.ShopPolicy{Type: p.Type, Title: p.Title, Body: p.Body, URL: p.URL})
	}
	return policies, nil
}

// CreateStorefrontAccessToken mints a Storefront API token titled title
func (c *client) CreateStorefrontAccessToken(ctx context.Context, shopDomain string, accessToken string, title string) (string, error) {
	var out storefrontTokenCreateResponse
	variables := map[string]interface{}{"input": map[string]interface{}{"title": title}}
	if err := c.graphql(ctx, shopDomain, accessToken, StorefrontTokenCreateMutation, variables, &out); err != nil {
		return "", err
	}

	result := out.StorefrontAccessTokenCreate
	if len(result.UserErrors) > 0 {
		return "", fmt.Errorf("failed to create storefront access token: %s", result.UserErrors[0].Message)
	}
	if result.StorefrontAccessToken == nil || result.StorefrontAccessToken.AccessToken == "" {
		return "", errors.New("failed to create storefront access token: no token returned")
	}
	return result.StorefrontAccessToken.AccessToken, nil
}
