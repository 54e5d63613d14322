package tools

import (
	"context"

	"genie-storefront-assistant/internal/domain"
	"genie-storefront-assistant/internal/ports"

	"github.com/rs/zerolog"
)

// CartTool is the tool name reported for cart lookups
const CartTool = "cart_lookup"

// CartLookup fetches the shopper's cart through the Storefront API
type CartLookup struct {
	shops      ports.ShopRepository
	storefront ports.StorefrontClient
	logger     zerolog.Logger
}

// NewCartLookup creates the cart adapter
func NewCartLookup(shops ports.ShopRepository, storefront ports.StorefrontClient, logger zerolog.Logger) *CartLookup {
	return &CartLookup{shops: shops, storefront: storefront, logger: logger}
}

func (t *CartLookup) Name() string { return CartTool }

func (t *CartLookup) Run(ctx context.Context, req ToolRequest) domain.ToolResult {
	cartID := req.Cart.ID()
	if cartID == "" {
		return domain.ToolResult{Tool: CartTool, Items: []any{}}
	}

	account, miss := lookupAccount(ctx, t.shops, CartTool, req.Shop)
	if miss != nil {
		return *miss
	}
	if account.Credentials.StorefrontAccessToken == "" {
		return failed(CartTool, "storefront access not configured")
	}

	cart, err := t.storefront.GetCart(ctx, req.Shop, account.Credentials.StorefrontAccessToken, cartID)
	if err != nil {
		t.logger.Warn().Err(err).Str("shop", req.Shop).Msg("Cart lookup failed")
		return failed(CartTool, "cart lookup failed")
	}
	if cart == nil {
		return domain.ToolResult{Tool: CartTool, Items: []any{}}
	}
	return domain.ToolResult{Tool: CartTool, Items: []any{*cart}}
}
