package application

import (
	"context"
	"errors"
	"testing"

	"genie-storefront-assistant/internal/domain"
	"genie-storefront-assistant/internal/ports/portstest"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newShopFixture() (*ShopService, *portstest.Shopify, *portstest.ShopRepository) {
	client := portstest.NewShopify()
	shops := portstest.NewShopRepository(&domain.ShopAccount{
		Domain:      testShop,
		Credentials: domain.ShopCredentials{AccessToken: testToken},
	})
	return NewShopService(shops, client, zerolog.Nop()), client, shops
}

func TestGetAccount(t *testing.T) {
	svc, _, _ := newShopFixture()

	account, err := svc.GetAccount(context.Background(), testShop)
	require.NoError(t, err)
	assert.Equal(t, testToken, account.Credentials.AccessToken)

	_, err = svc.GetAccount(context.Background(), "unknown.myshopify.com")
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)

	_, err = svc.GetAccount(context.Background(), "")
	var validation *domain.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestShopInfo(t *testing.T) {
	svc, client, _ := newShopFixture()
	client.Shop = &goshopify.Shop{Name: "Demo", Domain: testShop}
	client.Products = []goshopify.Product{{Title: "Blue Runner"}, {Title: "Red Mug"}}
	client.Orders = []goshopify.Order{{Name: "#1001"}}

	info, err := svc.ShopInfo(context.Background(), testShop)
	require.NoError(t, err)

	assert.Equal(t, "Demo", info.Shop.Name)
	assert.Len(t, info.Products, 2)
	assert.Empty(t, info.Customers)
	assert.Len(t, info.Orders, 1)
}

func TestShopInfo_PlatformFailure(t *testing.T) {
	svc, client, _ := newShopFixture()
	client.ShopErr = errors.New("503")

	_, err := svc.ShopInfo(context.Background(), testShop)

	var external *domain.ExternalAPIError
	require.ErrorAs(t, err, &external)
	assert.Equal(t, "shop", external.Op)
}

func TestCreateStorefrontToken(t *testing.T) {
	svc, client, shops := newShopFixture()
	client.StorefrontToken = "sf_new"

	token, err := svc.CreateStorefrontToken(context.Background(), testShop)
	require.NoError(t, err)

	assert.Equal(t, "sf_new", token)
	assert.Equal(t, "sf_new", shops.Get(testShop).Credentials.StorefrontAccessToken)
	assert.Equal(t, []string{StorefrontTokenTitle}, client.TokenTitles)
}

func TestCreateStorefrontToken_Rejected(t *testing.T) {
	svc, client, shops := newShopFixture()
	client.GraphQLErr = errors.New("failed to create storefront access token: Access denied")

	_, err := svc.CreateStorefrontToken(context.Background(), testShop)

	var external *domain.ExternalAPIError
	require.ErrorAs(t, err, &external)
	assert.Equal(t, "storefront-token-create", external.Op)
	assert.Contains(t, external.Error(), "Access denied")
	assert.Empty(t, shops.Get(testShop).Credentials.StorefrontAccessToken)
}

func TestStoreCustomerAuth(t *testing.T) {
	svc, _, shops := newShopFixture()
	ctx := context.Background()

	err := svc.StoreCustomerAuth(ctx, testShop, domain.CustomerAccountCredentials{ClientID: "cid"})
	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "customer_account_client_secret", validation.Field)

	require.NoError(t, svc.StoreCustomerAuth(ctx, testShop, domain.CustomerAccountCredentials{ClientID: "cid", ClientSecret: "secret"}))
	assert.True(t, shops.Get(testShop).HasCustomerAccount())
}

func TestWidgetService_Installation(t *testing.T) {
	f := newProvisionerFixture(t)
	shopService := NewShopService(f.shops, f.shopify, zerolog.Nop())
	svc := NewWidgetService(shopService, f.widgets, f.provisioner)
	ctx := context.Background()

	_, err := svc.Installation(ctx, testShop)
	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)

	installed, err := svc.Inject(ctx, testShop)
	require.NoError(t, err)

	current, err := svc.Installation(ctx, testShop)
	require.NoError(t, err)
	assert.Equal(t, installed.ExternalID, current.ExternalID)

	_, err = svc.Remove(ctx, testShop)
	require.NoError(t, err)
	_, err = svc.Installation(ctx, testShop)
	assert.ErrorAs(t, err, &notFound)

	_, err = svc.Inject(ctx, "unknown.myshopify.com")
	assert.ErrorAs(t, err, &notFound)
}
