package application

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"genie-storefront-assistant/internal/domain"
	"genie-storefront-assistant/internal/ports/portstest"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvisioner struct {
	calls  int
	shops  []string
	tokens []string
	result *domain.WidgetInstallation
	err    error
}

func (p *stubProvisioner) Provision(_ context.Context, shop string, accessToken string) (*domain.WidgetInstallation, error) {
	p.calls++
	p.shops = append(p.shops, shop)
	p.tokens = append(p.tokens, accessToken)
	return p.result, p.err
}

func newInstallFixture(provisioner Provisioner) (*InstallationService, *portstest.Shopify, *portstest.ShopRepository) {
	client := portstest.NewShopify()
	client.Grant = &domain.TokenGrant{AccessToken: "tok_1", Scope: "read_products,write_script_tags"}
	shops := portstest.NewShopRepository()
	return NewInstallationService(client, shops, provisioner, "https://app.example.com/", zerolog.Nop()), client, shops
}

func installRequest() InstallRequest {
	return InstallRequest{Code: "abc", Shop: testShop, State: "xyz", Query: url.Values{}}
}

func TestCompleteInstall(t *testing.T) {
	provisioner := &stubProvisioner{result: &domain.WidgetInstallation{
		ShopDomain: testShop,
		Mechanism:  domain.MechanismPlatformHook,
		Status:     domain.StatusActive,
	}}
	svc, _, shops := newInstallFixture(provisioner)

	result, err := svc.CompleteInstall(context.Background(), installRequest())
	require.NoError(t, err)

	stored := shops.Get(testShop)
	require.NotNil(t, stored)
	assert.Equal(t, "tok_1", stored.Credentials.AccessToken)
	assert.Equal(t, "read_products,write_script_tags", stored.Credentials.Scope)

	assert.Equal(t, 1, provisioner.calls)
	assert.Equal(t, []string{"tok_1"}, provisioner.tokens)
	assert.NoError(t, result.ProvisionErr)
	assert.True(t, result.Account.Widget.Installed)
	assert.Equal(t, "https://app.example.com/shopify/callback?shop=demo.myshopify.com&success=true", result.RedirectURL)
}

func TestCompleteInstall_ProvisioningFailureDoesNotFailInstall(t *testing.T) {
	provisioner := &stubProvisioner{err: &domain.ProvisionError{
		Shop:     testShop,
		Primary:  errors.New("422"),
		Fallback: domain.NewNotFoundError("main-theme", testShop),
	}}
	svc, _, shops := newInstallFixture(provisioner)

	result, err := svc.CompleteInstall(context.Background(), installRequest())
	require.NoError(t, err)

	assert.Error(t, result.ProvisionErr)
	assert.Nil(t, result.Installation)
	assert.NotEmpty(t, result.Account.Widget.LastError)
	assert.Equal(t, "tok_1", shops.Get(testShop).Credentials.AccessToken)
	assert.Contains(t, result.RedirectURL, "success=true")
}

func TestCompleteInstall_MissingParameters(t *testing.T) {
	provisioner := &stubProvisioner{}
	svc, _, shops := newInstallFixture(provisioner)

	_, err := svc.CompleteInstall(context.Background(), InstallRequest{Shop: testShop})

	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "Missing required parameters: code, state", validation.Error())
	assert.Equal(t, 0, provisioner.calls)
	assert.Nil(t, shops.Get(testShop))
}

func TestCompleteInstall_InvalidShop(t *testing.T) {
	svc, _, _ := newInstallFixture(&stubProvisioner{})
	req := installRequest()
	req.Shop = "evil.example.com/admin"

	_, err := svc.CompleteInstall(context.Background(), req)

	var validation *domain.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestCompleteInstall_BadSignature(t *testing.T) {
	svc, client, _ := newInstallFixture(&stubProvisioner{})
	client.CallbackValid = false
	req := installRequest()
	req.Query = url.Values{"hmac": {"deadbeef"}, "shop": {testShop}}

	_, err := svc.CompleteInstall(context.Background(), req)

	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "hmac", validation.Field)
}

func TestCompleteInstall_TokenExchangeFails(t *testing.T) {
	provisioner := &stubProvisioner{}
	svc, client, shops := newInstallFixture(provisioner)
	client.ExchangeErr = &domain.ExternalAPIError{Op: "token-exchange", Status: 400, Err: errors.New("invalid code")}

	_, err := svc.CompleteInstall(context.Background(), installRequest())

	var external *domain.ExternalAPIError
	require.ErrorAs(t, err, &external)
	assert.Nil(t, shops.Get(testShop))
	assert.Equal(t, 0, provisioner.calls)
}

func TestCompleteInstall_ReinstallDropsStorefrontToken(t *testing.T) {
	svc, _, shops := newInstallFixture(&stubProvisioner{err: &domain.ConflictError{Key: "widget-provision:" + testShop}})
	require.NoError(t, shops.Upsert(context.Background(), &domain.ShopAccount{
		Domain: testShop,
		Credentials: domain.ShopCredentials{
			AccessToken:           "tok_old",
			StorefrontAccessToken: "sf_old",
		},
		CustomerAccount: &domain.CustomerAccountCredentials{ClientID: "cid", ClientSecret: "secret"},
	}))

	_, err := svc.CompleteInstall(context.Background(), installRequest())
	require.NoError(t, err)

	stored := shops.Get(testShop)
	assert.Equal(t, "tok_1", stored.Credentials.AccessToken)
	assert.Empty(t, stored.Credentials.StorefrontAccessToken)
	require.NotNil(t, stored.CustomerAccount)
	assert.Equal(t, "cid", stored.CustomerAccount.ClientID)
}

func TestValidShopDomain(t *testing.T) {
	assert.True(t, ValidShopDomain("demo.myshopify.com"))
	assert.True(t, ValidShopDomain("my-shop-2.myshopify.com"))
	assert.False(t, ValidShopDomain(""))
	assert.False(t, ValidShopDomain("localhost"))
	assert.False(t, ValidShopDomain("https://demo.myshopify.com"))
	assert.False(t, ValidShopDomain("demo.myshopify.com/admin"))
	assert.False(t, ValidShopDomain(".myshopify.com"))
}

func TestFailureRedirect(t *testing.T) {
	svc, _, _ := newInstallFixture(nil)
	assert.Equal(t, "https://app.example.com/shopify/callback?error=external+API+call+failed%3A+token-exchange",
		svc.FailureRedirect("external API call failed: token-exchange"))
}
