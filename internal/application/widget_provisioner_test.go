package application

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"genie-storefront-assistant/internal/domain"
	"genie-storefront-assistant/internal/infrastructure/lock"
	"genie-storefront-assistant/internal/ports"
	"genie-storefront-assistant/internal/ports/portstest"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testShop   = "demo.myshopify.com"
	testToken  = "tok_1"
	testAppURL = "https://genie.example.com"
	testLayout = "<html>\n<head></head>\n<body>\n<main>{{ content_for_layout }}</main>\n</body>\n</html>\n"
	mainTheme  = int64(77)
)

type provisionerFixture struct {
	shopify     *portstest.Shopify
	shops       *portstest.ShopRepository
	widgets     *portstest.WidgetRepository
	locker      *lock.LocalLocker
	provisioner *WidgetProvisioner
}

func newProvisionerFixture(t *testing.T) *provisionerFixture {
	t.Helper()
	f := &provisionerFixture{
		shopify: portstest.NewShopify(),
		shops: portstest.NewShopRepository(&domain.ShopAccount{
			Domain:      testShop,
			Credentials: domain.ShopCredentials{AccessToken: testToken},
		}),
		widgets: portstest.NewWidgetRepository(),
		locker:  lock.NewLocalLocker(),
	}
	f.shopify.Themes = []ports.ThemeRef{
		{ID: 12, Name: "Draft", Role: "unpublished"},
		{ID: mainTheme, Name: "Dawn", Role: "main"},
	}
	f.shopify.SetAsset(mainTheme, LayoutAssetKey, testLayout)
	f.provisioner = NewWidgetProvisioner(f.shopify, f.widgets, f.shops, f.locker, nil, testAppURL+"/", time.Minute, zerolog.Nop())
	return f
}

func scriptTagsForbidden() error {
	return &domain.ExternalAPIError{Op: "script-tag-create", Status: 422, Err: errors.New("script tags are not supported")}
}

func TestProvision_ScriptTag(t *testing.T) {
	f := newProvisionerFixture(t)

	installation, err := f.provisioner.Provision(context.Background(), testShop, testToken)
	require.NoError(t, err)

	assert.Equal(t, domain.MechanismPlatformHook, installation.Mechanism)
	assert.Equal(t, domain.StatusActive, installation.Status)
	assert.Equal(t, domain.LoaderURL(testAppURL, testShop), installation.ScriptURL)
	assert.Equal(t, "1001", installation.ExternalID)
	assert.Equal(t, testLayout, f.shopify.Asset(mainTheme, LayoutAssetKey), "theme must not be touched")

	account := f.shops.Get(testShop)
	assert.True(t, account.Widget.Installed)
	assert.NotNil(t, account.Widget.InstalledAt)
}

func TestProvision_ScriptTagReusedOnRepeat(t *testing.T) {
	f := newProvisionerFixture(t)
	ctx := context.Background()

	first, err := f.provisioner.Provision(ctx, testShop, testToken)
	require.NoError(t, err)
	second, err := f.provisioner.Provision(ctx, testShop, testToken)
	require.NoError(t, err)

	assert.Equal(t, 1, f.shopify.Creates)
	assert.Len(t, f.shopify.Tags, 1)
	assert.Equal(t, first.ExternalID, second.ExternalID)
}

func TestProvision_FallsBackToThemeInjection(t *testing.T) {
	f := newProvisionerFixture(t)
	f.shopify.CreateErr = scriptTagsForbidden()

	installation, err := f.provisioner.Provision(context.Background(), testShop, testToken)
	require.NoError(t, err)

	assert.Equal(t, domain.MechanismAssetInjection, installation.Mechanism)
	assert.Equal(t, domain.StatusActive, installation.Status)
	assert.Equal(t, "77", installation.ExternalID)

	layout := f.shopify.Asset(mainTheme, LayoutAssetKey)
	assert.Equal(t, 1, strings.Count(layout, domain.WidgetMarkerStart))
	assert.Less(t, strings.Index(layout, domain.WidgetMarkerEnd), strings.Index(layout, "</body>"))
	assert.Contains(t, layout, installation.ScriptURL)

	saved, err := f.widgets.FindByDomain(context.Background(), testShop)
	require.NoError(t, err)
	assert.Equal(t, domain.MechanismAssetInjection, saved.Mechanism)
}

func TestProvision_ThemeInjectionIsIdempotent(t *testing.T) {
	f := newProvisionerFixture(t)
	f.shopify.CreateErr = scriptTagsForbidden()
	ctx := context.Background()

	_, err := f.provisioner.Provision(ctx, testShop, testToken)
	require.NoError(t, err)
	afterFirst := f.shopify.Asset(mainTheme, LayoutAssetKey)

	_, err = f.provisioner.Provision(ctx, testShop, testToken)
	require.NoError(t, err)

	assert.Equal(t, afterFirst, f.shopify.Asset(mainTheme, LayoutAssetKey))
	assert.Equal(t, 1, f.shopify.AssetWrites)
}

func TestProvision_MarkerWithoutRecordRebuildsRecord(t *testing.T) {
	f := newProvisionerFixture(t)
	f.shopify.CreateErr = scriptTagsForbidden()
	snippet := domain.RenderSnippet(domain.LoaderURL(testAppURL, testShop))
	f.shopify.SetAsset(mainTheme, LayoutAssetKey, SpliceSnippet(testLayout, snippet))

	installation, err := f.provisioner.Provision(context.Background(), testShop, testToken)
	require.NoError(t, err)

	assert.Equal(t, domain.MechanismAssetInjection, installation.Mechanism)
	assert.Equal(t, 0, f.shopify.AssetWrites)
	assert.Equal(t, 1, f.widgets.Saves)
}

func TestProvision_BothMechanismsFail(t *testing.T) {
	f := newProvisionerFixture(t)
	f.shopify.CreateErr = scriptTagsForbidden()
	f.shopify.Themes = []ports.ThemeRef{{ID: 12, Role: "unpublished"}}

	_, err := f.provisioner.Provision(context.Background(), testShop, testToken)
	require.Error(t, err)

	var provisionErr *domain.ProvisionError
	require.ErrorAs(t, err, &provisionErr)
	assert.Equal(t, testShop, provisionErr.Shop)

	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "main-theme", notFound.Resource)

	account := f.shops.Get(testShop)
	assert.NotEmpty(t, account.Widget.LastError)
	assert.False(t, account.Widget.Installed)

	saved, err := f.widgets.FindByDomain(context.Background(), testShop)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, domain.StatusError, saved.Status)
	assert.False(t, saved.IsActive())
	assert.Empty(t, saved.ExternalID)
}

func TestProvision_FailureKeepsInstalledState(t *testing.T) {
	f := newProvisionerFixture(t)
	f.shopify.CreateErr = scriptTagsForbidden()
	ctx := context.Background()

	first, err := f.provisioner.Provision(ctx, testShop, testToken)
	require.NoError(t, err)
	installedAt := f.shops.Get(testShop).Widget.InstalledAt
	require.NotNil(t, installedAt)

	f.shopify.Themes = nil
	_, err = f.provisioner.Provision(ctx, testShop, testToken)
	var provisionErr *domain.ProvisionError
	require.ErrorAs(t, err, &provisionErr)

	account := f.shops.Get(testShop)
	assert.True(t, account.Widget.Installed)
	require.NotNil(t, account.Widget.InstalledAt)
	assert.Equal(t, *installedAt, *account.Widget.InstalledAt)
	assert.NotEmpty(t, account.Widget.LastError)

	saved, err := f.widgets.FindByDomain(ctx, testShop)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, saved.Status)
	assert.Equal(t, first.ExternalID, saved.ExternalID)
}

func TestProvision_AssetWriteFailure(t *testing.T) {
	f := newProvisionerFixture(t)
	f.shopify.CreateErr = scriptTagsForbidden()
	f.shopify.WriteErr = errors.New("forbidden")

	_, err := f.provisioner.Provision(context.Background(), testShop, testToken)

	var external *domain.ExternalAPIError
	require.ErrorAs(t, err, &external)
	assert.Equal(t, "asset-write", external.Op)
}

func TestProvision_LeaseHeld(t *testing.T) {
	f := newProvisionerFixture(t)
	release, err := f.locker.Acquire(context.Background(), "widget-provision:"+testShop, time.Minute)
	require.NoError(t, err)
	defer release()

	_, err = f.provisioner.Provision(context.Background(), testShop, testToken)

	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, 0, f.shopify.Creates)
}

func TestProvision_Validation(t *testing.T) {
	f := newProvisionerFixture(t)

	_, err := f.provisioner.Provision(context.Background(), "", testToken)
	var validation *domain.ValidationError
	assert.ErrorAs(t, err, &validation)

	_, err = f.provisioner.Provision(context.Background(), testShop, "")
	assert.ErrorAs(t, err, &validation)
}

func TestRemove_ScriptTag(t *testing.T) {
	f := newProvisionerFixture(t)
	ctx := context.Background()
	installed, err := f.provisioner.Provision(ctx, testShop, testToken)
	require.NoError(t, err)

	removed, err := f.provisioner.Remove(ctx, testShop, testToken)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusInactive, removed.Status)
	assert.Equal(t, []int64{1001}, f.shopify.Deleted)
	assert.Empty(t, f.shopify.Tags)
	assert.Equal(t, installed.ExternalID, removed.ExternalID)

	account := f.shops.Get(testShop)
	assert.False(t, account.Widget.Installed)
	assert.NotNil(t, account.Widget.RemovedAt)
}

func TestRemove_ThemeInjectionRestoresLayout(t *testing.T) {
	f := newProvisionerFixture(t)
	f.shopify.CreateErr = scriptTagsForbidden()
	ctx := context.Background()
	_, err := f.provisioner.Provision(ctx, testShop, testToken)
	require.NoError(t, err)

	removed, err := f.provisioner.Remove(ctx, testShop, testToken)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusInactive, removed.Status)
	assert.Equal(t, testLayout, f.shopify.Asset(mainTheme, LayoutAssetKey))
}

func TestRemove_InactiveIsNoop(t *testing.T) {
	f := newProvisionerFixture(t)
	ctx := context.Background()
	_, err := f.provisioner.Provision(ctx, testShop, testToken)
	require.NoError(t, err)
	_, err = f.provisioner.Remove(ctx, testShop, testToken)
	require.NoError(t, err)

	again, err := f.provisioner.Remove(ctx, testShop, testToken)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInactive, again.Status)
	assert.Len(t, f.shopify.Deleted, 1)
}

func TestRemove_NothingInstalled(t *testing.T) {
	f := newProvisionerFixture(t)

	_, err := f.provisioner.Remove(context.Background(), testShop, testToken)

	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestSpliceSnippet(t *testing.T) {
	snippet := domain.RenderSnippet("https://genie.example.com/widget-loader.js")

	t.Run("before last closing body", func(t *testing.T) {
		layout := "<body><!-- </body> in comment --></BODY>"
		out := SpliceSnippet(layout, snippet)
		assert.True(t, strings.HasSuffix(out, snippet+"</BODY>"))
	})

	t.Run("appended without body", func(t *testing.T) {
		out := SpliceSnippet("{{ content_for_layout }}", snippet)
		assert.Equal(t, "{{ content_for_layout }}"+snippet, out)
	})

	t.Run("strip restores original", func(t *testing.T) {
		assert.Equal(t, testLayout, StripSnippet(SpliceSnippet(testLayout, snippet)))
	})

	t.Run("strip without snippet", func(t *testing.T) {
		assert.Equal(t, testLayout, StripSnippet(testLayout))
	})
}
