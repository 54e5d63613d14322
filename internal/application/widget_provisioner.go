package application

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"genie-storefront-assistant/internal/domain"
	"genie-storefront-assistant/internal/ports"

	"github.com/rs/zerolog"
)

const (
	// LayoutAssetKey is the root layout every theme renders
	LayoutAssetKey = "layout/theme.liquid"

	mainThemeRole        = "main"
	provisionLeasePrefix = "widget-provision:"
)

var snippetPattern = regexp.MustCompile(`(?s)` + regexp.QuoteMeta(domain.WidgetMarkerStart) + `.*?` + regexp.QuoteMeta(domain.WidgetMarkerEnd) + `\n?`)

// WidgetProvisioner installs and removes the chat loader on a storefront. It
// tries a platform script tag first and falls back to editing the main theme
// layout.
type WidgetProvisioner struct {
	shopify  ports.ShopifyClient
	widgets  ports.WidgetInstallationRepository
	shops    ports.ShopRepository
	locker   ports.Locker
	metrics  ports.Metrics
	baseURL  string
	leaseTTL time.Duration
	now      func() time.Time
	logger   zerolog.Logger
}

// NewWidgetProvisioner creates a new provisioner. baseURL is the public URL the
// loader script is served from.
func NewWidgetProvisioner(
	shopify ports.ShopifyClient,
	widgets ports.WidgetInstallationRepository,
	shops ports.ShopRepository,
	locker ports.Locker,
	m ports.Metrics,
	baseURL string,
	leaseTTL time.Duration,
	logger zerolog.Logger,
) *WidgetProvisioner {
	if m == nil {
		m = ports.NopMetrics{}
	}
	if leaseTTL <= 0 {
		leaseTTL = time.Minute
	}
	return &WidgetProvisioner{
		shopify:  shopify,
		widgets:  widgets,
		shops:    shops,
		locker:   locker,
		metrics:  m,
		baseURL:  strings.TrimRight(baseURL, "/"),
		leaseTTL: leaseTTL,
		now:      time.Now,
		logger:   logger,
	}
}

// Provision installs the loader for a shop. Calling it again for an installed
// shop changes nothing on the storefront.
func (p *WidgetProvisioner) Provision(ctx context.Context, shop string, accessToken string) (*domain.WidgetInstallation, error) {
	if shop == "" {
		return nil, domain.NewValidationError("shop")
	}
	if accessToken == "" {
		return nil, &domain.ValidationError{Field: "access_token", Message: "shop has no access token"}
	}

	release, err := p.acquire(ctx, shop)
	if err != nil {
		return nil, err
	}
	defer release()

	loaderURL := domain.LoaderURL(p.baseURL, shop)

	installation, primaryErr := p.registerScriptTag(ctx, shop, accessToken, loaderURL)
	if primaryErr == nil {
		p.metrics.ProvisionAttempt(string(domain.MechanismPlatformHook), "success")
		return p.persist(ctx, installation)
	}

	p.metrics.ProvisionAttempt(string(domain.MechanismPlatformHook), "failure")
	p.logger.Info().
		Err(primaryErr).
		Str("shop", shop).
		Msg("Script tag registration unavailable, falling back to theme injection")

	installation, unchanged, fallbackErr := p.injectIntoTheme(ctx, shop, accessToken, loaderURL)
	if fallbackErr != nil {
		p.metrics.ProvisionAttempt(string(domain.MechanismAssetInjection), "failure")
		provisionErr := &domain.ProvisionError{Shop: shop, Primary: primaryErr, Fallback: fallbackErr}
		p.recordFailure(ctx, shop, loaderURL, provisionErr)
		return nil, provisionErr
	}

	p.metrics.ProvisionAttempt(string(domain.MechanismAssetInjection), "success")
	if unchanged {
		return installation, nil
	}
	return p.persist(ctx, installation)
}

// Remove retires the loader for a shop using the mechanism it was installed with
func (p *WidgetProvisioner) Remove(ctx context.Context, shop string, accessToken string) (*domain.WidgetInstallation, error) {
	if shop == "" {
		return nil, domain.NewValidationError("shop")
	}

	release, err := p.acquire(ctx, shop)
	if err != nil {
		return nil, err
	}
	defer release()

	installation, err := p.widgets.FindByDomain(ctx, shop)
	if err != nil {
		return nil, fmt.Errorf("failed to get widget installation: %w", err)
	}
	if installation == nil {
		return nil, domain.NewNotFoundError("widget installation", shop)
	}
	if !installation.IsActive() {
		return installation, nil
	}

	switch installation.Mechanism {
	case domain.MechanismPlatformHook:
		id, err := strconv.ParseInt(installation.ExternalID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse script tag id %q: %w", installation.ExternalID, err)
		}
		if err := p.shopify.DeleteScriptTag(ctx, shop, accessToken, id); err != nil {
			return nil, &domain.ExternalAPIError{Op: "script-tag-delete", Err: err}
		}
	case domain.MechanismAssetInjection:
		if err := p.stripFromTheme(ctx, shop, accessToken); err != nil {
			return nil, err
		}
	}

	now := p.now().UTC()
	installation.Status = domain.StatusInactive
	installation.UpdatedAt = now
	if err := p.widgets.Save(ctx, installation); err != nil {
		return nil, fmt.Errorf("failed to save widget installation: %w", err)
	}
	p.recordState(ctx, shop, domain.WidgetState{Installed: false, RemovedAt: &now})

	p.logger.Info().
		Str("shop", shop).
		Str("mechanism", string(installation.Mechanism)).
		Msg("Widget removed")
	return installation, nil
}

func (p *WidgetProvisioner) acquire(ctx context.Context, shop string) (func(), error) {
	if p.locker == nil {
		return func() {}, nil
	}
	key := provisionLeasePrefix + shop
	release, err := p.locker.Acquire(ctx, key, p.leaseTTL)
	if errors.Is(err, domain.ErrLeaseHeld) {
		return nil, &domain.ConflictError{Key: key}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to acquire provisioning lease: %w", err)
	}
	return release, nil
}

// registerScriptTag reuses a script tag already pointing at the loader or creates one
func (p *WidgetProvisioner) registerScriptTag(ctx context.Context, shop, accessToken, loaderURL string) (*domain.WidgetInstallation, error) {
	tags, err := p.shopify.ListScriptTags(ctx, shop, accessToken)
	if err != nil {
		return nil, err
	}

	var tag *ports.ScriptTagRef
	for i := range tags {
		if tags[i].Src == loaderURL {
			tag = &tags[i]
			break
		}
	}
	if tag == nil {
		tag, err = p.shopify.CreateScriptTag(ctx, shop, accessToken, loaderURL)
		if err != nil {
			return nil, err
		}
	}

	return p.newInstallation(shop, domain.MechanismPlatformHook, strconv.FormatInt(tag.ID, 10), loaderURL), nil
}

// injectIntoTheme splices the loader snippet into the main theme layout. The
// bool result is true when the marker was already present and an existing
// record is returned as is.
func (p *WidgetProvisioner) injectIntoTheme(ctx context.Context, shop, accessToken, loaderURL string) (*domain.WidgetInstallation, bool, error) {
	theme, err := p.mainTheme(ctx, shop, accessToken)
	if err != nil {
		return nil, false, err
	}

	layout, err := p.shopify.GetAsset(ctx, shop, accessToken, theme.ID, LayoutAssetKey)
	if err != nil {
		return nil, false, &domain.ExternalAPIError{Op: "asset-read", Err: err}
	}

	if strings.Contains(layout, domain.WidgetMarkerStart) {
		existing, err := p.widgets.FindByDomain(ctx, shop)
		if err != nil {
			return nil, false, fmt.Errorf("failed to get widget installation: %w", err)
		}
		if existing != nil && existing.IsActive() && existing.Mechanism == domain.MechanismAssetInjection {
			p.logger.Info().Str("shop", shop).Msg("Widget already present in theme layout")
			return existing, true, nil
		}
		// marker present but no matching record, rebuild the record only
		return p.newInstallation(shop, domain.MechanismAssetInjection, strconv.FormatInt(theme.ID, 10), loaderURL), false, nil
	}

	updated := SpliceSnippet(layout, domain.RenderSnippet(loaderURL))
	if err := p.shopify.UpdateAsset(ctx, shop, accessToken, theme.ID, LayoutAssetKey, updated); err != nil {
		return nil, false, &domain.ExternalAPIError{Op: "asset-write", Err: err}
	}

	p.logger.Info().
		Str("shop", shop).
		Int64("themeId", theme.ID).
		Msg("Widget injected into theme layout")
	return p.newInstallation(shop, domain.MechanismAssetInjection, strconv.FormatInt(theme.ID, 10), loaderURL), false, nil
}

func (p *WidgetProvisioner) stripFromTheme(ctx context.Context, shop, accessToken string) error {
	theme, err := p.mainTheme(ctx, shop, accessToken)
	if err != nil {
		return err
	}

	layout, err := p.shopify.GetAsset(ctx, shop, accessToken, theme.ID, LayoutAssetKey)
	if err != nil {
		return &domain.ExternalAPIError{Op: "asset-read", Err: err}
	}

	stripped := StripSnippet(layout)
	if stripped == layout {
		return nil
	}
	if err := p.shopify.UpdateAsset(ctx, shop, accessToken, theme.ID, LayoutAssetKey, stripped); err != nil {
		return &domain.ExternalAPIError{Op: "asset-write", Err: err}
	}
	return nil
}

func (p *WidgetProvisioner) mainTheme(ctx context.Context, shop, accessToken string) (*ports.ThemeRef, error) {
	themes, err := p.shopify.ListThemes(ctx, shop, accessToken)
	if err != nil {
		return nil, &domain.ExternalAPIError{Op: "theme-list", Err: err}
	}
	for i := range themes {
		if themes[i].Role == mainThemeRole {
			return &themes[i], nil
		}
	}
	return nil, domain.NewNotFoundError("main-theme", shop)
}

func (p *WidgetProvisioner) newInstallation(shop string, mechanism domain.InstallMechanism, externalID, loaderURL string) *domain.WidgetInstallation {
	now := p.now().UTC()
	return &domain.WidgetInstallation{
		ShopDomain:  shop,
		Mechanism:   mechanism,
		ExternalID:  externalID,
		Status:      domain.StatusActive,
		ScriptURL:   loaderURL,
		Snippet:     domain.RenderSnippet(loaderURL),
		GeneratedAt: now,
		UpdatedAt:   now,
	}
}

func (p *WidgetProvisioner) persist(ctx context.Context, installation *domain.WidgetInstallation) (*domain.WidgetInstallation, error) {
	if err := p.widgets.Save(ctx, installation); err != nil {
		return nil, fmt.Errorf("failed to save widget installation: %w", err)
	}

	installedAt := installation.UpdatedAt
	p.recordState(ctx, installation.ShopDomain, domain.WidgetState{Installed: true, InstalledAt: &installedAt})

	p.logger.Info().
		Str("shop", installation.ShopDomain).
		Str("mechanism", string(installation.Mechanism)).
		Str("externalId", installation.ExternalID).
		Msg("Widget provisioned")
	return installation, nil
}

// recordState mirrors the outcome on the account; a missing account is not an error here
func (p *WidgetProvisioner) recordState(ctx context.Context, shop string, state domain.WidgetState) {
	if p.shops == nil {
		return
	}
	if err := p.shops.UpdateWidgetState(ctx, shop, state); err != nil {
		p.logger.Warn().Err(err).Str("shop", shop).Msg("Failed to record widget state on account")
	}
}

// recordFailure stores an error record unless a working installation already
// exists, and sets the account's last provisioning error without clearing
// its installed state.
func (p *WidgetProvisioner) recordFailure(ctx context.Context, shop, loaderURL string, provisionErr error) {
	existing, err := p.widgets.FindByDomain(ctx, shop)
	if err != nil {
		p.logger.Warn().Err(err).Str("shop", shop).Msg("Failed to get widget installation")
	} else if !existing.IsActive() {
		failed := p.newInstallation(shop, domain.MechanismAssetInjection, "", loaderURL)
		failed.Status = domain.StatusError
		if err := p.widgets.Save(ctx, failed); err != nil {
			p.logger.Warn().Err(err).Str("shop", shop).Msg("Failed to save failed widget installation")
		}
	}

	if p.shops == nil {
		return
	}
	if err := p.shops.UpdateProvisioningError(ctx, shop, provisionErr.Error()); err != nil {
		p.logger.Warn().Err(err).Str("shop", shop).Msg("Failed to record provisioning error on account")
	}
}

// SpliceSnippet inserts snippet right before the last closing body tag, or
// appends it when the layout has none.
func SpliceSnippet(layout, snippet string) string {
	idx := strings.LastIndex(strings.ToLower(layout), "</body>")
	if idx < 0 {
		return layout + snippet
	}
	return layout[:idx] + snippet + layout[idx:]
}

// StripSnippet removes every marker-delimited snippet from a layout
func StripSnippet(layout string) string {
	return snippetPattern.ReplaceAllString(layout, "")
}
