package application

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"genie-storefront-assistant/internal/domain"
	"genie-storefront-assistant/internal/ports"

	"github.com/rs/zerolog"
)

// Provisioner is the part of WidgetProvisioner the install flow depends on
type Provisioner interface {
	Provision(ctx context.Context, shop string, accessToken string) (*domain.WidgetInstallation, error)
}

// InstallRequest carries the OAuth callback parameters
type InstallRequest struct {
	Code  string
	Shop  string
	State string
	// Query is the full callback query, used for hmac verification when present
	Query url.Values
}

// InstallResult is the outcome of a completed install. Provisioning problems
// are reported in ProvisionErr and never fail the install.
type InstallResult struct {
	Account      *domain.ShopAccount
	Installation *domain.WidgetInstallation
	ProvisionErr error
	RedirectURL  string
}

// InstallationService completes the merchant OAuth install
type InstallationService struct {
	shopify     ports.ShopifyClient
	shops       ports.ShopRepository
	provisioner Provisioner
	frontendURL string
	now         func() time.Time
	logger      zerolog.Logger
}

// NewInstallationService creates a new installation service
func NewInstallationService(
	shopify ports.ShopifyClient,
	shops ports.ShopRepository,
	provisioner Provisioner,
	frontendURL string,
	logger zerolog.Logger,
) *InstallationService {
	return &InstallationService{
		shopify:     shopify,
		shops:       shops,
		provisioner: provisioner,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		now:         time.Now,
		logger:      logger,
	}
}

// CompleteInstall exchanges the code for a token, upserts the account and
// provisions the widget once. Only validation, token exchange and persistence
// errors are returned.
func (s *InstallationService) CompleteInstall(ctx context.Context, req InstallRequest) (*InstallResult, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	grant, err := s.shopify.ExchangeToken(ctx, req.Shop, req.Code)
	if err != nil {
		s.logger.Error().Err(err).Str("shop", req.Shop).Msg("Failed to exchange token")
		return nil, fmt.Errorf("failed to exchange token: %w", err)
	}

	now := s.now().UTC()
	account := &domain.ShopAccount{
		Domain: req.Shop,
		Credentials: domain.ShopCredentials{
			AccessToken: grant.AccessToken,
			Scope:       grant.Scope,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	// only non-token settings carry over from an earlier install
	if existing, err := s.shops.FindByDomain(ctx, req.Shop); err == nil && existing != nil {
		account.CustomerAccount = existing.CustomerAccount
		account.Widget = existing.Widget
		account.CreatedAt = existing.CreatedAt
	}

	if err := s.shops.Upsert(ctx, account); err != nil {
		s.logger.Error().Err(err).Str("shop", req.Shop).Msg("Failed to save shop")
		return nil, fmt.Errorf("failed to save shop: %w", err)
	}

	s.logger.Info().Str("shop", req.Shop).Msg("Shop installed")

	result := &InstallResult{
		Account:     account,
		RedirectURL: s.SuccessRedirect(req.Shop),
	}
	s.provisionTask(ctx, result)
	return result, nil
}

// provisionTask runs provisioning after the account is persisted and captures its outcome
func (s *InstallationService) provisionTask(ctx context.Context, result *InstallResult) {
	if s.provisioner == nil {
		return
	}

	shop := result.Account.Domain
	installation, err := s.provisioner.Provision(ctx, shop, result.Account.Credentials.AccessToken)
	if err != nil {
		result.ProvisionErr = err
		result.Account.Widget.LastError = err.Error()

		var conflict *domain.ConflictError
		if errors.As(err, &conflict) {
			s.logger.Info().Str("shop", shop).Msg("Widget provisioning already in progress")
			return
		}
		s.logger.Warn().Err(err).Str("shop", shop).Msg("Widget provisioning failed, install continues")
		return
	}

	result.Installation = installation
	installedAt := installation.UpdatedAt
	result.Account.Widget = domain.WidgetState{Installed: true, InstalledAt: &installedAt}
}

func (s *InstallationService) validate(req InstallRequest) error {
	var missing []string
	if req.Code == "" {
		missing = append(missing, "code")
	}
	if req.Shop == "" {
		missing = append(missing, "shop")
	}
	if req.State == "" {
		missing = append(missing, "state")
	}
	if len(missing) > 0 {
		return &domain.ValidationError{
			Field:   strings.Join(missing, ","),
			Message: "Missing required parameters: " + strings.Join(missing, ", "),
		}
	}
	if !ValidShopDomain(req.Shop) {
		return &domain.ValidationError{Field: "shop", Message: "invalid shop domain"}
	}

	if req.Query.Get("hmac") != "" {
		ok, err := s.shopify.VerifyCallback(req.Query)
		if err != nil || !ok {
			return &domain.ValidationError{Field: "hmac", Message: "invalid callback signature"}
		}
	}
	return nil
}

// SuccessRedirect is where the merchant lands after a completed install
func (s *InstallationService) SuccessRedirect(shop string) string {
	q := url.Values{}
	q.Set("shop", shop)
	q.Set("success", "true")
	return s.frontendURL + "/shopify/callback?" + q.Encode()
}

// FailureRedirect is where the merchant lands when the install fails
func (s *InstallationService) FailureRedirect(reason string) string {
	q := url.Values{}
	q.Set("error", reason)
	return s.frontendURL + "/shopify/callback?" + q.Encode()
}

// ValidShopDomain accepts host names only, never URLs or paths
func ValidShopDomain(shop string) bool {
	if shop == "" || len(shop) > 255 {
		return false
	}
	for _, r := range shop {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
		default:
			return false
		}
	}
	return strings.Contains(shop, ".") && !strings.HasPrefix(shop, ".") && !strings.HasSuffix(shop, ".")
}
