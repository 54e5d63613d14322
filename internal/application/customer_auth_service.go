package application

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"genie-storefront-assistant/internal/domain"
	"genie-storefront-assistant/internal/ports"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// loginStateTTL bounds how long a shopper may take on the login page
const loginStateTTL = 10 * time.Minute

// loginStateClaims binds a login round trip to one shop
type loginStateClaims struct {
	Shop string `json:"shop"`
	jwt.RegisteredClaims
}

// CustomerAuthService runs the shopper login against the Customer Account API
type CustomerAuthService struct {
	shops     ports.ShopRepository
	customers ports.CustomerRepository
	client    ports.CustomerAccountClient
	now       func() time.Time
	logger    zerolog.Logger
}

// NewCustomerAuthService creates a new customer auth service
func NewCustomerAuthService(shops ports.ShopRepository, customers ports.CustomerRepository, client ports.CustomerAccountClient, logger zerolog.Logger) *CustomerAuthService {
	return &CustomerAuthService{
		shops:     shops,
		customers: customers,
		client:    client,
		now:       time.Now,
		logger:    logger,
	}
}

// LoginURL returns where to send the shopper. Shops without Customer Account
// API credentials fall back to the storefront login page.
func (s *CustomerAuthService) LoginURL(ctx context.Context, shop, redirectURI, returnURL string) (string, error) {
	if shop == "" {
		return "", domain.NewValidationError("shop")
	}
	account, err := s.shops.FindByDomain(ctx, shop)
	if err != nil {
		return "", fmt.Errorf("failed to get shop: %w", err)
	}
	if account == nil {
		return "", domain.NewNotFoundError("shop", shop)
	}

	if account.HasCustomerAccount() {
		state, err := s.signState(shop, account.CustomerAccount.ClientSecret)
		if err != nil {
			return "", fmt.Errorf("failed to sign login state: %w", err)
		}
		return s.client.AuthorizeURL(shop, account.CustomerAccount.ClientID, redirectURI, state), nil
	}

	s.logger.Info().Str("shop", shop).Msg("Customer account API not configured, using store login")
	q := url.Values{}
	if returnURL != "" {
		q.Set("return_url", returnURL)
	}
	login := "https://" + shop + "/account/login"
	if len(q) > 0 {
		login += "?" + q.Encode()
	}
	return login, nil
}

// HandleCallback checks the login state, exchanges the customer's code and
// stores the session
func (s *CustomerAuthService) HandleCallback(ctx context.Context, shop, code, state, redirectURI string) (*domain.CustomerSession, error) {
	if code == "" {
		return nil, &domain.ValidationError{Field: "code", Message: "Missing authorization code"}
	}
	if shop == "" {
		return nil, domain.NewValidationError("shop")
	}

	account, err := s.shops.FindByDomain(ctx, shop)
	if err != nil {
		return nil, fmt.Errorf("failed to get shop: %w", err)
	}
	if account == nil || !account.HasCustomerAccount() {
		return nil, domain.NewNotFoundError("customer account configuration", shop)
	}

	if err := s.verifyState(state, shop, account.CustomerAccount.ClientSecret); err != nil {
		s.logger.Warn().Err(err).Str("shop", shop).Msg("Rejected customer login state")
		return nil, &domain.ValidationError{Field: "state", Message: "invalid or expired login state"}
	}

	token, err := s.client.ExchangeCode(ctx, *account.CustomerAccount, code, redirectURI)
	if err != nil {
		return nil, err
	}

	session := &domain.CustomerSession{
		ShopDomain:  shop,
		Email:       "unknown@example.com",
		AccessToken: token.AccessToken,
		SessionID:   token.SessionID,
		UpdatedAt:   s.now().UTC(),
	}

	profile, err := s.client.GetCustomer(ctx, token.AccessToken)
	if err != nil {
		s.logger.Warn().Err(err).Str("shop", shop).Msg("Failed to fetch customer profile")
	} else if profile != nil {
		if profile.Email != "" {
			session.Email = profile.Email
		}
		session.CustomerID = profile.ID
	}

	if err := s.customers.Upsert(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save customer session: %w", err)
	}

	s.logger.Info().Str("shop", shop).Str("customerId", session.CustomerID).Msg("Customer logged in")
	return session, nil
}

func (s *CustomerAuthService) signState(shop, secret string) (string, error) {
	now := s.now()
	claims := &loginStateClaims{
		Shop: shop,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(loginStateTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func (s *CustomerAuthService) verifyState(state, shop, secret string) error {
	if state == "" {
		return errors.New("missing state")
	}
	claims := &loginStateClaims{}
	_, err := jwt.ParseWithClaims(state, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return err
	}
	if claims.Shop != shop {
		return fmt.Errorf("state issued for %s", claims.Shop)
	}
	return nil
}
