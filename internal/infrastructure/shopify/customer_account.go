package shopify

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"genie-storefront-assistant/internal/domain"
	"genie-storefront-assistant/internal/infrastructure/metrics"
	"genie-storefront-assistant/internal/ports"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// CustomerAccountScopes are requested on every customer login
const CustomerAccountScopes = "openid email https://api.shopify.com/auth/customer.graphql"

// CustomerAccountEndpoints are the Customer Account API URLs
type CustomerAccountEndpoints struct {
	Authorize string
	Token     string
	GraphQL   string
}

// DefaultCustomerAccountEndpoints points at Shopify's hosted customer accounts
var DefaultCustomerAccountEndpoints = CustomerAccountEndpoints{
	Authorize: "https://shopify.com/myshopify/customer_account/oauth/authorize",
	Token:     "https://shopify.com/myshopify/customer_account/oauth/token",
	GraphQL:   "https://customeraccount.shopify.com/customer/api/2024-07/graphql.json",
}

type customerResponse struct {
	Data struct {
		Customer *struct {
			ID           string `json:"id"`
			FirstName    string `json:"firstName"`
			LastName     string `json:"lastName"`
			EmailAddress struct {
				EmailAddress string `json:"emailAddress"`
			} `json:"emailAddress"`
		} `json:"customer"`
	} `json:"data"`
	Errors []graphqlError `json:"errors"`
}

// CustomerAccountClient implements the customer login flow
type CustomerAccountClient struct {
	http      *resty.Client
	endpoints CustomerAccountEndpoints
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// NewCustomerAccountClient creates a Customer Account API client
func NewCustomerAccountClient(endpoints CustomerAccountEndpoints, timeout time.Duration, m *metrics.Metrics, logger zerolog.Logger) *CustomerAccountClient {
	return &CustomerAccountClient{
		http:      resty.New().SetTimeout(timeout),
		endpoints: endpoints,
		metrics:   m,
		logger:    logger,
	}
}

var _ ports.CustomerAccountClient = (*CustomerAccountClient)(nil)

func (c *CustomerAccountClient) AuthorizeURL(shop string, clientID string, redirectURI string, state string) string {
	q := url.Values{}
	q.Set("client_id", clientID)
	q.Set("scope", CustomerAccountScopes)
	q.Set("response_type", "code")
	q.Set("redirect_uri", redirectURI)
	q.Set("state", state)
	q.Set("shop", shop)
	return c.endpoints.Authorize + "?" + q.Encode()
}

func (c *CustomerAccountClient) ExchangeCode(ctx context.Context, creds domain.CustomerAccountCredentials, code string, redirectURI string) (*ports.CustomerToken, error) {
	defer c.metrics.ObserveExternalCall("customer_account", "token", time.Now())

	var token ports.CustomerToken
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{
			"grant_type":    "authorization_code",
			"client_id":     creds.ClientID,
			"client_secret": creds.ClientSecret,
			"code":          code,
			"redirect_uri":  redirectURI,
		}).
		SetResult(&token).
		Post(c.endpoints.Token)
	if err != nil {
		return nil, &domain.ExternalAPIError{Op: "customer-token-exchange", Err: err}
	}
	if resp.IsError() {
		return nil, &domain.ExternalAPIError{Op: "customer-token-exchange", Status: resp.StatusCode(), Err: fmt.Errorf("failed to exchange authorization code")}
	}
	if token.AccessToken == "" {
		return nil, &domain.ExternalAPIError{Op: "customer-token-exchange", Err: fmt.Errorf("response carried no access token")}
	}
	return &token, nil
}

// GetCustomer returns the profile behind a customer token, or (nil, nil) when
// the API does not return one.
func (c *CustomerAccountClient) GetCustomer(ctx context.Context, accessToken string) (*ports.CustomerProfile, error) {
	defer c.metrics.ObserveExternalCall("customer_account", "customer", time.Now())

	var out customerResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(accessToken).
		SetBody(graphqlRequest{Query: CustomerQuery}).
		SetResult(&out).
		Post(c.endpoints.GraphQL)
	if err != nil {
		return nil, &domain.ExternalAPIError{Op: "customer-profile", Err: err}
	}
	if resp.IsError() {
		return nil, &domain.ExternalAPIError{Op: "customer-profile", Status: resp.StatusCode(), Err: fmt.Errorf("unexpected response")}
	}
	if len(out.Errors) > 0 {
		return nil, &domain.ExternalAPIError{Op: "customer-profile", Err: fmt.Errorf("%s", out.Errors[0].Message)}
	}
	if out.Data.Customer == nil {
		return nil, nil
	}

	raw := out.Data.Customer
	return &ports.CustomerProfile{
		ID:        raw.ID,
		Email:     raw.EmailAddress.EmailAddress,
		FirstName: raw.FirstName,
		LastName:  raw.LastName,
	}, nil
}
