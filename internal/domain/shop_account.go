package domain

import "time"

// ShopAccount is the persisted credential record of a merchant, keyed by shop domain
type ShopAccount struct {
	Domain          string                      `json:"domain"`
	Credentials     ShopCredentials             `json:"-"`
	CustomerAccount *CustomerAccountCredentials `json:"-"`
	Widget          WidgetState                 `json:"widget"`
	CreatedAt       time.Time                   `json:"created_at"`
	UpdatedAt       time.Time                   `json:"updated_at"`
}

// ShopCredentials groups the platform tokens. They are replaced as a unit on every
// install cycle.
type ShopCredentials struct {
	AccessToken           string
	Scope                 string
	StorefrontAccessToken string
}

// CustomerAccountCredentials are the merchant-supplied Customer Account API client credentials
type CustomerAccountCredentials struct {
	ClientID     string
	ClientSecret string
}

// WidgetState mirrors the provisioning outcome on the account record
type WidgetState struct {
	Installed   bool       `json:"installed"`
	InstalledAt *time.Time `json:"installed_at,omitempty"`
	RemovedAt   *time.Time `json:"removed_at,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
}

// HasCustomerAccount reports whether customer OAuth can be offered for this shop
func (a *ShopAccount) HasCustomerAccount() bool {
	return a.CustomerAccount != nil && a.CustomerAccount.ClientID != "" && a.CustomerAccount.ClientSecret != ""
}

// TokenGrant is the result of an OAuth code exchange
type TokenGrant struct {
	AccessToken string `json:"access_token"`
	Scope       string `json:"scope"`
}
