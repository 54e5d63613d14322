package entity

import (
	"time"

	"genie-storefront-assistant/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MongoShopDoc represents a shop in MongoDB
type MongoShopDoc struct {
	ID                          primitive.ObjectID `bson:"_id,omitempty"`
	Domain                      string             `bson:"shopify_domain"`
	AccessToken                 string             `bson:"shopify_access_token"`
	Scope                       string             `bson:"scope,omitempty"`
	StorefrontAccessToken       string             `bson:"storefront_access_token,omitempty"`
	CustomerAccountClientID     string             `bson:"customer_account_client_id,omitempty"`
	CustomerAccountClientSecret string             `bson:"customer_account_client_secret,omitempty"`
	WidgetInjected              bool               `bson:"widget_injected"`
	WidgetInjectedAt            *time.Time         `bson:"widget_injected_at,omitempty"`
	WidgetRemovedAt             *time.Time         `bson:"widget_removed_at,omitempty"`
	LastProvisioningError       string             `bson:"last_provisioning_error,omitempty"`
	CreatedAt                   time.Time          `bson:"created_at"`
	UpdatedAt                   time.Time          `bson:"updated_at"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoShopDoc) ToDomain() *domain.ShopAccount {
	account := &domain.ShopAccount{
		Domain: d.Domain,
		Credentials: domain.ShopCredentials{
			AccessToken:           d.AccessToken,
			Scope:                 d.Scope,
			StorefrontAccessToken: d.StorefrontAccessToken,
		},
		Widget: domain.WidgetState{
			Installed:   d.WidgetInjected,
			InstalledAt: d.WidgetInjectedAt,
			RemovedAt:   d.WidgetRemovedAt,
			LastError:   d.LastProvisioningError,
		},
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	if d.CustomerAccountClientID != "" || d.CustomerAccountClientSecret != "" {
		account.CustomerAccount = &domain.CustomerAccountCredentials{
			ClientID:     d.CustomerAccountClientID,
			ClientSecret: d.CustomerAccountClientSecret,
		}
	}
	return account
}

// CredentialsUpdate builds the $set document of a credentials upsert. All token
// fields are written together so a new install cycle never inherits stale tokens.
func CredentialsUpdate(account *domain.ShopAccount, now time.Time) bson.M {
	return bson.M{
		"shopify_domain":          account.Domain,
		"shopify_access_token":    account.Credentials.AccessToken,
		"scope":                   account.Credentials.Scope,
		"storefront_access_token": account.Credentials.StorefrontAccessToken,
		"updated_at":              now,
	}
}

// WidgetStateUpdate builds the $set document for a provisioning outcome
func WidgetStateUpdate(state domain.WidgetState) bson.M {
	return bson.M{
		"widget_injected":         state.Installed,
		"widget_injected_at":      state.InstalledAt,
		"widget_removed_at":       state.RemovedAt,
		"last_provisioning_error": state.LastError,
	}
}
