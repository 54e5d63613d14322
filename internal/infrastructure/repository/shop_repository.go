package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"genie-storefront-assistant/internal/domain"
	"genie-storefront-assistant/internal/infrastructure/repository/entity"
	"genie-storefront-assistant/internal/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoShopRepository implements ShopRepository using MongoDB
type MongoShopRepository struct {
	store *Store
}

// NewMongoShopRepository creates a new MongoDB shop repository
func NewMongoShopRepository(store *Store) ports.ShopRepository {
	return &MongoShopRepository{store: store}
}

// FindByDomain retrieves a shop by domain
func (r *MongoShopRepository) FindByDomain(ctx context.Context, shopDomain string) (*domain.ShopAccount, error) {
	coll, err := r.store.collection(ctx, shopsCollection)
	if err != nil {
		return nil, err
	}

	var doc entity.MongoShopDoc
	err = coll.FindOne(ctx, bson.M{"shopify_domain": shopDomain}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shop: %w", err)
	}

	return doc.ToDomain(), nil
}

// Upsert saves or replaces the credentials of a shop
func (r *MongoShopRepository) Upsert(ctx context.Context, account *domain.ShopAccount) error {
	coll, err := r.store.collection(ctx, shopsCollection)
	if err != nil {
		return err
	}

	now := time.Now()
	update := bson.M{
		"$set":         entity.CredentialsUpdate(account, now),
		"$setOnInsert": bson.M{"created_at": now},
	}
	opts := options.Update().SetUpsert(true)

	if _, err := coll.UpdateOne(ctx, bson.M{"shopify_domain": account.Domain}, update, opts); err != nil {
		return fmt.Errorf("failed to save shop: %w", err)
	}
	return nil
}

// UpdateWidgetState records the latest provisioning outcome on the shop
func (r *MongoShopRepository) UpdateWidgetState(ctx context.Context, shopDomain string, state domain.WidgetState) error {
	return r.updateExisting(ctx, shopDomain, entity.WidgetStateUpdate(state), "widget state")
}

// UpdateProvisioningError records a failed provisioning attempt without touching the installed state
func (r *MongoShopRepository) UpdateProvisioningError(ctx context.Context, shopDomain string, message string) error {
	return r.updateExisting(ctx, shopDomain, bson.M{"last_provisioning_error": message}, "provisioning error")
}

// UpdateStorefrontToken stores a freshly minted storefront access token
func (r *MongoShopRepository) UpdateStorefrontToken(ctx context.Context, shopDomain string, token string) error {
	return r.updateExisting(ctx, shopDomain, bson.M{"storefront_access_token": token}, "storefront token")
}

// UpdateCustomerAccount stores Customer Account API client credentials
func (r *MongoShopRepository) UpdateCustomerAccount(ctx context.Context, shopDomain string, creds domain.CustomerAccountCredentials) error {
	set := bson.M{
		"customer_account_client_id":     creds.ClientID,
		"customer_account_client_secret": creds.ClientSecret,
	}
	return r.updateExisting(ctx, shopDomain, set, "customer account credentials")
}

func (r *MongoShopRepository) updateExisting(ctx context.Context, shopDomain string, set bson.M, what string) error {
	coll, err := r.store.collection(ctx, shopsCollection)
	if err != nil {
		return err
	}

	set["updated_at"] = time.Now()
	result, err := coll.UpdateOne(ctx, bson.M{"shopify_domain": shopDomain}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", what, err)
	}
	if result.MatchedCount == 0 {
		return domain.NewNotFoundError("shop", shopDomain)
	}
	return nil
}
