package repository

import (
	"context"
	"fmt"
	"time"

	"genie-storefront-assistant/internal/domain"
	"genie-storefront-assistant/internal/infrastructure/repository/entity"
	"genie-storefront-assistant/internal/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoCustomerRepository implements CustomerRepository using MongoDB
type MongoCustomerRepository struct {
	store *Store
}

// NewMongoCustomerRepository creates a new MongoDB customer repository
func NewMongoCustomerRepository(store *Store) ports.CustomerRepository {
	return &MongoCustomerRepository{store: store}
}

// Upsert saves or updates a customer session keyed by shop and email
func (r *MongoCustomerRepository) Upsert(ctx context.Context, session *domain.CustomerSession) error {
	coll, err := r.store.collection(ctx, customersCollection)
	if err != nil {
		return err
	}

	now := time.Now()

	filter := bson.M{
		"shopify_domain": session.ShopDomain,
		"customer_email": session.Email,
	}
	update := bson.M{
		"$set":         entity.CustomerUpdate(session, now),
		"$setOnInsert": bson.M{"created_at": now},
	}

	if _, err := coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("failed to save customer: %w", err)
	}
	return nil
}

// DeleteByShop removes customer sessions of a shop. A non-empty email limits
// the deletion to that customer.
func (r *MongoCustomerRepository) DeleteByShop(ctx context.Context, shopDomain string, email string) (int64, error) {
	coll, err := r.store.collection(ctx, customersCollection)
	if err != nil {
		return 0, err
	}

	filter := bson.M{"shopify_domain": shopDomain}
	if email != "" {
		filter["customer_email"] = email
	}

	res, err := coll.DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to delete customers: %w", err)
	}
	return res.DeletedCount, nil
}
