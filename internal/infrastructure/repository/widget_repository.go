package repository

import (
	"context"
	"errors"
	"fmt"

	"genie-storefront-assistant/internal/domain"
	"genie-storefront-assistant/internal/infrastructure/repository/entity"
	"genie-storefront-assistant/internal/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoWidgetRepository implements WidgetInstallationRepository using MongoDB
type MongoWidgetRepository struct {
	store *Store
}

// NewMongoWidgetRepository creates a new MongoDB widget installation repository
func NewMongoWidgetRepository(store *Store) ports.WidgetInstallationRepository {
	return &MongoWidgetRepository{store: store}
}

// FindByDomain retrieves the installation record of a shop
func (r *MongoWidgetRepository) FindByDomain(ctx context.Context, shopDomain string) (*domain.WidgetInstallation, error) {
	coll, err := r.store.collection(ctx, scriptsCollection)
	if err != nil {
		return nil, err
	}

	var doc entity.MongoScriptDoc
	err = coll.FindOne(ctx, bson.M{"shopify_domain": shopDomain}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get widget installation: %w", err)
	}

	return doc.ToDomain(), nil
}

// Save replaces the installation record of a shop
func (r *MongoWidgetRepository) Save(ctx context.Context, installation *domain.WidgetInstallation) error {
	coll, err := r.store.collection(ctx, scriptsCollection)
	if err != nil {
		return err
	}

	doc := entity.MongoScriptDocFromDomain(installation)
	opts := options.Replace().SetUpsert(true)
	if _, err := coll.ReplaceOne(ctx, bson.M{"shopify_domain": installation.ShopDomain}, doc, opts); err != nil {
		return fmt.Errorf("failed to save widget installation: %w", err)
	}
	return nil
}
