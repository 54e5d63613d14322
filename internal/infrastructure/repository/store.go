package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	shopsCollection     = "shops"
	scriptsCollection   = "scripts"
	customersCollection = "customers"
)

// Store owns the MongoDB client. The client is created on first use, exactly once
// per process, and shared by every repository built on the same Store.
type Store struct {
	uri    string
	dbName string
	logger zerolog.Logger

	once   sync.Once
	client *mongo.Client
	db     *mongo.Database
	err    error
}

// NewStore creates a store handle; no connection is made until Database is called
func NewStore(uri, dbName string, logger zerolog.Logger) *Store {
	return &Store{
		uri:    uri,
		dbName: dbName,
		logger: logger,
	}
}

// Database returns the shared database handle, connecting on first call
func (s *Store) Database(ctx context.Context) (*mongo.Database, error) {
	s.once.Do(func() {
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(s.uri))
		if err != nil {
			s.err = fmt.Errorf("failed to connect to MongoDB: %w", err)
			return
		}
		s.client = client
		s.db = client.Database(s.dbName)
		s.logger.Info().Str("database", s.dbName).Msg("MongoDB client initialized")
	})
	return s.db, s.err
}

func (s *Store) collection(ctx context.Context, name string) (*mongo.Collection, error) {
	db, err := s.Database(ctx)
	if err != nil {
		return nil, err
	}
	return db.Collection(name), nil
}

// Ping checks connectivity
func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.Database(ctx); err != nil {
		return err
	}
	return s.client.Ping(ctx, nil)
}

// EnsureIndexes creates the unique indexes the repositories rely on
func (s *Store) EnsureIndexes(ctx context.Context) error {
	db, err := s.Database(ctx)
	if err != nil {
		return err
	}

	indexes := map[string]mongo.IndexModel{
		shopsCollection: {
			Keys:    bson.D{{Key: "shopify_domain", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		scriptsCollection: {
			Keys:    bson.D{{Key: "shopify_domain", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		customersCollection: {
			Keys:    bson.D{{Key: "shopify_domain", Value: 1}, {Key: "customer_email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	for name, model := range indexes {
		if _, err := db.Collection(name).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("failed to create index on %s: %w", name, err)
		}
	}
	return nil
}

// Close disconnects the client if it was ever created
func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}
