package db

import (
	"context"
	"fmt"

	"github.com/safebite/platform/internal/common/config"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoDB holds the catalog client and its two collections
type MongoDB struct {
	Client   *mongo.Client
	Database *mongo.Database
	Products *mongo.Collection
	Grocery  *mongo.Collection
}

// NewMongoDB connects to MongoDB and verifies the connection with a ping.
func NewMongoDB(ctx context.Context, cfg *config.MongoConfig) (*MongoDB, error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetServerSelectionTimeout(cfg.ServerSelectTimeout)

	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	database := client.Database(cfg.Database)
	logrus.WithFields(logrus.Fields{
		"database": cfg.Database,
		"products": cfg.ProductsCollection,
		"grocery":  cfg.GroceryCollection,
	}).Info("Connected to MongoDB")

	return &MongoDB{
		Client:   client,
		Database: database,
		Products: database.Collection(cfg.ProductsCollection),
		Grocery:  database.Collection(cfg.GroceryCollection),
	}, nil
}

// Ping checks that the primary is reachable
func (m *MongoDB) Ping(ctx context.Context) error {
	return m.Client.Ping(ctx, readpref.Primary())
}

// EnsureIndexes creates the regular indexes used by category filters and regex lookups.
// Atlas Search indexes are managed in Atlas and are not created here.
func (m *MongoDB) EnsureIndexes(ctx context.Context) error {
	productIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "category", Value: 1}}},
		{Keys: bson.D{{Key: "name", Value: 1}}},
	}
	groceryIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "category", Value: 1}}},
		{Keys: bson.D{{Key: "product", Value: 1}}},
		{Keys: bson.D{{Key: "brand", Value: 1}}},
	}

	if _, err := m.Products.Indexes().CreateMany(ctx, productIndexes); err != nil {
		return fmt.Errorf("failed to create indexes on %s: %w", m.Products.Name(), err)
	}
	if _, err := m.Grocery.Indexes().CreateMany(ctx, groceryIndexes); err != nil {
		return fmt.Errorf("failed to create indexes on %s: %w", m.Grocery.Name(), err)
	}
	return nil
}

// Close disconnects the client
func (m *MongoDB) Close(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}
