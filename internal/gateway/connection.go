package gateway

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func ConnectMongoDB(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100).
		SetMinPoolSize(10)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(database), nil
}

// EnsureIndexes creates the unique ownership indexes both collections rely on.
// Called once at startup.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	cart := &mongoCartStore{collection: db.Collection("cart_items")}
	if err := cart.CreateIndexes(ctx); err != nil {
		return err
	}
	wishlist := &mongoWishlistStore{collection: db.Collection("wishlist_entries")}
	return wishlist.CreateIndexes(ctx)
}
