package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/ngoquangphuc29306/MiniMartChipChip-Ecommerce-sub001/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type productDoc struct {
	Name      string `bson:"name"`
	ImageURL  string `bson:"image_url"`
	UnitPrice int64  `bson:"unit_price"`
	SalePrice *int64 `bson:"sale_price,omitempty"`
}

type wishlistEntryDoc struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	OwnerID    string             `bson:"owner_id"`
	ProductRef string             `bson:"product_ref"`
	SavedAt    time.Time          `bson:"saved_at"`
	Product    productDoc         `bson:"product"`
}

type mongoWishlistStore struct {
	collection *mongo.Collection
}

func NewMongoWishlistStore(db *mongo.Database) WishlistStore {
	return &mongoWishlistStore{
		collection: db.Collection("wishlist_entries"),
	}
}

func (m *mongoWishlistStore) ListEntries(ctx context.Context, ownerID string) ([]domain.WishlistEntry, error) {
	filter := bson.M{"owner_id": ownerID}
	opts := options.Find().SetSort(bson.D{{Key: "saved_at", Value: -1}})

	cursor, err := m.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list wishlist entries: %w: %w", ErrStoreUnavailable, err)
	}

	var docs []wishlistEntryDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode wishlist entries: %w: %w", ErrStoreUnavailable, err)
	}

	entries := make([]domain.WishlistEntry, len(docs))
	for i, doc := range docs {
		entries[i] = domain.WishlistEntry{
			Key:        domain.PersistedKey(doc.ID.Hex()),
			ProductRef: domain.ProductRef(doc.ProductRef),
			SavedAt:    doc.SavedAt,
			Product: domain.ProductSnapshot{
				Name:      doc.Product.Name,
				ImageURL:  doc.Product.ImageURL,
				UnitPrice: doc.Product.UnitPrice,
				SalePrice: doc.Product.SalePrice,
			},
		}
	}
	return entries, nil
}

func (m *mongoWishlistStore) InsertEntry(ctx context.Context, ownerID string, entry domain.WishlistEntry) (string, error) {
	doc := wishlistEntryDoc{
		OwnerID:    ownerID,
		ProductRef: string(entry.ProductRef),
		SavedAt:    entry.SavedAt,
		Product: productDoc{
			Name:      entry.Product.Name,
			ImageURL:  entry.Product.ImageURL,
			UnitPrice: entry.Product.UnitPrice,
			SalePrice: entry.Product.SalePrice,
		},
	}

	result, err := m.collection.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Another session saved the same product first. Re-adds are
			// idempotent: hand back the winning row's key.
			return m.existingKey(ctx, ownerID, entry.ProductRef)
		}
		return "", fmt.Errorf("failed to insert wishlist entry: %w: %w", ErrStoreUnavailable, err)
	}

	id, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("failed to insert wishlist entry: %w: unexpected id type %T", ErrStoreUnavailable, result.InsertedID)
	}
	return id.Hex(), nil
}

func (m *mongoWishlistStore) existingKey(ctx context.Context, ownerID string, ref domain.ProductRef) (string, error) {
	var doc wishlistEntryDoc
	filter := bson.M{"owner_id": ownerID, "product_ref": string(ref)}
	if err := m.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		return "", fmt.Errorf("failed to resolve duplicate wishlist entry: %w: %w", ErrStoreUnavailable, err)
	}
	return doc.ID.Hex(), nil
}

func (m *mongoWishlistStore) DeleteEntry(ctx context.Context, ownerID, entryKey string) error {
	id, err := primitive.ObjectIDFromHex(entryKey)
	if err != nil {
		return fmt.Errorf("delete wishlist entry %q: %w", entryKey, ErrNotFound)
	}

	filter := bson.M{"_id": id, "owner_id": ownerID}
	result, err := m.collection.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete wishlist entry: %w: %w", ErrStoreUnavailable, err)
	}

	if result.DeletedCount == 0 {
		count, err := m.collection.CountDocuments(ctx, bson.M{"_id": id})
		if err != nil {
			return fmt.Errorf("failed to classify delete miss: %w: %w", ErrStoreUnavailable, err)
		}
		if count > 0 {
			return fmt.Errorf("delete wishlist entry %s: %w", entryKey, ErrOwnershipViolation)
		}
		return fmt.Errorf("delete wishlist entry %s: %w", entryKey, ErrNotFound)
	}
	return nil
}

func (m *mongoWishlistStore) DeleteAll(ctx context.Context, ownerID string) error {
	filter := bson.M{"owner_id": ownerID}
	if _, err := m.collection.DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("failed to clear wishlist: %w: %w", ErrStoreUnavailable, err)
	}
	return nil
}

func (m *mongoWishlistStore) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "owner_id", Value: 1}, {Key: "product_ref", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "saved_at", Value: -1}},
		},
	}

	_, err := m.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create wishlist indexes: %w", err)
	}
	return nil
}
