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

type cartItemDoc struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	OwnerID    string             `bson:"owner_id"`
	ProductRef string             `bson:"product_ref"`
	Quantity   int                `bson:"quantity"`
	UnitPrice  int64              `bson:"unit_price"`
	SalePrice  *int64             `bson:"sale_price,omitempty"`
	AddedAt    time.Time          `bson:"added_at"`
	UpdatedAt  time.Time          `bson:"updated_at"`
}

type mongoCartStore struct {
	collection *mongo.Collection
}

func NewMongoCartStore(db *mongo.Database) CartStore {
	return &mongoCartStore{
		collection: db.Collection("cart_items"),
	}
}

func (m *mongoCartStore) ListItems(ctx context.Context, ownerID string) ([]domain.LineItem, error) {
	filter := bson.M{"owner_id": ownerID}
	opts := options.Find().SetSort(bson.D{{Key: "added_at", Value: 1}})

	cursor, err := m.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart items: %w: %w", ErrStoreUnavailable, err)
	}

	var docs []cartItemDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode cart items: %w: %w", ErrStoreUnavailable, err)
	}

	items := make([]domain.LineItem, len(docs))
	for i, doc := range docs {
		items[i] = domain.LineItem{
			ItemKey:    doc.ID.Hex(),
			ProductRef: domain.ProductRef(doc.ProductRef),
			Quantity:   doc.Quantity,
			UnitPrice:  doc.UnitPrice,
			SalePrice:  doc.SalePrice,
		}
	}
	return items, nil
}

func (m *mongoCartStore) UpsertItem(ctx context.Context, ownerID string, ref domain.ProductRef, quantityDelta int, product domain.ProductSnapshot) error {
	now := time.Now()

	// $inc lets the store serialize concurrent adds from other sessions:
	// the resulting quantity is the sum, never a blind overwrite.
	filter := bson.M{"owner_id": ownerID, "product_ref": string(ref)}
	update := bson.M{
		"$inc": bson.M{"quantity": quantityDelta},
		"$set": bson.M{
			"unit_price": product.UnitPrice,
			"sale_price": product.SalePrice,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{"added_at": now},
	}
	opts := options.Update().SetUpsert(true)

	if _, err := m.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to upsert cart item: %w: %w", ErrStoreUnavailable, err)
	}
	return nil
}

func (m *mongoCartStore) UpdateQuantity(ctx context.Context, ownerID, itemKey string, quantity int) error {
	id, err := primitive.ObjectIDFromHex(itemKey)
	if err != nil {
		return fmt.Errorf("update cart item %q: %w", itemKey, ErrNotFound)
	}

	filter := bson.M{"_id": id, "owner_id": ownerID}
	update := bson.M{
		"$set": bson.M{
			"quantity":   quantity,
			"updated_at": time.Now(),
		},
	}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update cart item quantity: %w: %w", ErrStoreUnavailable, err)
	}

	if result.MatchedCount == 0 {
		return m.classifyMiss(ctx, id, "update")
	}
	return nil
}

func (m *mongoCartStore) DeleteItem(ctx context.Context, ownerID, itemKey string) error {
	id, err := primitive.ObjectIDFromHex(itemKey)
	if err != nil {
		return fmt.Errorf("delete cart item %q: %w", itemKey, ErrNotFound)
	}

	filter := bson.M{"_id": id, "owner_id": ownerID}
	result, err := m.collection.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete cart item: %w: %w", ErrStoreUnavailable, err)
	}

	if result.DeletedCount == 0 {
		return m.classifyMiss(ctx, id, "delete")
	}
	return nil
}

func (m *mongoCartStore) DeleteAll(ctx context.Context, ownerID string) error {
	filter := bson.M{"owner_id": ownerID}
	if _, err := m.collection.DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("failed to clear cart: %w: %w", ErrStoreUnavailable, err)
	}
	return nil
}

// classifyMiss tells a stale key apart from a stolen one: a zero-match
// mutation against a row that still exists means the row belongs to someone
// else.
func (m *mongoCartStore) classifyMiss(ctx context.Context, id primitive.ObjectID, op string) error {
	count, err := m.collection.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to classify %s miss: %w: %w", op, ErrStoreUnavailable, err)
	}
	if count > 0 {
		return fmt.Errorf("%s cart item %s: %w", op, id.Hex(), ErrOwnershipViolation)
	}
	return fmt.Errorf("%s cart item %s: %w", op, id.Hex(), ErrNotFound)
}

func (m *mongoCartStore) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "owner_id", Value: 1}, {Key: "product_ref", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "updated_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(90 * 24 * 60 * 60), // 90 days TTL
		},
	}

	_, err := m.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create cart indexes: %w", err)
	}
	return nil
}
