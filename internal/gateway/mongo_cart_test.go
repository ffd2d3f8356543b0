package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/ngoquangphuc29306/MiniMartChipChip-Ecommerce-sub001/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func setupTestDB(t *testing.T) (*mongo.Database, func()) {
	ctx := context.Background()

	// Start MongoDB container
	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)

	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := ConnectMongoDB(ctx, uri, "testdb")
	require.NoError(t, err)

	err = EnsureIndexes(ctx, db)
	require.NoError(t, err)

	cleanup := func() {
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return db, cleanup
}

func setupCartStore(t *testing.T) (CartStore, func()) {
	db, cleanup := setupTestDB(t)
	return NewMongoCartStore(db), cleanup
}

func intPtr(v int64) *int64 { return &v }

func TestListItems_EmptyCart(t *testing.T) {
	store, cleanup := setupCartStore(t)
	defer cleanup()

	ctx := context.Background()
	items, err := store.ListItems(ctx, "nobody")

	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestUpsertItem_NewRow(t *testing.T) {
	store, cleanup := setupCartStore(t)
	defer cleanup()

	ctx := context.Background()
	ownerID := "user123"
	product := domain.ProductSnapshot{Name: "Mango", UnitPrice: 350}

	err := store.UpsertItem(ctx, ownerID, "mango", 3, product)
	require.NoError(t, err)

	items, err := store.ListItems(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, domain.ProductRef("mango"), items[0].ProductRef)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, int64(350), items[0].UnitPrice)
	assert.NotEmpty(t, items[0].ItemKey, "the store assigns the row key")
}

func TestUpsertItem_ConcurrentAddsSumQuantities(t *testing.T) {
	store, cleanup := setupCartStore(t)
	defer cleanup()

	ctx := context.Background()
	ownerID := "user123"
	product := domain.ProductSnapshot{Name: "Mango", UnitPrice: 350}

	// Two sessions adding the same product must end up with one row
	// carrying the sum, not whichever write landed last.
	err := store.UpsertItem(ctx, ownerID, "mango", 2, product)
	require.NoError(t, err)
	err = store.UpsertItem(ctx, ownerID, "mango", 5, product)
	require.NoError(t, err)

	items, err := store.ListItems(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 7, items[0].Quantity)
}

func TestListItems_InsertionOrder(t *testing.T) {
	store, cleanup := setupCartStore(t)
	defer cleanup()

	ctx := context.Background()
	ownerID := "user123"

	require.NoError(t, store.UpsertItem(ctx, ownerID, "mango", 1, domain.ProductSnapshot{Name: "Mango"}))
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, store.UpsertItem(ctx, ownerID, "lime", 1, domain.ProductSnapshot{Name: "Lime"}))

	items, err := store.ListItems(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, domain.ProductRef("mango"), items[0].ProductRef)
	assert.Equal(t, domain.ProductRef("lime"), items[1].ProductRef)
}

func TestUpdateQuantity_Overwrites(t *testing.T) {
	store, cleanup := setupCartStore(t)
	defer cleanup()

	ctx := context.Background()
	ownerID := "user123"

	require.NoError(t, store.UpsertItem(ctx, ownerID, "mango", 2, domain.ProductSnapshot{Name: "Mango"}))
	items, err := store.ListItems(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, items, 1)

	err = store.UpdateQuantity(ctx, ownerID, items[0].ItemKey, 10)
	require.NoError(t, err)

	items, err = store.ListItems(ctx, ownerID)
	require.NoError(t, err)
	assert.Equal(t, 10, items[0].Quantity)
}

func TestUpdateQuantity_OtherOwnersRow(t *testing.T) {
	store, cleanup := setupCartStore(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, store.UpsertItem(ctx, "alice", "mango", 2, domain.ProductSnapshot{Name: "Mango"}))
	items, err := store.ListItems(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, items, 1)

	err = store.UpdateQuantity(ctx, "mallory", items[0].ItemKey, 10)
	assert.ErrorIs(t, err, ErrOwnershipViolation)

	// Alice's row is untouched.
	items, err = store.ListItems(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestUpdateQuantity_MissingRow(t *testing.T) {
	store, cleanup := setupCartStore(t)
	defer cleanup()

	ctx := context.Background()
	err := store.UpdateQuantity(ctx, "user123", primitive.NewObjectID().Hex(), 10)

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteItem_RemovesRow(t *testing.T) {
	store, cleanup := setupCartStore(t)
	defer cleanup()

	ctx := context.Background()
	ownerID := "user123"

	require.NoError(t, store.UpsertItem(ctx, ownerID, "mango", 2, domain.ProductSnapshot{Name: "Mango"}))
	require.NoError(t, store.UpsertItem(ctx, ownerID, "lime", 3, domain.ProductSnapshot{Name: "Lime"}))

	items, err := store.ListItems(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, items, 2)

	err = store.DeleteItem(ctx, ownerID, items[0].ItemKey)
	require.NoError(t, err)

	items, err = store.ListItems(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, domain.ProductRef("lime"), items[0].ProductRef)
}

func TestDeleteItem_MissingRow(t *testing.T) {
	store, cleanup := setupCartStore(t)
	defer cleanup()

	ctx := context.Background()
	err := store.DeleteItem(ctx, "user123", primitive.NewObjectID().Hex())

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteItem_MalformedKey(t *testing.T) {
	store, cleanup := setupCartStore(t)
	defer cleanup()

	ctx := context.Background()
	err := store.DeleteItem(ctx, "user123", "not-an-object-id")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteItem_OtherOwnersRow(t *testing.T) {
	store, cleanup := setupCartStore(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, store.UpsertItem(ctx, "alice", "mango", 2, domain.ProductSnapshot{Name: "Mango"}))
	items, err := store.ListItems(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, items, 1)

	err = store.DeleteItem(ctx, "mallory", items[0].ItemKey)
	assert.ErrorIs(t, err, ErrOwnershipViolation)
}

func TestDeleteAll_ScopedToOwner(t *testing.T) {
	store, cleanup := setupCartStore(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, store.UpsertItem(ctx, "alice", "mango", 2, domain.ProductSnapshot{Name: "Mango"}))
	require.NoError(t, store.UpsertItem(ctx, "alice", "lime", 1, domain.ProductSnapshot{Name: "Lime"}))
	require.NoError(t, store.UpsertItem(ctx, "bob", "mango", 4, domain.ProductSnapshot{Name: "Mango"}))

	err := store.DeleteAll(ctx, "alice")
	require.NoError(t, err)

	aliceItems, err := store.ListItems(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, aliceItems)

	bobItems, err := store.ListItems(ctx, "bob")
	require.NoError(t, err)
	assert.Len(t, bobItems, 1)
}

func TestUpsertItem_SalePriceRoundTrip(t *testing.T) {
	store, cleanup := setupCartStore(t)
	defer cleanup()

	ctx := context.Background()
	product := domain.ProductSnapshot{Name: "Mango", UnitPrice: 350, SalePrice: intPtr(299)}

	require.NoError(t, store.UpsertItem(ctx, "user123", "mango", 1, product))

	items, err := store.ListItems(ctx, "user123")
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].SalePrice)
	assert.Equal(t, int64(299), *items[0].SalePrice)
}

func TestCartContextCancellation(t *testing.T) {
	store, cleanup := setupCartStore(t)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Nanosecond)
	defer cancel()

	time.Sleep(10 * time.Millisecond) // Ensure context is cancelled

	_, err := store.ListItems(ctx, "user123")
	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}
