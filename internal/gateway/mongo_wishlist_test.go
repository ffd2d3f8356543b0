package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/ngoquangphuc29306/MiniMartChipChip-Ecommerce-sub001/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func setupWishlistStore(t *testing.T) (WishlistStore, func()) {
	db, cleanup := setupTestDB(t)
	return NewMongoWishlistStore(db), cleanup
}

func wishlistEntry(ref domain.ProductRef, savedAt time.Time) domain.WishlistEntry {
	return domain.WishlistEntry{
		Key:        domain.NewProvisionalKey(),
		ProductRef: ref,
		SavedAt:    savedAt,
		Product:    domain.ProductSnapshot{Name: string(ref), UnitPrice: 100},
	}
}

func TestInsertEntry_ReturnsServerKey(t *testing.T) {
	store, cleanup := setupWishlistStore(t)
	defer cleanup()

	ctx := context.Background()
	key, err := store.InsertEntry(ctx, "user123", wishlistEntry("mango", time.Now()))

	require.NoError(t, err)
	_, idErr := primitive.ObjectIDFromHex(key)
	assert.NoError(t, idErr, "server key must be a valid ObjectID hex")
}

func TestInsertEntry_DuplicateReturnsExistingKey(t *testing.T) {
	store, cleanup := setupWishlistStore(t)
	defer cleanup()

	ctx := context.Background()
	first, err := store.InsertEntry(ctx, "user123", wishlistEntry("mango", time.Now()))
	require.NoError(t, err)

	second, err := store.InsertEntry(ctx, "user123", wishlistEntry("mango", time.Now()))
	require.NoError(t, err)

	assert.Equal(t, first, second, "re-adding the same product must land on the same row")

	entries, err := store.ListEntries(ctx, "user123")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestInsertEntry_SameProductDifferentOwners(t *testing.T) {
	store, cleanup := setupWishlistStore(t)
	defer cleanup()

	ctx := context.Background()
	aliceKey, err := store.InsertEntry(ctx, "alice", wishlistEntry("mango", time.Now()))
	require.NoError(t, err)
	bobKey, err := store.InsertEntry(ctx, "bob", wishlistEntry("mango", time.Now()))
	require.NoError(t, err)

	assert.NotEqual(t, aliceKey, bobKey, "uniqueness is per owner, not global")
}

func TestListEntries_MostRecentFirst(t *testing.T) {
	store, cleanup := setupWishlistStore(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now()
	_, err := store.InsertEntry(ctx, "user123", wishlistEntry("mango", now.Add(-time.Hour)))
	require.NoError(t, err)
	_, err = store.InsertEntry(ctx, "user123", wishlistEntry("lime", now))
	require.NoError(t, err)

	entries, err := store.ListEntries(ctx, "user123")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.ProductRef("lime"), entries[0].ProductRef)
	assert.Equal(t, domain.ProductRef("mango"), entries[1].ProductRef)
	assert.False(t, entries[0].Key.Provisional(), "listed keys are always server keys")
}

func TestListEntries_ProductSnapshotRoundTrip(t *testing.T) {
	store, cleanup := setupWishlistStore(t)
	defer cleanup()

	ctx := context.Background()
	entry := domain.WishlistEntry{
		Key:        domain.NewProvisionalKey(),
		ProductRef: "mango",
		SavedAt:    time.Now(),
		Product: domain.ProductSnapshot{
			Name:      "Alphonso Mango",
			ImageURL:  "https://cdn.example.com/mango.jpg",
			UnitPrice: 350,
			SalePrice: intPtr(299),
		},
	}
	_, err := store.InsertEntry(ctx, "user123", entry)
	require.NoError(t, err)

	entries, err := store.ListEntries(ctx, "user123")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Alphonso Mango", entries[0].Product.Name)
	assert.Equal(t, "https://cdn.example.com/mango.jpg", entries[0].Product.ImageURL)
	require.NotNil(t, entries[0].Product.SalePrice)
	assert.Equal(t, int64(299), *entries[0].Product.SalePrice)
}

func TestDeleteEntry_RemovesRow(t *testing.T) {
	store, cleanup := setupWishlistStore(t)
	defer cleanup()

	ctx := context.Background()
	key, err := store.InsertEntry(ctx, "user123", wishlistEntry("mango", time.Now()))
	require.NoError(t, err)

	err = store.DeleteEntry(ctx, "user123", key)
	require.NoError(t, err)

	entries, err := store.ListEntries(ctx, "user123")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDeleteEntry_MissingRow(t *testing.T) {
	store, cleanup := setupWishlistStore(t)
	defer cleanup()

	ctx := context.Background()
	err := store.DeleteEntry(ctx, "user123", primitive.NewObjectID().Hex())

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteEntry_OtherOwnersRow(t *testing.T) {
	store, cleanup := setupWishlistStore(t)
	defer cleanup()

	ctx := context.Background()
	key, err := store.InsertEntry(ctx, "alice", wishlistEntry("mango", time.Now()))
	require.NoError(t, err)

	err = store.DeleteEntry(ctx, "mallory", key)
	assert.ErrorIs(t, err, ErrOwnershipViolation)

	entries, err := store.ListEntries(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWishlistDeleteAll_ScopedToOwner(t *testing.T) {
	store, cleanup := setupWishlistStore(t)
	defer cleanup()

	ctx := context.Background()
	_, err := store.InsertEntry(ctx, "alice", wishlistEntry("mango", time.Now()))
	require.NoError(t, err)
	_, err = store.InsertEntry(ctx, "bob", wishlistEntry("mango", time.Now()))
	require.NoError(t, err)

	err = store.DeleteAll(ctx, "alice")
	require.NoError(t, err)

	aliceEntries, err := store.ListEntries(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, aliceEntries)

	bobEntries, err := store.ListEntries(ctx, "bob")
	require.NoError(t, err)
	assert.Len(t, bobEntries, 1)
}
