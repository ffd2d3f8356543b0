package gateway

import (
	"context"
	"errors"

	"github.com/ngoquangphuc29306/MiniMartChipChip-Ecommerce-sub001/internal/domain"
)

// Typed failures surfaced to the engine. Every error returned by a store
// implementation wraps exactly one of these.
var (
	// ErrNotFound means the targeted row no longer exists server-side.
	ErrNotFound = errors.New("row not found")

	// ErrOwnershipViolation means the row exists but belongs to a different
	// identity. Never retried; signals a stale key or a bug.
	ErrOwnershipViolation = errors.New("row does not belong to caller")

	// ErrStoreUnavailable covers network and store failures.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// CartStore is the gateway to the remote cart table. One round trip per call,
// no retries, no caching. Every mutation is scoped to ownerID and the store
// re-validates ownership of the targeted row.
type CartStore interface {
	// ListItems returns the full cart for ownerID in insertion order.
	ListItems(ctx context.Context, ownerID string) ([]domain.LineItem, error)

	// UpsertItem adds quantityDelta to the row for (ownerID, ref), creating
	// the row if absent. The store serializes concurrent deltas.
	UpsertItem(ctx context.Context, ownerID string, ref domain.ProductRef, quantityDelta int, product domain.ProductSnapshot) error

	// UpdateQuantity overwrites the quantity of an existing row.
	UpdateQuantity(ctx context.Context, ownerID, itemKey string, quantity int) error

	// DeleteItem removes one row by key.
	DeleteItem(ctx context.Context, ownerID, itemKey string) error

	// DeleteAll removes every cart row owned by ownerID.
	DeleteAll(ctx context.Context, ownerID string) error
}

// WishlistStore is the gateway to the remote wishlist table.
type WishlistStore interface {
	// ListEntries returns the full wishlist for ownerID, most recently
	// saved first.
	ListEntries(ctx context.Context, ownerID string) ([]domain.WishlistEntry, error)

	// InsertEntry persists a new entry and returns the server-assigned key.
	// Inserting a product already present returns the existing row's key.
	InsertEntry(ctx context.Context, ownerID string, entry domain.WishlistEntry) (string, error)

	// DeleteEntry removes one row by its server-assigned key.
	DeleteEntry(ctx context.Context, ownerID, entryKey string) error

	// DeleteAll removes every wishlist row owned by ownerID.
	DeleteAll(ctx context.Context, ownerID string) error
}
