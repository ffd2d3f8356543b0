package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ngoquangphuc29306/MiniMartChipChip-Ecommerce-sub001/internal/cache"
	"github.com/ngoquangphuc29306/MiniMartChipChip-Ecommerce-sub001/internal/domain"
	"github.com/ngoquangphuc29306/MiniMartChipChip-Ecommerce-sub001/internal/gateway"
	"github.com/ngoquangphuc29306/MiniMartChipChip-Ecommerce-sub001/internal/notify"
	"golang.org/x/sync/singleflight"
)

// Cart is the optimistic sync engine for the shopping cart. Mutations apply
// to the in-memory snapshot synchronously; the remote store is reconciled in
// the background and outcomes surface through the notification sink, never as
// returned errors.
type Cart struct {
	store gateway.CartStore
	cache cache.SnapshotCache // may be nil
	sink  notify.Sink
	log   *slog.Logger
	sfg   singleflight.Group // collapses concurrent full reloads

	mu    sync.Mutex
	state State
	owner string
	items []domain.LineItem

	pending sync.WaitGroup
}

func NewCart(store gateway.CartStore, snapshots cache.SnapshotCache, sink notify.Sink, log *slog.Logger) *Cart {
	return &Cart{
		store: store,
		cache: snapshots,
		sink:  sink,
		log:   log,
	}
}

// Login binds the engine to an identity and triggers a full load. The
// snapshot may be warm-started from the cache while the authoritative read is
// in flight.
func (c *Cart) Login(ctx context.Context, ownerID string) {
	c.mu.Lock()
	c.owner = ownerID
	c.items = nil
	c.state = Loading
	c.mu.Unlock()

	c.reload(ctx, ownerID, true)
}

// Reset discards the snapshot and the identity-scoped cache. Called on
// logout; the remote store stays the only durable record.
func (c *Cart) Reset() {
	c.mu.Lock()
	owner := c.owner
	c.owner = ""
	c.items = nil
	c.state = Uninitialized
	c.mu.Unlock()

	if owner == "" || c.cache == nil {
		return
	}
	c.pending.Add(1)
	go func() {
		defer c.pending.Done()
		if err := c.cache.Delete(context.Background(), owner); err != nil {
			c.log.Warn("cart cache delete failed", "owner", owner, "error", err)
		}
	}()
}

// Load refreshes the whole snapshot from the store. On failure the previous
// snapshot stands, stale but consistent.
func (c *Cart) Load(ctx context.Context) {
	c.mu.Lock()
	owner := c.owner
	if owner == "" {
		c.mu.Unlock()
		c.authRequired()
		return
	}
	c.state = Loading
	c.mu.Unlock()

	c.reload(ctx, owner, false)
}

// Add puts quantity units of a product in the cart. A product already
// present is merged by quantity, never duplicated as a row; the store applies
// the increment so adds from other sessions are not lost.
func (c *Cart) Add(ctx context.Context, ref domain.ProductRef, product domain.ProductSnapshot, quantity int) {
	if quantity < 1 {
		quantity = 1
	}

	c.mu.Lock()
	owner := c.owner
	if owner == "" {
		c.mu.Unlock()
		c.authRequired()
		return
	}
	merged := false
	for i := range c.items {
		if c.items[i].ProductRef == ref {
			c.items[i].Quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		// ItemKey stays empty until the post-upsert reload: the row may
		// have been merged server-side, so a client-guessed key is never
		// trusted.
		c.items = append(c.items, domain.LineItem{
			ProductRef: ref,
			Quantity:   quantity,
			UnitPrice:  product.UnitPrice,
			SalePrice:  product.SalePrice,
		})
	}
	c.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	c.pending.Add(1)
	go func() {
		defer c.pending.Done()
		if err := c.store.UpsertItem(ctx, owner, ref, quantity, product); err != nil {
			c.log.Error("cart upsert failed", "owner", owner, "product", ref, "error", err)
			c.sink.Publish(notify.Event{
				Severity: notify.SeverityError,
				Message:  fmt.Sprintf("Couldn't add %s to your cart. Please try again.", product.Name),
			})
			return
		}
		c.refresh(ctx, owner)
		c.sink.Publish(notify.Event{
			Severity: notify.SeverityInfo,
			Message:  fmt.Sprintf("%s added to your cart.", product.Name),
		})
	}()
}

// UpdateQuantity overwrites a line's quantity. Zero or negative means remove.
// A failed update forces a full reload: the quantity drives the payable
// total, so silent divergence is not acceptable here.
func (c *Cart) UpdateQuantity(ctx context.Context, itemKey string, quantity int) {
	if quantity <= 0 {
		c.Remove(ctx, itemKey)
		return
	}

	c.mu.Lock()
	owner := c.owner
	if owner == "" {
		c.mu.Unlock()
		c.authRequired()
		return
	}
	for i := range c.items {
		if c.items[i].ItemKey == itemKey {
			c.items[i].Quantity = quantity
			break
		}
	}
	c.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	c.pending.Add(1)
	go func() {
		defer c.pending.Done()
		err := c.store.UpdateQuantity(ctx, owner, itemKey, quantity)
		if err == nil {
			c.writeCache(ctx, owner)
			return
		}
		c.log.Error("cart quantity update failed", "owner", owner, "item", itemKey, "error", err)
		c.sink.Publish(notify.Event{
			Severity: notify.SeverityError,
			Message:  "Couldn't update the quantity. Your cart has been refreshed.",
		})
		// Discard the optimistic value and resynchronize.
		c.mu.Lock()
		c.state = Loading
		c.mu.Unlock()
		c.loadOnce(ctx, owner)
	}()
}

// Remove drops a line from the cart. The snapshot changes immediately and is
// never rolled back: a failed delete leaves the UI ahead of the server until
// the next load.
func (c *Cart) Remove(ctx context.Context, itemKey string) {
	c.mu.Lock()
	owner := c.owner
	if owner == "" {
		c.mu.Unlock()
		c.authRequired()
		return
	}
	for i := range c.items {
		if c.items[i].ItemKey == itemKey {
			c.items = append(c.items[:i], c.items[i+1:]...)
			break
		}
	}
	c.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	c.pending.Add(1)
	go func() {
		defer c.pending.Done()
		err := c.store.DeleteItem(ctx, owner, itemKey)
		if err != nil && !errors.Is(err, gateway.ErrNotFound) {
			// Already-deleted rows count as success: a fast double-remove
			// is idempotent.
			c.log.Error("cart delete failed", "owner", owner, "item", itemKey, "error", err)
			c.sink.Publish(notify.Event{
				Severity: notify.SeverityError,
				Message:  "Couldn't remove the item from your cart.",
			})
			return
		}
		c.writeCache(ctx, owner)
		c.sink.Publish(notify.Event{
			Severity: notify.SeverityInfo,
			Message:  "Item removed from your cart.",
		})
	}()
}

// Clear empties the cart. No rollback on failure.
func (c *Cart) Clear(ctx context.Context) {
	c.mu.Lock()
	owner := c.owner
	if owner == "" {
		c.mu.Unlock()
		c.authRequired()
		return
	}
	c.items = nil
	c.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	c.pending.Add(1)
	go func() {
		defer c.pending.Done()
		if err := c.store.DeleteAll(ctx, owner); err != nil {
			c.log.Error("cart clear failed", "owner", owner, "error", err)
			c.sink.Publish(notify.Event{
				Severity: notify.SeverityError,
				Message:  "Couldn't clear your cart.",
			})
			return
		}
		if c.cache != nil {
			if err := c.cache.Delete(ctx, owner); err != nil {
				c.log.Warn("cart cache delete failed", "owner", owner, "error", err)
			}
		}
	}()
}

// TotalPrice sums (sale price or unit price) × quantity over the snapshot.
func (c *Cart) TotalPrice() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var total int64
	for _, item := range c.items {
		total += item.Subtotal()
	}
	return total
}

// Count is the sum of quantities across the cart.
func (c *Cart) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	count := 0
	for _, item := range c.items {
		count += item.Quantity
	}
	return count
}

// Contains reports membership by product, not by row key.
func (c *Cart) Contains(ref domain.ProductRef) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, item := range c.items {
		if item.ProductRef == ref {
			return true
		}
	}
	return false
}

// Items returns a copy of the snapshot in checkout order.
func (c *Cart) Items() []domain.LineItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	items := make([]domain.LineItem, len(c.items))
	copy(items, c.items)
	return items
}

// Owner returns the identity the snapshot belongs to, empty when anonymous.
func (c *Cart) Owner() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.owner
}

func (c *Cart) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Cart) authRequired() {
	c.sink.Publish(notify.Event{
		Severity: notify.SeverityWarn,
		Message:  "Please sign in to use your cart.",
	})
}

// reload replaces the snapshot from the store in the background. With warm
// set, the cached last-known snapshot is shown while the read is in flight.
func (c *Cart) reload(ctx context.Context, owner string, warm bool) {
	ctx = context.WithoutCancel(ctx)
	c.pending.Add(1)
	go func() {
		defer c.pending.Done()
		if warm && c.cache != nil {
			if items, err := c.cache.Get(ctx, owner); err == nil {
				c.mu.Lock()
				if c.owner == owner && c.state == Loading {
					c.items = items
				}
				c.mu.Unlock()
			} else if !errors.Is(err, cache.ErrCacheMiss) {
				c.log.Warn("cart cache read failed", "owner", owner, "error", err)
			}
		}
		c.loadOnce(ctx, owner)
	}()
}

// loadOnce performs one authoritative read and applies it. Concurrent loads
// for the same owner share a single round trip.
func (c *Cart) loadOnce(ctx context.Context, owner string) {
	v, err, _ := c.sfg.Do(owner, func() (interface{}, error) {
		return c.store.ListItems(ctx, owner)
	})
	if err != nil {
		c.log.Error("cart load failed", "owner", owner, "error", err)
		c.mu.Lock()
		if c.owner == owner && c.state == Loading {
			c.state = Ready // stale-but-consistent, never stuck in Loading
		}
		c.mu.Unlock()
		c.sink.Publish(notify.Event{
			Severity: notify.SeverityError,
			Message:  "Couldn't refresh your cart.",
		})
		return
	}

	items := v.([]domain.LineItem)
	c.mu.Lock()
	if c.owner != owner {
		// Identity changed while the read was in flight; this snapshot
		// belongs to someone else now.
		c.mu.Unlock()
		return
	}
	c.items = items
	c.state = Ready
	c.mu.Unlock()

	c.setCache(ctx, owner, items)
}

// refresh re-fetches the snapshot after a merge-add. The authoritative
// quantity always comes back from the store, never from client arithmetic.
func (c *Cart) refresh(ctx context.Context, owner string) {
	items, err := c.store.ListItems(ctx, owner)
	if err != nil {
		// The optimistic snapshot stands until the next load.
		c.log.Warn("cart refresh failed", "owner", owner, "error", err)
		return
	}
	c.mu.Lock()
	if c.owner != owner {
		c.mu.Unlock()
		return
	}
	c.items = items
	c.state = Ready
	c.mu.Unlock()

	c.setCache(ctx, owner, items)
}

// writeCache stores the current snapshot as the owner's last-known cart.
func (c *Cart) writeCache(ctx context.Context, owner string) {
	c.mu.Lock()
	if c.owner != owner {
		c.mu.Unlock()
		return
	}
	items := make([]domain.LineItem, len(c.items))
	copy(items, c.items)
	c.mu.Unlock()

	c.setCache(ctx, owner, items)
}

func (c *Cart) setCache(ctx context.Context, owner string, items []domain.LineItem) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Set(ctx, owner, items); err != nil {
		c.log.Warn("cart cache write failed", "owner", owner, "error", err)
	}
}

// wait blocks until all in-flight reconciliations finish. Test hook.
func (c *Cart) wait() {
	c.pending.Wait()
}
