package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ngoquangphuc29306/MiniMartChipChip-Ecommerce-sub001/internal/domain"
	"github.com/ngoquangphuc29306/MiniMartChipChip-Ecommerce-sub001/internal/gateway"
	"github.com/ngoquangphuc29306/MiniMartChipChip-Ecommerce-sub001/internal/notify"
	"golang.org/x/sync/singleflight"
)

// Wishlist is the optimistic sync engine for saved products. New entries get
// a provisional key immediately and swap it for the server-assigned key in
// place once the insert lands, so the visible order never jumps.
type Wishlist struct {
	store gateway.WishlistStore
	sink  notify.Sink
	log   *slog.Logger
	sfg   singleflight.Group

	mu      sync.Mutex
	state   State
	owner   string
	entries []domain.WishlistEntry

	pending sync.WaitGroup

	now func() time.Time
}

func NewWishlist(store gateway.WishlistStore, sink notify.Sink, log *slog.Logger) *Wishlist {
	return &Wishlist{
		store: store,
		sink:  sink,
		log:   log,
		now:   time.Now,
	}
}

// Login binds the engine to an identity and triggers a full load.
func (w *Wishlist) Login(ctx context.Context, ownerID string) {
	w.mu.Lock()
	w.owner = ownerID
	w.entries = nil
	w.state = Loading
	w.mu.Unlock()

	w.reload(ctx, ownerID)
}

// Reset discards the snapshot. Called on logout.
func (w *Wishlist) Reset() {
	w.mu.Lock()
	w.owner = ""
	w.entries = nil
	w.state = Uninitialized
	w.mu.Unlock()
}

// Load refreshes the whole snapshot from the store.
func (w *Wishlist) Load(ctx context.Context) {
	w.mu.Lock()
	owner := w.owner
	if owner == "" {
		w.mu.Unlock()
		w.authRequired()
		return
	}
	w.state = Loading
	w.mu.Unlock()

	w.reload(ctx, owner)
}

// Add saves a product. A product already on the list is a no-op reported as
// such; no network call is made for it.
func (w *Wishlist) Add(ctx context.Context, ref domain.ProductRef, product domain.ProductSnapshot) {
	w.mu.Lock()
	owner := w.owner
	if owner == "" {
		w.mu.Unlock()
		w.authRequired()
		return
	}
	for _, entry := range w.entries {
		if entry.ProductRef == ref {
			w.mu.Unlock()
			w.sink.Publish(notify.Event{
				Severity: notify.SeverityInfo,
				Message:  fmt.Sprintf("%s is already in your wishlist.", product.Name),
			})
			return
		}
	}

	entry := domain.WishlistEntry{
		Key:        domain.NewProvisionalKey(),
		ProductRef: ref,
		SavedAt:    w.now(),
		Product:    product,
	}
	// Most recently saved first.
	w.entries = append([]domain.WishlistEntry{entry}, w.entries...)
	w.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	w.pending.Add(1)
	go func() {
		defer w.pending.Done()
		serverKey, err := w.store.InsertEntry(ctx, owner, entry)
		if err != nil {
			// The provisional entry stays; the wishlist has no payment
			// implication, so a failed save is left for the user to retry.
			w.log.Error("wishlist insert failed", "owner", owner, "product", ref, "error", err)
			w.sink.Publish(notify.Event{
				Severity: notify.SeverityError,
				Message:  fmt.Sprintf("Couldn't save %s to your wishlist.", product.Name),
			})
			return
		}

		w.mu.Lock()
		if w.owner == owner {
			for i := range w.entries {
				if w.entries[i].Key == entry.Key {
					// Key substitution, not re-insertion: the entry keeps
					// its position.
					w.entries[i].Key = domain.PersistedKey(serverKey)
					break
				}
			}
		}
		w.mu.Unlock()

		w.sink.Publish(notify.Event{
			Severity: notify.SeverityInfo,
			Message:  fmt.Sprintf("%s saved to your wishlist.", product.Name),
		})
	}()
}

// Remove drops an entry. A provisional entry has no server-side counterpart,
// so only the snapshot changes. No rollback on failure.
func (w *Wishlist) Remove(ctx context.Context, key domain.EntryKey) {
	w.mu.Lock()
	owner := w.owner
	if owner == "" {
		w.mu.Unlock()
		w.authRequired()
		return
	}
	for i := range w.entries {
		if w.entries[i].Key == key {
			w.entries = append(w.entries[:i], w.entries[i+1:]...)
			break
		}
	}
	w.mu.Unlock()

	storeID, persisted := key.StoreID()
	if !persisted {
		w.sink.Publish(notify.Event{
			Severity: notify.SeverityInfo,
			Message:  "Removed from your wishlist.",
		})
		return
	}

	ctx = context.WithoutCancel(ctx)
	w.pending.Add(1)
	go func() {
		defer w.pending.Done()
		err := w.store.DeleteEntry(ctx, owner, storeID)
		if err != nil && !errors.Is(err, gateway.ErrNotFound) {
			w.log.Error("wishlist delete failed", "owner", owner, "entry", storeID, "error", err)
			w.sink.Publish(notify.Event{
				Severity: notify.SeverityError,
				Message:  "Couldn't remove the item from your wishlist.",
			})
			return
		}
		w.sink.Publish(notify.Event{
			Severity: notify.SeverityInfo,
			Message:  "Removed from your wishlist.",
		})
	}()
}

// Clear empties the wishlist. No rollback on failure.
func (w *Wishlist) Clear(ctx context.Context) {
	w.mu.Lock()
	owner := w.owner
	if owner == "" {
		w.mu.Unlock()
		w.authRequired()
		return
	}
	w.entries = nil
	w.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	w.pending.Add(1)
	go func() {
		defer w.pending.Done()
		if err := w.store.DeleteAll(ctx, owner); err != nil {
			w.log.Error("wishlist clear failed", "owner", owner, "error", err)
			w.sink.Publish(notify.Event{
				Severity: notify.SeverityError,
				Message:  "Couldn't clear your wishlist.",
			})
		}
	}()
}

// Count is the number of saved products.
func (w *Wishlist) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.entries)
}

// Contains reports membership by product, not by entry key.
func (w *Wishlist) Contains(ref domain.ProductRef) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, entry := range w.entries {
		if entry.ProductRef == ref {
			return true
		}
	}
	return false
}

// Entries returns a copy of the snapshot, most recently saved first.
func (w *Wishlist) Entries() []domain.WishlistEntry {
	w.mu.Lock()
	defer w.mu.Unlock()
	entries := make([]domain.WishlistEntry, len(w.entries))
	copy(entries, w.entries)
	return entries
}

func (w *Wishlist) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Wishlist) authRequired() {
	w.sink.Publish(notify.Event{
		Severity: notify.SeverityWarn,
		Message:  "Please sign in to use your wishlist.",
	})
}

func (w *Wishlist) reload(ctx context.Context, owner string) {
	ctx = context.WithoutCancel(ctx)
	w.pending.Add(1)
	go func() {
		defer w.pending.Done()
		v, err, _ := w.sfg.Do(owner, func() (interface{}, error) {
			return w.store.ListEntries(ctx, owner)
		})
		if err != nil {
			w.log.Error("wishlist load failed", "owner", owner, "error", err)
			w.mu.Lock()
			if w.owner == owner && w.state == Loading {
				w.state = Ready
			}
			w.mu.Unlock()
			w.sink.Publish(notify.Event{
				Severity: notify.SeverityError,
				Message:  "Couldn't refresh your wishlist.",
			})
			return
		}

		entries := v.([]domain.WishlistEntry)
		w.mu.Lock()
		if w.owner != owner {
			w.mu.Unlock()
			return
		}
		w.entries = entries
		w.state = Ready
		w.mu.Unlock()
	}()
}

// wait blocks until all in-flight reconciliations finish. Test hook.
func (w *Wishlist) wait() {
	w.pending.Wait()
}
