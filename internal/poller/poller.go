package poller

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/ngoquangphuc29306/MiniMartChipChip-Ecommerce-sub001/internal/cache"
	"github.com/ngoquangphuc29306/MiniMartChipChip-Ecommerce-sub001/internal/gateway"
	"github.com/segmentio/kafka-go"
)

// Poller consumes checkout-completed events and empties the owner's remote
// cart and cached snapshot. A live engine is nudged through onCleared so it
// reloads instead of showing already-purchased items.
type Poller struct {
	store     gateway.CartStore
	cache     cache.SnapshotCache // may be nil
	reader    *kafka.Reader
	log       *slog.Logger
	onCleared func(ownerID string) // may be nil
}

func New(store gateway.CartStore, snapshots cache.SnapshotCache, log *slog.Logger, onCleared func(string), brokers ...string) *Poller {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    "checkout-outbox",
		GroupID:  "storefront-sync-consumer",
		MaxBytes: 10e6, // 10MB
	})
	return &Poller{
		store:     store,
		cache:     snapshots,
		reader:    reader,
		log:       log,
		onCleared: onCleared,
	}
}

func (p *Poller) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		p.consumeAndClearCart(ctx)
	}
}

func (p *Poller) Close() {
	if err := p.reader.Close(); err != nil {
		p.log.Warn("error closing reader", "error", err)
	}
}

func (p *Poller) consumeAndClearCart(ctx context.Context) {
	m, err := p.reader.ReadMessage(ctx)
	if err != nil {
		p.log.Warn("error reading message", "error", err)
		return
	}

	var payload map[string]interface{}
	if errUnmarshal := json.Unmarshal(m.Value, &payload); errUnmarshal != nil {
		p.log.Warn("error parsing message", "error", errUnmarshal)
		return
	}
	ownerID, ok := payload["owner_id"].(string)
	if !ok {
		p.log.Warn("missing or invalid owner_id")
		return
	}

	// DeleteAll of an already-empty cart is a no-op, so redelivery is safe.
	if errDelete := p.store.DeleteAll(ctx, ownerID); errDelete != nil {
		p.log.Error("failed to clear cart after checkout", "owner", ownerID, "error", errDelete)
		return
	}

	if p.cache != nil {
		if errCache := p.cache.Delete(ctx, ownerID); errCache != nil {
			p.log.Warn("failed to delete cached snapshot", "owner", ownerID, "error", errCache)
		}
	}

	if p.onCleared != nil {
		p.onCleared(ownerID)
	}
}
