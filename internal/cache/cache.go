package cache

import (
	"context"
	"errors"

	"github.com/ngoquangphuc29306/MiniMartChipChip-Ecommerce-sub001/internal/domain"
)

// SnapshotCache holds the last reconciled cart snapshot per owner. The engine
// warm-starts from it at login and deletes it at logout; the gateway never
// touches it.
type SnapshotCache interface {
	Get(ctx context.Context, ownerID string) ([]domain.LineItem, error)
	Set(ctx context.Context, ownerID string, items []domain.LineItem) error
	Delete(ctx context.Context, ownerID string) error
}

var ErrCacheMiss = errors.New("cache miss")
