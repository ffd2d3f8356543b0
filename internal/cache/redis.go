package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/ngoquangphuc29306/MiniMartChipChip-Ecommerce-sub001/internal/domain"
	"github.com/redis/go-redis/v9"
)

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: 15 * time.Minute,
	}
}

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

type cachedItem struct {
	ItemKey    string `json:"item_key"`
	ProductRef string `json:"product_ref"`
	Quantity   int    `json:"quantity"`
	UnitPrice  int64  `json:"unit_price"`
	SalePrice  *int64 `json:"sale_price,omitempty"`
}

func (r RedisCache) Get(ctx context.Context, ownerID string) ([]domain.LineItem, error) {
	key := cacheKey(ownerID)

	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var cached []cachedItem
	if err2 := json.Unmarshal(data, &cached); err2 != nil {
		return nil, fmt.Errorf("unmarshal snapshot failed: %w", err2)
	}

	items := make([]domain.LineItem, len(cached))
	for i, c := range cached {
		items[i] = domain.LineItem{
			ItemKey:    c.ItemKey,
			ProductRef: domain.ProductRef(c.ProductRef),
			Quantity:   c.Quantity,
			UnitPrice:  c.UnitPrice,
			SalePrice:  c.SalePrice,
		}
	}
	return items, nil
}

func (r RedisCache) Set(ctx context.Context, ownerID string, items []domain.LineItem) error {
	key := cacheKey(ownerID)

	cached := make([]cachedItem, len(items))
	for i, item := range items {
		cached[i] = cachedItem{
			ItemKey:    item.ItemKey,
			ProductRef: string(item.ProductRef),
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			SalePrice:  item.SalePrice,
		}
	}
	data, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("marshal snapshot failed: %w", err)
	}

	jitter := time.Duration(rand.Intn(5)) * time.Minute
	ttl := r.baseTTL + jitter
	ret := r.client.Set(ctx, key, string(data), ttl)
	if ret.Err() != nil {
		return fmt.Errorf("redis set failed: %w", ret.Err())
	}
	return nil
}

func (r RedisCache) Delete(ctx context.Context, ownerID string) error {
	key := cacheKey(ownerID)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}

	return nil
}

func cacheKey(ownerID string) string {
	return fmt.Sprintf("cart:%s", ownerID)
}
