// Package rediscache caches catalog reads in Redis.
package rediscache

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xenking/modelado-pao/internal/domain/product"
)

const (
	keyPrefix  = "pao:products:"
	listKey    = keyPrefix + "list"
	itemPrefix = keyPrefix + "id:"
)

var (
	_ product.Repository  = (*ProductCache)(nil)
	_ product.Invalidator = (*ProductCache)(nil)
)

// Client is the subset of redis.UniversalClient the cache uses.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

// ProductCache is a read-through cache in front of a product.Repository.
//
// Only the storefront reads (List, GetByID) are cached. GetByIDs always goes
// to the underlying repository because checkout must price from the
// authoritative catalog.
type ProductCache struct {
	next product.Repository
	rdb  Client
	ttl  time.Duration
}

// NewProductCache wraps next with a cache stored in rdb.
func NewProductCache(next product.Repository, rdb Client, ttl time.Duration) *ProductCache {
	return &ProductCache{next: next, rdb: rdb, ttl: ttl}
}

// List returns the catalog, from cache when possible.
func (c *ProductCache) List(ctx context.Context) ([]product.Product, error) {
	if data, ok := c.get(ctx, listKey); ok {
		products, err := product.DecodeList(jx.DecodeBytes(data))
		if err == nil {
			return products, nil
		}
		zctx.From(ctx).Warn("Discard corrupt cache entry", zap.String("key", listKey), zap.Error(err))
	}

	products, err := c.next.List(ctx)
	if err != nil {
		return nil, err
	}

	var e jx.Encoder
	product.EncodeList(&e, products)
	c.set(ctx, listKey, e.Bytes())
	return products, nil
}

// GetByID returns a single product, from cache when possible. Misses for
// unknown IDs are not cached.
func (c *ProductCache) GetByID(ctx context.Context, id string) (*product.Product, error) {
	key := itemPrefix + id
	if data, ok := c.get(ctx, key); ok {
		var p product.Product
		if err := p.Decode(jx.DecodeBytes(data)); err == nil {
			return &p, nil
		}
	}

	p, err := c.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var e jx.Encoder
	p.Encode(&e)
	c.set(ctx, key, e.Bytes())
	return p, nil
}

// GetByIDs bypasses the cache.
func (c *ProductCache) GetByIDs(ctx context.Context, ids []string) ([]product.Product, error) {
	return c.next.GetByIDs(ctx, ids)
}

// Invalidate drops the listing and the entries for ids.
func (c *ProductCache) Invalidate(ctx context.Context, ids ...string) error {
	keys := make([]string, 0, len(ids)+1)
	keys = append(keys, listKey)
	for _, id := range ids {
		keys = append(keys, itemPrefix+id)
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return errors.Wrap(err, "delete cache keys")
	}
	return nil
}

// Ping checks connectivity to Redis.
func (c *ProductCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// get treats every Redis failure as a miss.
func (c *ProductCache) get(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			zctx.From(ctx).Debug("Cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return data, true
}

func (c *ProductCache) set(ctx context.Context, key string, data []byte) {
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		zctx.From(ctx).Debug("Cache write failed", zap.String("key", key), zap.Error(err))
	}
}
