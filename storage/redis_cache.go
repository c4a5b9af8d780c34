package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"crous-x/metrics"
	"crous-x/models"
	"crous-x/utils"
)

const cacheKey = "crousx:listings"

// CachedSource keeps the raw listing array in Redis so that every new page
// session does not hit the upstream source. Redis failures fall through to
// the upstream source.
type CachedSource struct {
	upstream ListingReader
	client   *redis.Client
	ttl      time.Duration
	logger   *utils.Logger
}

// NewRedisClient builds a client with the pack's usual timeouts.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})
}

// NewCachedSource wraps upstream with a Redis cache.
func NewCachedSource(upstream ListingReader, client *redis.Client, ttl time.Duration, logger *utils.Logger) *CachedSource {
	return &CachedSource{upstream: upstream, client: client, ttl: ttl, logger: logger}
}

// FetchAll serves the cached array when present.
func (c *CachedSource) FetchAll(ctx context.Context) ([]*models.RawListing, error) {
	data, err := c.client.Get(ctx, cacheKey).Bytes()
	switch {
	case err == nil:
		if listings, err := DecodeListings(bytes.NewReader(data), c.logger); err == nil {
			metrics.CacheResults.WithLabelValues("hit").Inc()
			return listings, nil
		}
		c.logger.Warn("[cache] Corrupt cache entry, refetching")
	case errors.Is(err, redis.Nil):
		metrics.CacheResults.WithLabelValues("miss").Inc()
	default:
		metrics.CacheResults.WithLabelValues("error").Inc()
		c.logger.Warn("[cache] Redis get failed: %v", err)
	}

	return c.Refresh(ctx)
}

// Refresh fetches from upstream and overwrites the cache entry.
func (c *CachedSource) Refresh(ctx context.Context) ([]*models.RawListing, error) {
	listings, err := c.upstream.FetchAll(ctx)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(listings)
	if err != nil {
		return listings, nil
	}
	if err := c.client.Set(ctx, cacheKey, data, c.ttl).Err(); err != nil {
		c.logger.Warn("[cache] Redis set failed: %v", err)
	}
	return listings, nil
}

// Invalidate drops the cache entry.
func (c *CachedSource) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, cacheKey).Err(); err != nil {
		return fmt.Errorf("cache: invalidate: %w", err)
	}
	return nil
}

// Close releases the Redis client.
func (c *CachedSource) Close() error {
	return c.client.Close()
}
