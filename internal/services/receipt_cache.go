package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"iapkit/pkg/receipt"

	"github.com/redis/go-redis/v9"
)

// ReceiptCache stores validated receipts by receipt hash.
type ReceiptCache interface {
	Get(ctx context.Context, key string) (receipt.Info, bool, error)
	Set(ctx context.Context, key string, info receipt.Info, ttl time.Duration) error
}

// RedisReceiptCache keeps validated receipts in Redis hashes.
type RedisReceiptCache struct {
	client *redis.Client
}

// NewRedisReceiptCache creates a receipt cache on top of client.
func NewRedisReceiptCache(client *redis.Client) *RedisReceiptCache {
	return &RedisReceiptCache{client: client}
}

func receiptCacheKey(key string) string {
	return fmt.Sprintf("receipt:%s", key)
}

// Get returns the cached receipt for key. A miss is not an error.
func (r *RedisReceiptCache) Get(ctx context.Context, key string) (receipt.Info, bool, error) {
	raw, err := r.client.HGet(ctx, receiptCacheKey(key), "info").Result()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, err
	}

	var info receipt.Info
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached receipt: %w", err)
	}
	return info, true, nil
}

// Set caches info under key for ttl.
func (r *RedisReceiptCache) Set(ctx context.Context, key string, info receipt.Info, ttl time.Duration) error {
	raw, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to encode receipt: %w", err)
	}

	cacheKey := receiptCacheKey(key)
	data := map[string]interface{}{
		"info":      string(raw),
		"status":    int(info.Status()),
		"cached_at": time.Now().Unix(),
	}

	if err := r.client.HSet(ctx, cacheKey, data).Err(); err != nil {
		return err
	}
	return r.client.Expire(ctx, cacheKey, ttl).Err()
}
