package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"payments/internal/domain"
)

const publicKeyCacheKey = "payments:encryption-public-key"

// PublicKeyCache caches the processor's encryption public key in Redis with
// a TTL. The TTL bounds staleness: a rotated key is reflected within one
// caching interval.
type PublicKeyCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPublicKeyCache creates a new PublicKeyCache.
func NewPublicKeyCache(client *redis.Client, ttl time.Duration) *PublicKeyCache {
	return &PublicKeyCache{client: client, ttl: ttl}
}

// Get retrieves the cached key. Returns nil on a miss; cache errors are
// reported so callers can fall through to the gateway.
func (c *PublicKeyCache) Get(ctx context.Context) (*domain.PublicKey, error) {
	data, err := c.client.Get(ctx, publicKeyCacheKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var key domain.PublicKey
	if err := json.Unmarshal(data, &key); err != nil {
		return nil, err
	}

	return &key, nil
}

// Set stores the key with the configured TTL.
func (c *PublicKeyCache) Set(ctx context.Context, key *domain.PublicKey) error {
	data, err := json.Marshal(key)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, publicKeyCacheKey, data, c.ttl).Err()
}
