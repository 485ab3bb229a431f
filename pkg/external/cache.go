package external

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/symptom-intake-server/internal/domain"
)

// CachedEntities represents cached backend entities with metadata
type CachedEntities struct {
	Data      []domain.MedicalEntity `json:"data"`
	CachedAt  time.Time              `json:"cached_at"`
	ExpiresAt time.Time              `json:"expires_at"`
}

// EntityCache stores entity backend responses keyed by a hash of the input
// text. The in-memory LRU is checked first, then Redis when configured.
type EntityCache struct {
	memory     *lru.Cache[string, CachedEntities]
	redis      *redis.Client
	defaultTTL time.Duration
	prefix     string
	logger     *logrus.Logger
}

// NewEntityCache creates the cache tiers described by config. An empty
// RedisURL disables the Redis tier.
func NewEntityCache(config domain.CacheConfig, logger *logrus.Logger) (*EntityCache, error) {
	size := config.MemorySize
	if size <= 0 {
		size = 1000
	}
	memory, err := lru.New[string, CachedEntities](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create memory cache: %w", err)
	}

	ttl := config.DefaultTTL
	if ttl <= 0 {
		ttl = time.Hour
	}

	c := &EntityCache{
		memory:     memory,
		defaultTTL: ttl,
		prefix:     config.KeyPrefix,
		logger:     logger,
	}

	if config.RedisURL == "" {
		return c, nil
	}

	opts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	if config.PoolSize > 0 {
		opts.PoolSize = config.PoolSize
	}
	if config.PoolTimeout > 0 {
		opts.PoolTimeout = config.PoolTimeout
	}
	opts.MaxRetries = config.MaxRetries

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	c.redis = client
	return c, nil
}

// Get returns cached entities for text. Redis errors are logged and treated
// as a miss.
func (c *EntityCache) Get(ctx context.Context, text string) ([]domain.MedicalEntity, bool) {
	key := c.key(text)
	now := time.Now()

	if cached, ok := c.memory.Get(key); ok {
		if now.Before(cached.ExpiresAt) {
			return cloneEntities(cached.Data), true
		}
		c.memory.Remove(key)
	}

	if c.redis == nil {
		return nil, false
	}

	val, err := c.redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.logger.WithError(err).Warn("Entity cache read failed")
		return nil, false
	}

	var cached CachedEntities
	if err := json.Unmarshal(val, &cached); err != nil {
		// Remove corrupted cache entry
		c.redis.Del(ctx, key)
		return nil, false
	}
	if now.After(cached.ExpiresAt) {
		c.redis.Del(ctx, key)
		return nil, false
	}

	c.memory.Add(key, cached)
	return cloneEntities(cached.Data), true
}

// Set stores entities for text in every tier.
func (c *EntityCache) Set(ctx context.Context, text string, entities []domain.MedicalEntity) error {
	key := c.key(text)
	now := time.Now()
	cached := CachedEntities{
		Data:      cloneEntities(entities),
		CachedAt:  now,
		ExpiresAt: now.Add(c.defaultTTL),
	}
	c.memory.Add(key, cached)

	if c.redis == nil {
		return nil
	}

	jsonData, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("failed to marshal entity cache data: %w", err)
	}
	return c.redis.Set(ctx, key, jsonData, c.defaultTTL).Err()
}

// Len returns the number of entries in the memory tier.
func (c *EntityCache) Len() int {
	return c.memory.Len()
}

// Close releases the Redis connection if one is open.
func (c *EntityCache) Close() error {
	if c.redis != nil {
		return c.redis.Close()
	}
	return nil
}

func (c *EntityCache) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return c.prefix + "entities:" + hex.EncodeToString(sum[:])
}

func cloneEntities(in []domain.MedicalEntity) []domain.MedicalEntity {
	if in == nil {
		return nil
	}
	return append([]domain.MedicalEntity(nil), in...)
}
