package persist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrCacheMiss reports that a key is not in the cache.
var ErrCacheMiss = errors.New("cache miss")

// CacheConfig tunes the Redis snapshot cache.
type CacheConfig struct {
	Addr         string        `yaml:"addr" json:"addr"`
	Password     string        `yaml:"password" json:"password"`
	DB           int           `yaml:"db" json:"db"`
	DefaultTTL   time.Duration `yaml:"default_ttl" json:"default_ttl"`
	MaxRetries   int           `yaml:"max_retries" json:"max_retries"`
	PoolSize     int           `yaml:"pool_size" json:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns" json:"min_idle_conns"`
}

// DefaultCacheConfig returns the cache defaults.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		Addr:         "localhost:6379",
		DefaultTTL:   5 * time.Minute,
		MaxRetries:   3,
		PoolSize:     10,
		MinIdleConns: 2,
	}
}

// Cache keeps the latest graph export in Redis so a restarted process can
// restore the in-memory store without hitting the database.
type Cache struct {
	redis  *redis.Client
	cfg    CacheConfig
	logger *zap.Logger
}

const graphSnapshotKey = "flowbridge:graph:current"

// NewCache connects to Redis and verifies the connection.
func NewCache(cfg CacheConfig, logger *zap.Logger) (*Cache, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   cfg.MaxRetries,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	c := &Cache{
		redis:  client,
		cfg:    cfg,
		logger: logger.With(zap.String("component", "cache")),
	}
	c.logger.Info("cache connected", zap.String("addr", cfg.Addr))
	return c, nil
}

// StoreGraph caches the current graph export.
func (c *Cache) StoreGraph(ctx context.Context, data []byte) error {
	ttl := c.cfg.DefaultTTL
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	if err := c.redis.Set(ctx, graphSnapshotKey, data, ttl).Err(); err != nil {
		c.logger.Error("graph cache set failed", zap.Error(err))
		return fmt.Errorf("cache set failed: %w", err)
	}
	return nil
}

// LoadGraph fetches the cached graph export, or ErrCacheMiss.
func (c *Cache) LoadGraph(ctx context.Context) ([]byte, error) {
	data, err := c.redis.Get(ctx, graphSnapshotKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		c.logger.Error("graph cache get failed", zap.Error(err))
		return nil, fmt.Errorf("cache get failed: %w", err)
	}
	return data, nil
}

// InvalidateGraph drops the cached export.
func (c *Cache) InvalidateGraph(ctx context.Context) error {
	if err := c.redis.Del(ctx, graphSnapshotKey).Err(); err != nil {
		return fmt.Errorf("cache delete failed: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (c *Cache) Ping(ctx context.Context) error {
	return c.redis.Ping(ctx).Err()
}

// Close releases the Redis client.
func (c *Cache) Close() error {
	return c.redis.Close()
}
