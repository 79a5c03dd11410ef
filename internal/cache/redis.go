package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stwalsh4118/pfman/internal/config"
	"github.com/stwalsh4118/pfman/internal/logger"
	"github.com/stwalsh4118/pfman/internal/models"
)

const (
	keyPrefix        = "pfman:"
	portfolioKeyFmt  = keyPrefix + "portfolio:%s"
	portfolioListKey = keyPrefix + "portfolios"
)

// RedisClient is the subset of the go-redis client used by the cache.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// PortfolioCache stores read-mostly portfolio views. Getters return
// (nil, nil) on a miss.
type PortfolioCache interface {
	GetPortfolio(ctx context.Context, id string) (*models.Portfolio, error)
	SetPortfolio(ctx context.Context, portfolio *models.Portfolio) error
	GetPortfolioList(ctx context.Context) ([]models.PortfolioSummary, error)
	SetPortfolioList(ctx context.Context, summaries []models.PortfolioSummary) error
	InvalidatePortfolioList(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// NewRedisClient connects to the Redis server at cfg.URL. A non-empty
// cfg.Password overrides any password in the URL.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	opts.MaxRetries = 3

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// RedisPortfolioCache is a PortfolioCache backed by Redis. Values are
// stored as JSON with a fixed TTL.
type RedisPortfolioCache struct {
	client RedisClient
	ttl    time.Duration
	log    *logger.Logger
}

var (
	_ PortfolioCache = (*RedisPortfolioCache)(nil)
	_ PortfolioCache = NoopPortfolioCache{}
)

// NewRedisPortfolioCache creates a cache over client.
func NewRedisPortfolioCache(client RedisClient, ttl time.Duration, log *logger.Logger) *RedisPortfolioCache {
	return &RedisPortfolioCache{client: client, ttl: ttl, log: log}
}

func portfolioKey(id string) string {
	return fmt.Sprintf(portfolioKeyFmt, id)
}

func (c *RedisPortfolioCache) GetPortfolio(ctx context.Context, id string) (*models.Portfolio, error) {
	var portfolio models.Portfolio
	found, err := c.get(ctx, portfolioKey(id), &portfolio)
	if err != nil || !found {
		return nil, err
	}
	return &portfolio, nil
}

func (c *RedisPortfolioCache) SetPortfolio(ctx context.Context, portfolio *models.Portfolio) error {
	return c.set(ctx, portfolioKey(portfolio.ID), portfolio)
}

func (c *RedisPortfolioCache) GetPortfolioList(ctx context.Context) ([]models.PortfolioSummary, error) {
	var summaries []models.PortfolioSummary
	found, err := c.get(ctx, portfolioListKey, &summaries)
	if err != nil || !found {
		return nil, err
	}
	if summaries == nil {
		summaries = []models.PortfolioSummary{}
	}
	return summaries, nil
}

func (c *RedisPortfolioCache) SetPortfolioList(ctx context.Context, summaries []models.PortfolioSummary) error {
	return c.set(ctx, portfolioListKey, summaries)
}

func (c *RedisPortfolioCache) InvalidatePortfolioList(ctx context.Context) error {
	if err := c.client.Del(ctx, portfolioListKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate portfolio list: %w", err)
	}
	return nil
}

// Ping checks that Redis is reachable.
func (c *RedisPortfolioCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (c *RedisPortfolioCache) Close() error {
	return c.client.Close()
}

func (c *RedisPortfolioCache) get(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		c.log.Debug("Cache miss", map[string]interface{}{"key": key})
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read cache key %s: %w", key, err)
	}

	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		c.log.Warn("Discarding undecodable cache entry", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return false, nil
	}
	c.log.Debug("Cache hit", map[string]interface{}{"key": key})
	return true, nil
}

func (c *RedisPortfolioCache) set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache value for %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cache key %s: %w", key, err)
	}
	return nil
}

// NoopPortfolioCache never stores anything. It is used when Redis is not
// configured.
type NoopPortfolioCache struct{}

func (NoopPortfolioCache) GetPortfolio(context.Context, string) (*models.Portfolio, error) {
	return nil, nil
}

func (NoopPortfolioCache) SetPortfolio(context.Context, *models.Portfolio) error { return nil }

func (NoopPortfolioCache) GetPortfolioList(context.Context) ([]models.PortfolioSummary, error) {
	return nil, nil
}

func (NoopPortfolioCache) SetPortfolioList(context.Context, []models.PortfolioSummary) error {
	return nil
}

func (NoopPortfolioCache) InvalidatePortfolioList(context.Context) error { return nil }

func (NoopPortfolioCache) Ping(context.Context) error { return nil }

func (NoopPortfolioCache) Close() error { return nil }
