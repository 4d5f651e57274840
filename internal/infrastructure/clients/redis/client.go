package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sunuchoix/search-backend/internal/infrastructure/observability"
	"github.com/sunuchoix/search-backend/pkg/config"
	"github.com/sunuchoix/search-backend/pkg/retry"
)

// Cache lookups sit on the search hot path. A slow shared cache must fail
// fast so the pipeline degrades to a miss instead of stalling the request.
const (
	dialTimeout  = 2 * time.Second
	opTimeout    = 500 * time.Millisecond
	poolSize     = 20
	minIdleConns = 2
)

// Client represents a Redis client tuned for the search cache
type Client struct {
	client *redis.Client
}

// NewClient creates a new Redis client with exponential backoff retry
func NewClient(cfg *config.RedisConfig) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  dialTimeout,
		ReadTimeout:  opTimeout,
		WriteTimeout: opTimeout,
		PoolSize:     poolSize,
		MinIdleConns: minIdleConns,
	})

	logger := observability.GetLogger()
	err := retry.Do(context.Background(), retry.DefaultConfig(), logger, "redis", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return client.Ping(ctx).Err()
	})
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis after retries: %w", err)
	}

	logger.Info().Str("addr", cfg.RedisAddr()).Int("db", cfg.DB).Msg("connected to Redis")
	return &Client{client: client}, nil
}

// Client returns the underlying Redis client
func (c *Client) Client() *redis.Client {
	return c.client
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.client.Close()
}

// Ping verifies the connection to Redis
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
