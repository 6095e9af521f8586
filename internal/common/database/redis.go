// internal/common/database/redis.go
package database

import (
	"context"
	"fmt"

	"legaldash/internal/common/config"
	apperrors "legaldash/internal/common/errors"

	"github.com/redis/go-redis/v9"
)

// RedisClient holds the connection pool behind the correlation cache.
type RedisClient struct {
	Client *redis.Client
}

// NewRedis builds the pool from cfg. No connection is made until first use.
func NewRedis(cfg config.RedisConfig) *RedisClient {
	ioTimeout := config.GetDuration(cfg.IOTimeout)
	return &RedisClient{Client: redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  config.GetDuration(cfg.DialTimeout),
		ReadTimeout:  ioTimeout,
		WriteTimeout: ioTimeout,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	})}
}

// Ping reports a failed round trip as DATABASE_CONNECTION_FAILED.
func (c *RedisClient) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return apperrors.NewDatabaseConnectionFailedError(fmt.Errorf("redis ping failed: %w", err))
	}
	return nil
}

func (c *RedisClient) Close() error {
	if c.Client == nil {
		return nil
	}
	return c.Client.Close()
}
