package redis

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Config holds the connection settings for the Redis instance backing the
// user cache and the rate limiter.
type Config struct {
	Host        string
	Port        string
	Password    string
	DB          int
	MaxRetries  int
	PoolSize    int
	MinIdleConn int

	// DialTimeout bounds the initial ping as well. Zero means 5s.
	DialTimeout time.Duration
}

// Addr returns the host:port the client dials.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

func (c Config) options() *redis.Options {
	dial := c.DialTimeout
	if dial <= 0 {
		dial = 5 * time.Second
	}
	return &redis.Options{
		Addr:         c.Addr(),
		Password:     c.Password,
		DB:           c.DB,
		MaxRetries:   c.MaxRetries,
		PoolSize:     c.PoolSize,
		MinIdleConns: c.MinIdleConn,
		DialTimeout:  dial,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// Client is a go-redis client that logs its lifecycle.
type Client struct {
	*redis.Client
	log *zap.Logger
}

// NewClient connects and pings once. The service refuses to start against
// an unreachable Redis rather than silently running without cache.
func NewClient(ctx context.Context, cfg Config, log *zap.Logger) (*Client, error) {
	opts := cfg.options()
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", opts.Addr, err)
	}

	log.Info("Redis connected",
		zap.String("addr", opts.Addr),
		zap.Int("db", cfg.DB),
		zap.Int("pool_size", cfg.PoolSize),
	)
	return &Client{Client: rdb, log: log}, nil
}

// Close releases the connection pool.
func (c *Client) Close() error {
	c.log.Info("closing Redis connection", zap.String("addr", c.Options().Addr))
	return c.Client.Close()
}
