package cache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"library-backend/internal/config"
)

const pingTimeout = 2 * time.Second

// RedisClient owns the connection shared by the availability cache,
// the realtime broker and the health checks.
type RedisClient struct {
	Client *redis.Client
}

// NewRedisClient builds the client from REDIS_* settings. Nothing is dialed
// until Connect or the first command.
func NewRedisClient(cfg config.RedisConfig) *RedisClient {
	return &RedisClient{Client: redis.NewClient(Options(cfg))}
}

// Options maps the ledger's redis settings onto go-redis options
func Options(cfg config.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:         cfg.Host,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
}

func (r *RedisClient) Connect(ctx context.Context) error {
	opts := r.Client.Options()
	log.Printf("[REDIS] Dialing %s (db=%d, pool=%d)", opts.Addr, opts.DB, opts.PoolSize)

	if err := r.ping(ctx); err != nil {
		return err
	}

	log.Println("[REDIS] Ready")
	return nil
}

// HealthCheck pings with a short deadline so probes never hang on a dead server
func (r *RedisClient) HealthCheck(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client is not initialized")
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return r.ping(ctx)
}

func (r *RedisClient) ping(ctx context.Context) error {
	if err := r.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping %s: %w", r.Client.Options().Addr, err)
	}
	return nil
}

func (r *RedisClient) Close() error {
	if r == nil || r.Client == nil {
		return nil
	}
	return r.Client.Close()
}
