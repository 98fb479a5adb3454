package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	URL string
	TTL time.Duration
}

type Redis struct {
	redisdb *redis.Client
	ttl     time.Duration
	log     *slog.Logger
}

func NewRedis(cfg RedisConfig, log *slog.Logger) (*Redis, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	opts.DialTimeout = 2 * time.Second
	opts.ReadTimeout = 2 * time.Second
	opts.WriteTimeout = 2 * time.Second

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	return &Redis{redisdb: redis.NewClient(opts), ttl: ttl, log: log}, nil
}

func (c *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := c.redisdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.WarnContext(ctx, "cache get failed", "key", key, "err", err)
		}
		return nil, false
	}
	return val, true
}

func (c *Redis) Set(ctx context.Context, key string, val []byte) {
	if err := c.redisdb.Set(ctx, key, val, c.ttl).Err(); err != nil {
		c.log.WarnContext(ctx, "cache set failed", "key", key, "err", err)
	}
}

// DeletePrefix removes every key under prefix using SCAN, never KEYS.
func (c *Redis) DeletePrefix(ctx context.Context, prefix string) {
	var cursor uint64

	for {
		keys, next, err := c.redisdb.Scan(ctx, cursor, prefix+"*", 200).Result()
		if err != nil {
			c.log.WarnContext(ctx, "cache scan failed", "prefix", prefix, "err", err)
			return
		}

		if len(keys) > 0 {
			if err := c.redisdb.Del(ctx, keys...).Err(); err != nil {
				c.log.WarnContext(ctx, "cache delete failed", "prefix", prefix, "err", err)
				return
			}
		}

		if next == 0 {
			return
		}
		cursor = next
	}
}

// this ping function checks redis connectivity
func (c *Redis) Ping(ctx context.Context) error {
	return c.redisdb.Ping(ctx).Err()
}

func (c *Redis) Close() error {
	return c.redisdb.Close()
}
