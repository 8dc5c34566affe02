package origin

import (
	"context"
	"errors"

	"github.com/oriys/memo/internal/config"
	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "memo:origin:"

type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// Redis reads values stored under prefix+key.
type Redis struct {
	client redisClient
	prefix string
}

// NewRedis creates a Redis-backed origin.
func NewRedis(cfg config.RedisConfig) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return newRedisFromClient(client, cfg.KeyPrefix)
}

func newRedisFromClient(client redisClient, prefix string) *Redis {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) Name() string { return "redis" }

func (r *Redis) Fetch(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, notFound(key)
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
